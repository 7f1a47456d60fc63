// Package memory is a thread-safe in-memory credential store and product
// repository. It backs STORE_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/innoshop/platform/internal/core/domain"
	"github.com/innoshop/platform/internal/core/ports"
)

// AccountStore implements ports.AccountRepository and ports.RoleRepository.
type AccountStore struct {
	mu sync.RWMutex

	byID    map[string]*domain.Account
	byEmail map[string]string // normalized email -> id
	roles   map[string]domain.Role
}

func NewAccountStore() *AccountStore {
	return &AccountStore{
		byID:    make(map[string]*domain.Account),
		byEmail: make(map[string]string),
		roles:   make(map[string]domain.Role),
	}
}

func (s *AccountStore) Create(_ context.Context, a *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.NormalizeEmail(a.Email)
	if _, taken := s.byEmail[key]; taken {
		return domain.ErrDuplicateEmail
	}
	s.byID[a.ID] = a.Clone()
	s.byEmail[key] = a.ID
	return nil
}

func (s *AccountStore) FindByID(_ context.Context, id string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return a.Clone(), nil
}

func (s *AccountStore) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return s.byID[id].Clone(), nil
}

func (s *AccountStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byEmail[domain.NormalizeEmail(email)]
	return ok, nil
}

func (s *AccountStore) Update(_ context.Context, a *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[a.ID]
	if !ok {
		return domain.ErrAccountNotFound
	}

	oldKey := domain.NormalizeEmail(current.Email)
	newKey := domain.NormalizeEmail(a.Email)
	if oldKey != newKey {
		if _, taken := s.byEmail[newKey]; taken {
			return domain.ErrDuplicateEmail
		}
		delete(s.byEmail, oldKey)
		s.byEmail[newKey] = a.ID
	}

	next := a.Clone()
	next.CreatedAt = current.CreatedAt
	s.byID[a.ID] = next
	return nil
}

func (s *AccountStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	delete(s.byEmail, domain.NormalizeEmail(a.Email))
	delete(s.byID, id)
	return nil
}

func (s *AccountStore) List(_ context.Context, f ports.AccountFilter) ([]*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]*domain.Account, 0, len(s.byID))
	for _, a := range s.byID {
		if search != "" &&
			!strings.Contains(strings.ToLower(a.DisplayName), search) &&
			!strings.Contains(strings.ToLower(a.Email), search) {
			continue
		}
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Email < out[j].Email
	})
	return out, nil
}

// Roles returns the role half of the store.
func (s *AccountStore) Roles() *RoleStore { return &RoleStore{s: s} }

// RoleStore implements ports.RoleRepository on top of an AccountStore.
type RoleStore struct{ s *AccountStore }

func (r *RoleStore) Create(_ context.Context, role *domain.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.roles[role.Name]; exists {
		return domain.ErrRoleExists
	}
	r.s.roles[role.Name] = *role
	return nil
}

func (r *RoleStore) Exists(_ context.Context, name string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.roles[name]
	return ok, nil
}

func (r *RoleStore) List(_ context.Context) ([]domain.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Role, 0, len(r.s.roles))
	for _, role := range r.s.roles {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
