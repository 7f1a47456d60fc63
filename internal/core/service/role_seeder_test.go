package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/innoshop/platform/internal/core/domain"
	"github.com/innoshop/platform/internal/infrastructure/db/memory"
)

// racingRoles reports every role as missing and then loses the insert race.
type racingRoles struct {
	created []string
}

func (r *racingRoles) Create(_ context.Context, role *domain.Role) error {
	r.created = append(r.created, role.Name)
	return domain.ErrRoleExists
}

func (r *racingRoles) Exists(context.Context, string) (bool, error) { return false, nil }

func (r *racingRoles) List(context.Context) ([]domain.Role, error) { return nil, nil }

type brokenRoles struct{ err error }

func (r brokenRoles) Create(context.Context, *domain.Role) error { return r.err }

func (r brokenRoles) Exists(context.Context, string) (bool, error) { return false, r.err }

func (r brokenRoles) List(context.Context) ([]domain.Role, error) { return nil, r.err }

func TestRoleSeeder_CreatesMissingRoles(t *testing.T) {
	roles := memory.NewAccountStore().Roles()
	seeder := NewRoleSeeder(roles, newFakeClock(), zerolog.Nop())

	if err := seeder.EnsureRoles(context.Background(), domain.DefaultRoles); err != nil {
		t.Fatalf("seed: %v", err)
	}

	list, err := roles.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != len(domain.DefaultRoles) {
		t.Fatalf("expected %d roles, got %d", len(domain.DefaultRoles), len(list))
	}
}

func TestRoleSeeder_Idempotent(t *testing.T) {
	roles := memory.NewAccountStore().Roles()
	seeder := NewRoleSeeder(roles, newFakeClock(), zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := seeder.EnsureRoles(ctx, domain.DefaultRoles); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	list, _ := roles.List(ctx)
	if len(list) != len(domain.DefaultRoles) {
		t.Fatalf("expected %d roles after repeated runs, got %d", len(domain.DefaultRoles), len(list))
	}
}

func TestRoleSeeder_ConcurrentRuns(t *testing.T) {
	roles := memory.NewAccountStore().Roles()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- NewRoleSeeder(roles, nil, zerolog.Nop()).EnsureRoles(ctx, domain.DefaultRoles)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent seed: %v", err)
		}
	}
	list, _ := roles.List(ctx)
	if len(list) != len(domain.DefaultRoles) {
		t.Fatalf("expected exactly %d roles, got %d", len(domain.DefaultRoles), len(list))
	}
}

func TestRoleSeeder_LostRaceIsSuccess(t *testing.T) {
	roles := &racingRoles{}
	if err := NewRoleSeeder(roles, nil, zerolog.Nop()).EnsureRoles(context.Background(), []string{domain.RoleAdmin}); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(roles.created) != 1 {
		t.Fatalf("expected one insert attempt, got %v", roles.created)
	}
}

func TestRoleSeeder_StoreFailureIsReturned(t *testing.T) {
	storeErr := domain.NewStoreError("count roles", errors.New("no reachable servers"))
	err := NewRoleSeeder(brokenRoles{err: storeErr}, nil, zerolog.Nop()).EnsureRoles(context.Background(), domain.DefaultRoles)
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
