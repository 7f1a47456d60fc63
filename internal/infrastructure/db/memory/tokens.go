package memory

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"

	"github.com/innoshop/platform/internal/core/domain"
	"github.com/innoshop/platform/internal/core/ports"
)

type tokenKey struct {
	purpose   domain.TokenPurpose
	accountID string
}

type tokenEntry struct {
	value     string
	expiresAt time.Time
}

// TokenStore implements ports.TokenStore with per-purpose expiry windows.
type TokenStore struct {
	mu      sync.Mutex
	tokens  map[tokenKey][]tokenEntry
	windows map[domain.TokenPurpose]time.Duration
	clock   ports.Clock
}

func NewTokenStore(windows map[domain.TokenPurpose]time.Duration, clock ports.Clock) *TokenStore {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &TokenStore{
		tokens:  make(map[tokenKey][]tokenEntry),
		windows: windows,
		clock:   clock,
	}
}

func (s *TokenStore) Save(_ context.Context, purpose domain.TokenPurpose, accountID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := tokenKey{purpose, accountID}
	s.tokens[k] = append(s.live(k), tokenEntry{
		value:     token,
		expiresAt: s.clock.Now().Add(s.windows[purpose]),
	})
	return nil
}

func (s *TokenStore) Consume(_ context.Context, purpose domain.TokenPurpose, accountID, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := tokenKey{purpose, accountID}
	entries := s.live(k)
	for i, e := range entries {
		if subtle.ConstantTimeCompare([]byte(e.value), []byte(token)) == 1 {
			s.tokens[k] = append(entries[:i:i], entries[i+1:]...)
			return true, nil
		}
	}
	s.tokens[k] = entries
	return false, nil
}

func (s *TokenStore) RevokeAll(_ context.Context, purpose domain.TokenPurpose, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tokens, tokenKey{purpose, accountID})
	return nil
}

// Outstanding counts unexpired tokens of purpose for the account.
func (s *TokenStore) Outstanding(purpose domain.TokenPurpose, accountID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.live(tokenKey{purpose, accountID}))
}

// live drops expired entries. Callers hold mu.
func (s *TokenStore) live(k tokenKey) []tokenEntry {
	now := s.clock.Now()
	entries := s.tokens[k][:0:0]
	for _, e := range s.tokens[k] {
		if now.Before(e.expiresAt) {
			entries = append(entries, e)
		}
	}
	return entries
}
