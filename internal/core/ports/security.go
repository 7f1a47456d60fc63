package ports

import (
	"time"

	"github.com/innoshop/platform/internal/core/domain"
)

// PasswordHasher is a salted one-way password hash.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Verify never fails on a mismatch; it just reports false.
	Verify(hash, plaintext string) bool
}

// TokenIssuer signs bearer tokens for accounts.
type TokenIssuer interface {
	Issue(account *domain.Account) (domain.IssuedToken, error)
}

// TokenValidator checks inbound bearer tokens. Failures are
// domain.ErrTokenMalformed, domain.ErrTokenInvalidSignature or domain.ErrTokenExpired.
type TokenValidator interface {
	Validate(token string) (domain.Principal, error)
}

// SecretGenerator mints opaque single-use token values.
type SecretGenerator interface {
	NewSecret() (string, error)
}

// Clock is injected wherever expiry is evaluated.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
