package ports

import (
	"context"

	"github.com/innoshop/platform/internal/core/domain"
)

// AccountRepository is the account half of the credential store.
// Lookups by email are case-insensitive. Missing records are reported as
// domain.ErrAccountNotFound, infrastructure failures as domain.ErrStoreUnavailable.
type AccountRepository interface {
	// Create inserts a new account. A second account with the same
	// normalized email fails with domain.ErrDuplicateEmail.
	Create(ctx context.Context, account *domain.Account) error
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Update replaces the mutable fields of an existing account.
	Update(ctx context.Context, account *domain.Account) error
	Remove(ctx context.Context, id string) error
	// List returns the accounts matching filter ordered by creation time.
	List(ctx context.Context, filter AccountFilter) ([]*domain.Account, error)
}

// AccountFilter narrows an account listing. Search matches the display name
// or email case-insensitively; empty matches everything.
type AccountFilter struct {
	Search string
}

// RoleRepository stores the role catalogue. Names are unique.
type RoleRepository interface {
	// Create inserts a role. An existing name fails with domain.ErrRoleExists.
	Create(ctx context.Context, role *domain.Role) error
	Exists(ctx context.Context, name string) (bool, error)
	List(ctx context.Context) ([]domain.Role, error)
}

// TokenStore keeps outstanding single-use tokens keyed by account and purpose.
type TokenStore interface {
	// Save records token for the account; it expires after the store's
	// configured window for purpose.
	Save(ctx context.Context, purpose domain.TokenPurpose, accountID, token string) error
	// Consume atomically checks and invalidates token. It reports false when
	// the token is unknown, expired or already consumed.
	Consume(ctx context.Context, purpose domain.TokenPurpose, accountID, token string) (bool, error)
	// RevokeAll invalidates every outstanding token of purpose for the account.
	RevokeAll(ctx context.Context, purpose domain.TokenPurpose, accountID string) error
}
