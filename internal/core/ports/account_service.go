package ports

import (
	"context"

	"github.com/innoshop/platform/internal/core/domain"
)

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

// RegisterResult is returned after a successful registration. The
// confirmation token is also handed to the notifier.
type RegisterResult struct {
	AccountID         string
	ConfirmationToken string
}

// ResetPasswordInput carries the fields of a password reset request.
type ResetPasswordInput struct {
	Email       string
	Token       string
	NewPassword string
}

// ProfileInput carries the editable profile fields.
type ProfileInput struct {
	DisplayName string
}

// AccountService is the account lifecycle: registration, confirmation,
// login and password recovery, plus account administration.
type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*RegisterResult, error)
	ConfirmEmail(ctx context.Context, accountID, token string) error
	Login(ctx context.Context, email, password string) (domain.IssuedToken, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, in ResetPasswordInput) error
	Profile(ctx context.Context, accountID string) (*domain.Account, error)
	SetActive(ctx context.Context, accountID string, active bool) error
	UpdateProfile(ctx context.Context, accountID string, in ProfileInput) (*domain.Account, error)
	ListAccounts(ctx context.Context, filter AccountFilter) ([]*domain.Account, error)
	// AssignRole fails with domain.ErrRoleNotFound for an unknown role and
	// domain.ErrAccountNotFound for an unknown account.
	AssignRole(ctx context.Context, accountID, role string) error
}
