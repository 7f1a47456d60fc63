package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/innoshop/platform/internal/core/domain"
	"github.com/innoshop/platform/internal/core/ports"
)

// AccountDeps groups the collaborators of AccountService.
type AccountDeps struct {
	Accounts ports.AccountRepository
	Roles    ports.RoleRepository
	Tokens   ports.TokenStore
	Hasher   ports.PasswordHasher
	Issuer   ports.TokenIssuer
	Secrets  ports.SecretGenerator
	Notifier ports.Notifier
	Clock    ports.Clock
}

// AccountService implements the account lifecycle.
type AccountService struct {
	deps   AccountDeps
	policy PasswordPolicy
	log    zerolog.Logger

	// dummyHash is compared against on logins for unknown emails.
	dummyHash string
}

// NewAccountService fails when the hasher cannot produce the dummy hash used
// to equalize login timing.
func NewAccountService(deps AccountDeps, policy PasswordPolicy, log zerolog.Logger) (*AccountService, error) {
	if deps.Clock == nil {
		deps.Clock = ports.SystemClock{}
	}
	dummy, err := deps.Hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &AccountService{deps: deps, policy: policy, log: log, dummyHash: dummy}, nil
}

// Register creates an unconfirmed account with the User role and mints its
// confirmation token.
func (s *AccountService) Register(ctx context.Context, in ports.RegisterInput) (*ports.RegisterResult, error) {
	if err := s.policy.Check(in.Password); err != nil {
		return nil, err
	}

	taken, err := s.deps.Accounts.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrDuplicateEmail
	}

	ok, err := s.deps.Roles.Exists(ctx, domain.RoleUser)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrRoleNotFound
	}

	hash, err := s.deps.Hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.deps.Clock.Now()
	account := &domain.Account{
		ID:           uuid.NewString(),
		Email:        in.Email,
		DisplayName:  in.DisplayName,
		PasswordHash: hash,
		IsActive:     true,
		Roles:        []string{domain.RoleUser},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// The unique email constraint decides concurrent registrations.
	if err := s.deps.Accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	token, err := s.mint(ctx, domain.PurposeConfirmEmail, account.ID)
	if err != nil {
		if rmErr := s.deps.Accounts.Remove(ctx, account.ID); rmErr != nil {
			s.log.Error().Err(rmErr).Str("account_id", account.ID).Msg("failed to roll back registration")
		}
		return nil, err
	}

	s.notify(ctx, domain.Notification{
		Kind:        domain.NotifyConfirmEmail,
		AccountID:   account.ID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		Token:       token,
	})

	s.log.Info().Str("account_id", account.ID).Msg("account registered")
	return &ports.RegisterResult{AccountID: account.ID, ConfirmationToken: token}, nil
}

// ConfirmEmail consumes a confirmation token and marks the email confirmed.
func (s *AccountService) ConfirmEmail(ctx context.Context, accountID, token string) error {
	account, err := s.deps.Accounts.FindByID(ctx, accountID)
	if err != nil {
		return err
	}

	valid, err := s.deps.Tokens.Consume(ctx, domain.PurposeConfirmEmail, account.ID, token)
	if err != nil {
		return err
	}
	if !valid {
		return domain.ErrInvalidToken
	}

	account.IsEmailConfirmed = true
	account.UpdatedAt = s.deps.Clock.Now()
	if err := s.deps.Accounts.Update(ctx, account); err != nil {
		return err
	}

	s.log.Info().Str("account_id", account.ID).Msg("email confirmed")
	return nil
}

// Login checks credentials and account state and issues a bearer token.
// An unknown email and a wrong password both yield domain.ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, email, password string) (domain.IssuedToken, error) {
	account, err := s.deps.Accounts.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrAccountNotFound) {
		// Spend the same hashing time as a real comparison.
		s.deps.Hasher.Verify(s.dummyHash, password)
		return domain.IssuedToken{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.IssuedToken{}, err
	}

	if !account.IsEmailConfirmed {
		return domain.IssuedToken{}, domain.ErrEmailNotConfirmed
	}
	if !account.IsActive {
		return domain.IssuedToken{}, domain.ErrAccountInactive
	}
	if !s.deps.Hasher.Verify(account.PasswordHash, password) {
		return domain.IssuedToken{}, domain.ErrInvalidCredentials
	}

	issued, err := s.deps.Issuer.Issue(account)
	if err != nil {
		return domain.IssuedToken{}, err
	}

	s.log.Info().Str("account_id", account.ID).Msg("login succeeded")
	return issued, nil
}

// ForgotPassword mints a reset token when the email belongs to an account.
// The outcome is identical whether or not it does.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	account, err := s.deps.Accounts.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrAccountNotFound) {
		s.log.Debug().Msg("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	token, err := s.mint(ctx, domain.PurposeResetPassword, account.ID)
	if err != nil {
		return err
	}

	s.notify(ctx, domain.Notification{
		Kind:        domain.NotifyResetPassword,
		AccountID:   account.ID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		Token:       token,
	})

	s.log.Info().Str("account_id", account.ID).Msg("password reset requested")
	return nil
}

// ResetPassword replaces the password when token is a valid reset token
// and revokes every other outstanding reset token of the account.
func (s *AccountService) ResetPassword(ctx context.Context, in ports.ResetPasswordInput) error {
	// Checked before the lookup so the answer is the same for unknown emails,
	// and before consuming so a rejected password does not burn the token.
	if err := s.policy.Check(in.NewPassword); err != nil {
		return err
	}

	account, err := s.deps.Accounts.FindByEmail(ctx, in.Email)
	if err != nil {
		return err
	}

	valid, err := s.deps.Tokens.Consume(ctx, domain.PurposeResetPassword, account.ID, in.Token)
	if err != nil {
		return err
	}
	if !valid {
		return domain.ErrInvalidToken
	}

	hash, err := s.deps.Hasher.Hash(in.NewPassword)
	if err != nil {
		return err
	}

	account.PasswordHash = hash
	account.UpdatedAt = s.deps.Clock.Now()
	if err := s.deps.Accounts.Update(ctx, account); err != nil {
		return err
	}

	if err := s.deps.Tokens.RevokeAll(ctx, domain.PurposeResetPassword, account.ID); err != nil {
		return err
	}

	s.log.Info().Str("account_id", account.ID).Msg("password reset")
	return nil
}

// Profile returns the account identified by accountID.
func (s *AccountService) Profile(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.deps.Accounts.FindByID(ctx, accountID)
}

// SetActive activates or deactivates an account. Tokens issued before a
// deactivation stay valid until they expire.
func (s *AccountService) SetActive(ctx context.Context, accountID string, active bool) error {
	account, err := s.deps.Accounts.FindByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account.IsActive == active {
		return nil
	}

	account.IsActive = active
	account.UpdatedAt = s.deps.Clock.Now()
	if err := s.deps.Accounts.Update(ctx, account); err != nil {
		return err
	}

	s.log.Info().Str("account_id", account.ID).Bool("active", active).Msg("account status changed")
	return nil
}

// UpdateProfile replaces the display name of an account.
func (s *AccountService) UpdateProfile(ctx context.Context, accountID string, in ports.ProfileInput) (*domain.Account, error) {
	account, err := s.deps.Accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	account.DisplayName = in.DisplayName
	account.UpdatedAt = s.deps.Clock.Now()
	if err := s.deps.Accounts.Update(ctx, account); err != nil {
		return nil, err
	}

	s.log.Info().Str("account_id", account.ID).Msg("profile updated")
	return account, nil
}

// ListAccounts returns the accounts matching filter, oldest first.
func (s *AccountService) ListAccounts(ctx context.Context, filter ports.AccountFilter) ([]*domain.Account, error) {
	return s.deps.Accounts.List(ctx, filter)
}

// AssignRole grants role to an account. Granting a role the account already
// holds is a no-op. Tokens issued earlier keep their old role set.
func (s *AccountService) AssignRole(ctx context.Context, accountID, role string) error {
	ok, err := s.deps.Roles.Exists(ctx, role)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrRoleNotFound
	}

	account, err := s.deps.Accounts.FindByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account.HasRole(role) {
		return nil
	}

	account.Roles = append(account.Roles, role)
	account.UpdatedAt = s.deps.Clock.Now()
	if err := s.deps.Accounts.Update(ctx, account); err != nil {
		return err
	}

	s.log.Info().Str("account_id", account.ID).Str("role", role).Msg("role assigned")
	return nil
}

// BootstrapAdmin grants the Admin role to the account registered under
// email. A missing account is logged and skipped so the first operator can
// register, confirm and restart.
func (s *AccountService) BootstrapAdmin(ctx context.Context, email string) error {
	account, err := s.deps.Accounts.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrAccountNotFound) {
		s.log.Warn().Msg("bootstrap admin account not registered yet")
		return nil
	}
	if err != nil {
		return err
	}
	return s.AssignRole(ctx, account.ID, domain.RoleAdmin)
}

func (s *AccountService) mint(ctx context.Context, purpose domain.TokenPurpose, accountID string) (string, error) {
	token, err := s.deps.Secrets.NewSecret()
	if err != nil {
		return "", err
	}
	if err := s.deps.Tokens.Save(ctx, purpose, accountID, token); err != nil {
		return "", err
	}
	return token, nil
}

// notify is fire-and-forget: a delivery problem never fails the caller.
func (s *AccountService) notify(ctx context.Context, n domain.Notification) {
	if s.deps.Notifier == nil {
		return
	}
	if err := s.deps.Notifier.Notify(ctx, n); err != nil {
		s.log.Warn().Err(err).
			Str("account_id", n.AccountID).
			Str("kind", string(n.Kind)).
			Msg("notification not queued")
	}
}

var _ ports.AccountService = (*AccountService)(nil)
