package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/innoshop/platform/internal/core/domain"
	"github.com/innoshop/platform/internal/core/ports"
	"github.com/innoshop/platform/internal/infrastructure/db/memory"
	"github.com/innoshop/platform/internal/infrastructure/security"
	"github.com/innoshop/platform/internal/infrastructure/token"
)

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, msg domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) last() domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent[len(n.sent)-1]
}

type failingSecrets struct{}

func (failingSecrets) NewSecret() (string, error) { return "", errors.New("entropy exhausted") }

type accountFixture struct {
	svc      *AccountService
	accounts *memory.AccountStore
	tokens   *memory.TokenStore
	notifier *recordingNotifier
	issuer   *token.JWTIssuer
	clock    *fakeClock
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()

	clock := newFakeClock()
	accounts := memory.NewAccountStore()
	roles := accounts.Roles()
	if err := NewRoleSeeder(roles, clock, zerolog.Nop()).EnsureRoles(context.Background(), domain.DefaultRoles); err != nil {
		t.Fatalf("seed roles: %v", err)
	}

	tokens := memory.NewTokenStore(map[domain.TokenPurpose]time.Duration{
		domain.PurposeConfirmEmail:  24 * time.Hour,
		domain.PurposeResetPassword: time.Hour,
	}, clock)

	issuer, err := token.NewJWTIssuer(token.Config{
		Key: []byte("0123456789abcdef0123456789abcdef"),
		TTL: time.Hour,
	}, clock)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}

	notifier := &recordingNotifier{}
	svc, err := NewAccountService(AccountDeps{
		Accounts: accounts,
		Roles:    roles,
		Tokens:   tokens,
		Hasher:   security.NewBcryptHasher(bcrypt.MinCost),
		Issuer:   issuer,
		Secrets:  security.RandomSecrets{},
		Notifier: notifier,
		Clock:    clock,
	}, DefaultPasswordPolicy(), zerolog.Nop())
	if err != nil {
		t.Fatalf("account service: %v", err)
	}

	return &accountFixture{svc: svc, accounts: accounts, tokens: tokens, notifier: notifier, issuer: issuer, clock: clock}
}

func (f *accountFixture) register(t *testing.T, email, password string) *ports.RegisterResult {
	t.Helper()
	res, err := f.svc.Register(context.Background(), ports.RegisterInput{Email: email, Password: password, DisplayName: "Test User"})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return res
}

func (f *accountFixture) registerConfirmed(t *testing.T, email, password string) *ports.RegisterResult {
	t.Helper()
	res := f.register(t, email, password)
	if err := f.svc.ConfirmEmail(context.Background(), res.AccountID, res.ConfirmationToken); err != nil {
		t.Fatalf("confirm %s: %v", email, err)
	}
	return res
}

// ---------------------------------------------------------------------------
// Register / confirm / login
// ---------------------------------------------------------------------------

func TestAccountService_RegisterConfirmLogin(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	res := f.register(t, "alice@example.com", "secret1")

	acc, err := f.accounts.FindByID(ctx, res.AccountID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if acc.IsEmailConfirmed || !acc.IsActive || !acc.HasRole(domain.RoleUser) {
		t.Fatalf("unexpected initial state: %+v", acc)
	}
	if acc.PasswordHash == "secret1" || acc.PasswordHash == "" {
		t.Fatal("password must be stored hashed")
	}

	n := f.notifier.last()
	if n.Kind != domain.NotifyConfirmEmail || n.AccountID != res.AccountID || n.Token != res.ConfirmationToken {
		t.Fatalf("unexpected notification: %+v", n)
	}

	if err := f.svc.ConfirmEmail(ctx, res.AccountID, res.ConfirmationToken); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if err := f.svc.ConfirmEmail(ctx, res.AccountID, res.ConfirmationToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("second confirm: expected ErrInvalidToken, got %v", err)
	}

	issued, err := f.svc.Login(ctx, "Alice@Example.com", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !issued.ExpiresAt.Equal(f.clock.Now().Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v", issued.ExpiresAt)
	}

	p, err := f.issuer.Validate(issued.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if p.ID != res.AccountID || len(p.Roles) != 1 || p.Roles[0] != domain.RoleUser {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestAccountService_Register_DuplicateEmail(t *testing.T) {
	f := newAccountFixture(t)
	first := f.register(t, "bob@example.com", "secret1")

	_, err := f.svc.Register(context.Background(), ports.RegisterInput{Email: "BOB@example.com", Password: "other22", DisplayName: "Bob"})
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	acc, err := f.accounts.FindByEmail(context.Background(), "bob@example.com")
	if err != nil || acc.ID != first.AccountID {
		t.Fatalf("original account must be untouched: %+v %v", acc, err)
	}
}

func TestAccountService_Register_WeakPassword(t *testing.T) {
	f := newAccountFixture(t)

	_, err := f.svc.Register(context.Background(), ports.RegisterInput{Email: "weak@example.com", Password: "abc", DisplayName: "W"})
	if !errors.Is(err, domain.ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	var policy *domain.PasswordPolicyError
	if !errors.As(err, &policy) || len(policy.Violations) != 2 {
		t.Fatalf("expected two violations, got %v", err)
	}
	if ok, _ := f.accounts.ExistsByEmail(context.Background(), "weak@example.com"); ok {
		t.Fatal("no account must be created")
	}
}

func TestAccountService_Register_RollsBackWhenTokenMintFails(t *testing.T) {
	f := newAccountFixture(t)
	f.svc.deps.Secrets = failingSecrets{}

	_, err := f.svc.Register(context.Background(), ports.RegisterInput{Email: "c@example.com", Password: "secret1"})
	if err == nil {
		t.Fatal("expected error")
	}
	if ok, _ := f.accounts.ExistsByEmail(context.Background(), "c@example.com"); ok {
		t.Fatal("partial account left behind")
	}
}

func TestAccountService_Register_NotifierFailureDoesNotFail(t *testing.T) {
	f := newAccountFixture(t)
	f.notifier.err = errors.New("queue full")

	if _, err := f.svc.Register(context.Background(), ports.RegisterInput{Email: "d@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("register: %v", err)
	}
}

func TestAccountService_Register_MissingUserRole(t *testing.T) {
	f := newAccountFixture(t)
	f.svc.deps.Roles = memory.NewAccountStore().Roles()

	_, err := f.svc.Register(context.Background(), ports.RegisterInput{Email: "e@example.com", Password: "secret1"})
	if !errors.Is(err, domain.ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}
}

func TestAccountService_ConfirmEmail_WrongTokenOrAccount(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	a := f.register(t, "a@example.com", "secret1")
	b := f.register(t, "b@example.com", "secret1")

	if err := f.svc.ConfirmEmail(ctx, a.AccountID, b.ConfirmationToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("cross-account token: expected ErrInvalidToken, got %v", err)
	}
	if err := f.svc.ConfirmEmail(ctx, "missing", a.ConfirmationToken); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("unknown account: expected ErrAccountNotFound, got %v", err)
	}
	if err := f.svc.ConfirmEmail(ctx, b.AccountID, b.ConfirmationToken); err != nil {
		t.Fatalf("b's own token must still work: %v", err)
	}
}

func TestAccountService_ConfirmEmail_Expired(t *testing.T) {
	f := newAccountFixture(t)
	res := f.register(t, "late@example.com", "secret1")

	f.clock.Advance(24 * time.Hour)
	if err := f.svc.ConfirmEmail(context.Background(), res.AccountID, res.ConfirmationToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAccountService_Login_Failures(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	f.register(t, "pending@example.com", "secret1")
	confirmed := f.registerConfirmed(t, "ok@example.com", "secret1")

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"unknown email", "ghost@example.com", "secret1", domain.ErrInvalidCredentials},
		{"wrong password", "ok@example.com", "wrong11", domain.ErrInvalidCredentials},
		{"unconfirmed with right password", "pending@example.com", "secret1", domain.ErrEmailNotConfirmed},
		{"unconfirmed with wrong password", "pending@example.com", "wrong11", domain.ErrEmailNotConfirmed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Login(ctx, tt.email, tt.password); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if err := f.svc.SetActive(ctx, confirmed.AccountID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := f.svc.Login(ctx, "ok@example.com", "secret1"); !errors.Is(err, domain.ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
}

func TestAccountService_SetActive(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	res := f.registerConfirmed(t, "toggle@example.com", "secret1")

	issued, err := f.svc.Login(ctx, "toggle@example.com", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := f.svc.SetActive(ctx, res.AccountID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	// Tokens issued earlier stay valid until they expire.
	if _, err := f.issuer.Validate(issued.Token); err != nil {
		t.Fatalf("existing token must remain valid: %v", err)
	}

	if err := f.svc.SetActive(ctx, res.AccountID, true); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if _, err := f.svc.Login(ctx, "toggle@example.com", "secret1"); err != nil {
		t.Fatalf("login after reactivation: %v", err)
	}

	if err := f.svc.SetActive(ctx, "missing", true); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountService_Profile(t *testing.T) {
	f := newAccountFixture(t)
	res := f.register(t, "me@example.com", "secret1")

	acc, err := f.svc.Profile(context.Background(), res.AccountID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if acc.Email != "me@example.com" {
		t.Fatalf("unexpected account: %+v", acc)
	}
	if _, err := f.svc.Profile(context.Background(), "missing"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Password recovery
// ---------------------------------------------------------------------------

func TestAccountService_ForgotPassword_UnknownEmail(t *testing.T) {
	f := newAccountFixture(t)
	before := len(f.notifier.sent)

	if err := f.svc.ForgotPassword(context.Background(), "ghost@example.com"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if len(f.notifier.sent) != before {
		t.Fatal("no notification may be sent for an unknown email")
	}
}

func TestAccountService_ResetPasswordFlow(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	res := f.registerConfirmed(t, "reset@example.com", "secret1")

	if err := f.svc.ForgotPassword(ctx, "reset@example.com"); err != nil {
		t.Fatalf("forgot #1: %v", err)
	}
	first := f.notifier.last().Token
	if err := f.svc.ForgotPassword(ctx, "reset@example.com"); err != nil {
		t.Fatalf("forgot #2: %v", err)
	}
	second := f.notifier.last()
	if second.Kind != domain.NotifyResetPassword || second.Token == first {
		t.Fatalf("unexpected notification: %+v", second)
	}
	if got := f.tokens.Outstanding(domain.PurposeResetPassword, res.AccountID); got != 2 {
		t.Fatalf("expected 2 outstanding reset tokens, got %d", got)
	}

	err := f.svc.ResetPassword(ctx, ports.ResetPasswordInput{Email: "reset@example.com", Token: second.Token, NewPassword: "brandnew9"})
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if got := f.tokens.Outstanding(domain.PurposeResetPassword, res.AccountID); got != 0 {
		t.Fatalf("expected all reset tokens revoked, got %d", got)
	}

	if _, err := f.svc.Login(ctx, "reset@example.com", "secret1"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("old password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := f.svc.Login(ctx, "reset@example.com", "brandnew9"); err != nil {
		t.Fatalf("new password: %v", err)
	}

	err = f.svc.ResetPassword(ctx, ports.ResetPasswordInput{Email: "reset@example.com", Token: first, NewPassword: "another77"})
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("revoked token: expected ErrInvalidToken, got %v", err)
	}
}

func TestAccountService_ResetPassword_WeakPasswordKeepsToken(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	res := f.registerConfirmed(t, "keep@example.com", "secret1")

	if err := f.svc.ForgotPassword(ctx, "keep@example.com"); err != nil {
		t.Fatalf("forgot: %v", err)
	}
	tok := f.notifier.last().Token

	err := f.svc.ResetPassword(ctx, ports.ResetPasswordInput{Email: "keep@example.com", Token: tok, NewPassword: "short"})
	if !errors.Is(err, domain.ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if got := f.tokens.Outstanding(domain.PurposeResetPassword, res.AccountID); got != 1 {
		t.Fatalf("token must survive a rejected password, outstanding=%d", got)
	}
}

func TestAccountService_ResetPassword_ConfirmationTokenRejected(t *testing.T) {
	f := newAccountFixture(t)
	res := f.register(t, "mix@example.com", "secret1")

	err := f.svc.ResetPassword(context.Background(), ports.ResetPasswordInput{Email: "mix@example.com", Token: res.ConfirmationToken, NewPassword: "brandnew9"})
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAccountService_ResetPassword_UnknownEmail(t *testing.T) {
	f := newAccountFixture(t)

	err := f.svc.ResetPassword(context.Background(), ports.ResetPasswordInput{Email: "ghost@example.com", Token: "x", NewPassword: "brandnew9"})
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountService_Register_PasswordOverBcryptLimit(t *testing.T) {
	f := newAccountFixture(t)

	_, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Email:       "long@example.com",
		Password:    "a1" + strings.Repeat("x", 80),
		DisplayName: "L",
	})
	if !errors.Is(err, domain.ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if ok, _ := f.accounts.ExistsByEmail(context.Background(), "long@example.com"); ok {
		t.Fatal("no account must be created")
	}
}

func TestAccountService_ResetPassword_WeakPasswordSameForUnknownEmail(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	f.registerConfirmed(t, "known@example.com", "secret1")

	known := f.svc.ResetPassword(ctx, ports.ResetPasswordInput{Email: "known@example.com", Token: "x", NewPassword: "abc"})
	unknown := f.svc.ResetPassword(ctx, ports.ResetPasswordInput{Email: "ghost@example.com", Token: "x", NewPassword: "abc"})

	if !errors.Is(known, domain.ErrWeakPassword) || !errors.Is(unknown, domain.ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword for both, got %v and %v", known, unknown)
	}
	if known.Error() != unknown.Error() {
		t.Fatalf("responses differ: %q vs %q", known, unknown)
	}
}

type failingHasher struct{}

func (failingHasher) Hash(string) (string, error) { return "", errors.New("hasher offline") }
func (failingHasher) Verify(string, string) bool  { return false }

func TestNewAccountService_DummyHashFailure(t *testing.T) {
	_, err := NewAccountService(AccountDeps{Hasher: failingHasher{}}, DefaultPasswordPolicy(), zerolog.Nop())
	if err == nil {
		t.Fatal("expected an error when the dummy hash cannot be built")
	}
}

// ---------------------------------------------------------------------------
// Administration
// ---------------------------------------------------------------------------

func TestAccountService_AssignRole(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	res := f.registerConfirmed(t, "promote@example.com", "secret1")

	if err := f.svc.AssignRole(ctx, res.AccountID, domain.RoleAdmin); err != nil {
		t.Fatalf("assign: %v", err)
	}
	// Granting again is a no-op.
	if err := f.svc.AssignRole(ctx, res.AccountID, domain.RoleAdmin); err != nil {
		t.Fatalf("assign again: %v", err)
	}

	acc, err := f.accounts.FindByID(ctx, res.AccountID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(acc.Roles) != 2 || !acc.HasRole(domain.RoleUser) || !acc.HasRole(domain.RoleAdmin) {
		t.Fatalf("unexpected roles: %v", acc.Roles)
	}

	issued, err := f.svc.Login(ctx, "promote@example.com", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	p, err := f.issuer.Validate(issued.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !p.HasAnyRole(domain.RoleAdmin) {
		t.Fatalf("new token must carry Admin, got %v", p.Roles)
	}
}

func TestAccountService_AssignRole_Errors(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	res := f.register(t, "roles@example.com", "secret1")

	if err := f.svc.AssignRole(ctx, res.AccountID, "Root"); !errors.Is(err, domain.ErrRoleNotFound) {
		t.Fatalf("unknown role: expected ErrRoleNotFound, got %v", err)
	}
	if err := f.svc.AssignRole(ctx, "missing", domain.RoleAdmin); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("unknown account: expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountService_BootstrapAdmin(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	if err := f.svc.BootstrapAdmin(ctx, "root@example.com"); err != nil {
		t.Fatalf("missing account must be skipped, got %v", err)
	}

	res := f.register(t, "root@example.com", "secret1")
	if err := f.svc.BootstrapAdmin(ctx, "ROOT@example.com"); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	acc, _ := f.accounts.FindByID(ctx, res.AccountID)
	if !acc.HasRole(domain.RoleAdmin) {
		t.Fatalf("expected Admin, got %v", acc.Roles)
	}
}

func TestAccountService_UpdateProfileAndList(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	ann := f.register(t, "ann@example.com", "secret1")
	f.clock.Advance(time.Minute)
	f.register(t, "bob@example.com", "secret1")

	acc, err := f.svc.UpdateProfile(ctx, ann.AccountID, ports.ProfileInput{DisplayName: "Ann Lee"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if acc.DisplayName != "Ann Lee" || acc.Email != "ann@example.com" {
		t.Fatalf("unexpected account: %+v", acc)
	}

	all, err := f.svc.ListAccounts(ctx, ports.AccountFilter{})
	if err != nil || len(all) != 2 || all[0].ID != ann.AccountID {
		t.Fatalf("list all: %v %v", all, err)
	}
	found, err := f.svc.ListAccounts(ctx, ports.AccountFilter{Search: "lee"})
	if err != nil || len(found) != 1 || found[0].ID != ann.AccountID {
		t.Fatalf("search: %v %v", found, err)
	}

	if _, err := f.svc.UpdateProfile(ctx, "missing", ports.ProfileInput{DisplayName: "x"}); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

type recordingHasher struct {
	ports.PasswordHasher
	verified []string
}

func (h *recordingHasher) Verify(hash, plaintext string) bool {
	h.verified = append(h.verified, hash)
	return h.PasswordHasher.Verify(hash, plaintext)
}

func TestAccountService_Login_UnknownEmailComparesDummyHash(t *testing.T) {
	f := newAccountFixture(t)
	hasher := &recordingHasher{PasswordHasher: security.NewBcryptHasher(bcrypt.MinCost)}
	f.svc.deps.Hasher = hasher

	_, err := f.svc.Login(context.Background(), "nobody@example.com", "secret1")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if len(hasher.verified) != 1 {
		t.Fatalf("expected one comparison, got %d", len(hasher.verified))
	}
	if _, err := bcrypt.Cost([]byte(hasher.verified[0])); err != nil {
		t.Fatalf("dummy is not a bcrypt hash: %q (%v)", hasher.verified[0], err)
	}
}
