// Package token issues and validates the HMAC-SHA256 bearer tokens that
// every service sharing the signing key accepts. Tokens are self-contained:
// validation needs only the key and a clock.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/innoshop/platform/internal/core/domain"
	"github.com/innoshop/platform/internal/core/ports"
)

// DefaultTTL is the token lifetime used when none is configured.
const DefaultTTL = 60 * time.Minute

// signingMethod is fixed for every service in the deployment; a sibling
// using another HMAC strength could not validate these tokens.
var signingMethod = jwt.SigningMethodHS256

// Config holds the issuer settings. Key is read-only after construction.
type Config struct {
	Key      []byte
	TTL      time.Duration
	Issuer   string
	Audience string
}

// JWTIssuer implements ports.TokenIssuer and ports.TokenValidator. It holds
// no mutable state and is safe for concurrent use.
type JWTIssuer struct {
	key      []byte
	ttl      time.Duration
	issuer   string
	audience string
	clock    ports.Clock
}

// NewJWTIssuer fails when the signing key is empty.
func NewJWTIssuer(cfg Config, clock ports.Clock) (*JWTIssuer, error) {
	if len(cfg.Key) == 0 {
		return nil, errors.New("token: signing key is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &JWTIssuer{
		key:      append([]byte(nil), cfg.Key...),
		ttl:      cfg.TTL,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		clock:    clock,
	}, nil
}

// Issue signs a token carrying the account identity and a snapshot of its roles.
func (i *JWTIssuer) Issue(account *domain.Account) (domain.IssuedToken, error) {
	now := i.clock.Now()
	claims := accountClaims{
		Email:    account.Email,
		FullName: account.DisplayName,
		Roles:    append(roleList(nil), account.Roles...),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	if i.audience != "" {
		claims.Audience = jwt.ClaimStrings{i.audience}
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(i.key)
	if err != nil {
		return domain.IssuedToken{}, fmt.Errorf("sign token: %w", err)
	}
	return domain.IssuedToken{Token: signed, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Validate verifies signature and expiry and returns the caller identity.
func (i *JWTIssuer) Validate(raw string) (domain.Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithTimeFunc(i.clock.Now),
		jwt.WithExpirationRequired(),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}
	if i.audience != "" {
		opts = append(opts, jwt.WithAudience(i.audience))
	}

	var claims accountClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return i.key, nil
	}, opts...)
	if err != nil {
		return domain.Principal{}, classify(err)
	}

	exp := claims.ExpiresAt.Time
	if !i.clock.Now().Before(exp) {
		return domain.Principal{}, domain.ErrTokenExpired
	}
	if claims.Subject == "" {
		return domain.Principal{}, fmt.Errorf("%w: missing subject", domain.ErrTokenMalformed)
	}

	p := domain.Principal{
		ID:          claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.FullName,
		Roles:       append([]string(nil), claims.Roles...),
		ExpiresAt:   exp,
	}
	if claims.IssuedAt != nil {
		p.IssuedAt = claims.IssuedAt.Time
	}
	return p, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return domain.ErrTokenInvalidSignature
	default:
		return fmt.Errorf("%w: %v", domain.ErrTokenMalformed, err)
	}
}

var (
	_ ports.TokenIssuer    = (*JWTIssuer)(nil)
	_ ports.TokenValidator = (*JWTIssuer)(nil)
)
