package app

import (
	"github.com/innoshop/platform/internal/core/ports"
	"github.com/innoshop/platform/internal/infrastructure/token"
	"github.com/innoshop/platform/internal/pkg/config"
)

// NewTokenIssuer builds the HS256 issuer both services share.
func NewTokenIssuer(cfg *config.Config, clock ports.Clock) (*token.JWTIssuer, error) {
	return token.NewJWTIssuer(token.Config{
		Key:      []byte(cfg.JWT.Secret),
		TTL:      cfg.JWT.TTL,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
	}, clock)
}
