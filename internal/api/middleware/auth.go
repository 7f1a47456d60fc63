package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/innoshop/platform/internal/api/metrics"
	"github.com/innoshop/platform/internal/core/domain"
	"github.com/innoshop/platform/internal/core/ports"
)

const principalKey = "principal"

// Auth validates the bearer token and injects the caller's Principal into context.
func Auth(validator ports.TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				metrics.TokenRejectionsTotal.WithLabelValues("missing").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				metrics.TokenRejectionsTotal.WithLabelValues("malformed").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			principal, err := validator.Validate(strings.TrimSpace(parts[1]))
			if err != nil {
				reason, msg := rejection(err)
				metrics.TokenRejectionsTotal.WithLabelValues(reason).Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, msg)
			}

			c.Set(principalKey, principal)
			return next(c)
		}
	}
}

func rejection(err error) (reason, msg string) {
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired", "token expired"
	case errors.Is(err, domain.ErrTokenInvalidSignature):
		return "invalid_signature", "invalid token"
	default:
		return "malformed", "invalid token"
	}
}

// PrincipalFrom returns the caller injected by Auth.
func PrincipalFrom(c echo.Context) (domain.Principal, bool) {
	p, ok := c.Get(principalKey).(domain.Principal)
	return p, ok
}

// WithPrincipal stores p the same way Auth does.
func WithPrincipal(c echo.Context, p domain.Principal) {
	c.Set(principalKey, p)
}
