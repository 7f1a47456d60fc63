package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/innoshop/platform/internal/api/middleware"
	"github.com/innoshop/platform/internal/core/domain"
)

// caller extracts the principal injected by the Auth middleware. Its absence
// means the route was wired without Auth, so the request is rejected with 401
// rather than served anonymously.
func caller(c echo.Context) (domain.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok || p.ID == "" {
		return domain.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return p, nil
}

// bindAndValidate decodes the request body into req and runs its validate tags.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
