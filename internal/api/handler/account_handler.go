package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/innoshop/platform/internal/api/metrics"
	"github.com/innoshop/platform/internal/core/domain"
	"github.com/innoshop/platform/internal/core/ports"
)

const forgotPasswordMessage = "If the email exists, a password reset link has been sent."

type AccountHandler struct {
	accounts     ports.AccountService
	exposeTokens bool
}

// NewAccountHandler builds the account routes. When exposeTokens is set the
// confirmation token is echoed in the registration response, which lets a
// development client confirm without a mailbox.
func NewAccountHandler(accounts ports.AccountService, exposeTokens bool) *AccountHandler {
	return &AccountHandler{accounts: accounts, exposeTokens: exposeTokens}
}

// Register creates a new account and sends the confirmation email.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AccountHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.accounts.Register(c.Request().Context(), ports.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.FullName,
	})
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues(registerResult(err)).Inc()
		return err
	}
	metrics.RegistrationsTotal.WithLabelValues("success").Inc()

	resp := registerResponse{
		Message: "Registration successful. Please check your email to confirm your account.",
		UserID:  res.AccountID,
	}
	if h.exposeTokens {
		resp.Token = res.ConfirmationToken
	}
	return c.JSON(http.StatusCreated, resp)
}

func registerResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrDuplicateEmail):
		return "duplicate_email"
	case errors.Is(err, domain.ErrWeakPassword):
		return "weak_password"
	default:
		return "error"
	}
}

// ConfirmEmail consumes a confirmation token.
//
// @Summary      Confirm an email address
// @Tags         auth
// @Produce      json
// @Param        userId  query     string  true  "Account id"
// @Param        token   query     string  true  "Confirmation token"
// @Success      200     {object}  messageResponse
// @Failure      400     {object}  map[string]string
// @Failure      404     {object}  map[string]string
// @Router       /auth/confirm-email [get]
func (h *AccountHandler) ConfirmEmail(c echo.Context) error {
	userID := c.QueryParam("userId")
	token := c.QueryParam("token")
	if userID == "" || token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "userId and token are required")
	}

	if err := h.accounts.ConfirmEmail(c.Request().Context(), userID, token); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Email confirmed successfully."})
}

// Login authenticates an account and returns a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AccountHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	tok, err := h.accounts.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues(loginResult(err)).Inc()
		return err
	}
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()

	return c.JSON(http.StatusOK, loginResponse{Token: tok.Token, ExpiresAt: tok.ExpiresAt})
}

func loginResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrEmailNotConfirmed):
		return "email_not_confirmed"
	case errors.Is(err, domain.ErrAccountInactive):
		return "inactive"
	default:
		return "error"
	}
}

// ForgotPassword sends a reset link when the email is registered. The
// response is the same either way.
//
// @Summary      Request a password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Account email"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Router       /auth/forgot-password [post]
func (h *AccountHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.accounts.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: forgotPasswordMessage})
}

// ResetPassword sets a new password using a reset token.
//
// @Summary      Reset a password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resetPasswordRequest  true  "Reset details"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Router       /auth/reset-password [post]
func (h *AccountHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err := h.accounts.ResetPassword(c.Request().Context(), ports.ResetPasswordInput{
		Email:       req.Email,
		Token:       req.Token,
		NewPassword: req.NewPassword,
	})
	if errors.Is(err, domain.ErrAccountNotFound) {
		// Must not reveal whether the email is registered.
		return domain.ErrInvalidToken
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Password reset successfully."})
}

// Me returns the caller's account.
//
// @Summary      Current account
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Account
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /users/me [get]
func (h *AccountHandler) Me(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}

	acc, err := h.accounts.Profile(c.Request().Context(), p.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, acc)
}

// SetStatus activates or deactivates an account.
//
// @Summary      Activate or deactivate an account
// @Tags         users
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  string            true  "Account id"
// @Param        body  body  setStatusRequest  true  "New status"
// @Success      204
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /users/{id}/status [patch]
func (h *AccountHandler) SetStatus(c echo.Context) error {
	var req setStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.accounts.SetActive(c.Request().Context(), c.Param("id"), *req.IsActive); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateMe replaces the caller's display name.
//
// @Summary      Update current account
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Profile fields"
// @Success      200   {object}  domain.Account
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /users/me [patch]
func (h *AccountHandler) UpdateMe(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	acc, err := h.accounts.UpdateProfile(c.Request().Context(), p.ID, ports.ProfileInput{DisplayName: req.FullName})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, acc)
}

// List returns every account, optionally narrowed by ?search= over name and email.
//
// @Summary      List accounts
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Name or email fragment"
// @Success      200     {array}   domain.Account
// @Failure      401     {object}  map[string]string
// @Failure      403     {object}  map[string]string
// @Router       /users [get]
func (h *AccountHandler) List(c echo.Context) error {
	accounts, err := h.accounts.ListAccounts(c.Request().Context(), ports.AccountFilter{Search: c.QueryParam("search")})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accounts)
}

// AssignRole grants a role to an account.
//
// @Summary      Assign a role
// @Tags         users
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  string             true  "Account id"
// @Param        body  body  assignRoleRequest  true  "Role name"
// @Success      204
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /users/{id}/roles [put]
func (h *AccountHandler) AssignRole(c echo.Context) error {
	var req assignRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err := h.accounts.AssignRole(c.Request().Context(), c.Param("id"), req.Role)
	if errors.Is(err, domain.ErrRoleNotFound) {
		return echo.NewHTTPError(http.StatusBadRequest, domain.ErrRoleNotFound.Error())
	}
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
