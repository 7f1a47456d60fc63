package handler

import "time"

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
	FullName string `json:"fullName" validate:"required,max=100"`
}

type registerResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
	// Token is the confirmation token, returned only outside production.
	Token string `json:"token,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,max=72"`
}

type setStatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type updateProfileRequest struct {
	FullName string `json:"fullName" validate:"required,max=100"`
}

type assignRoleRequest struct {
	Role string `json:"role" validate:"required"`
}
