package auth

import (
	"github.com/angelmondragon/orderhub-backend/internal/users"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned after successful authentication.
type LoginResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.UserDTO `json:"user"`
}

// RefreshRequest carries the refresh token paired with the bearer access token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenPair is a freshly rotated session.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RegisterRequest contains the payload required to open an account.
type RegisterRequest struct {
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Company   string `json:"company" validate:"max=100"`
	Position  string `json:"position" validate:"max=100"`
	Type      string `json:"type" validate:"omitempty,oneof=buyer shop"`
}

// ConfirmEmailRequest activates an account with the mailed token.
type ConfirmEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Token string `json:"token" validate:"required"`
}

// PasswordResetRequest starts a reset for the given address.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetConfirmRequest sets a new password with the mailed token.
type PasswordResetConfirmRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// UpdateAccountRequest is a partial account update. A password change needs the current password.
type UpdateAccountRequest struct {
	FirstName       *string `json:"first_name,omitempty" validate:"omitempty,min=1,max=50"`
	LastName        *string `json:"last_name,omitempty" validate:"omitempty,min=1,max=50"`
	Email           *string `json:"email,omitempty" validate:"omitempty,email"`
	Company         *string `json:"company,omitempty" validate:"omitempty,max=100"`
	Position        *string `json:"position,omitempty" validate:"omitempty,max=100"`
	Password        *string `json:"password,omitempty" validate:"omitempty,min=8"`
	CurrentPassword *string `json:"current_password,omitempty"`
}
