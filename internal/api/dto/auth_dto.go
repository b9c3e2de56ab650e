package dto

import "time"

// LoginRequest payload for step one of the login flow.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// OTPVerifyRequest payload for step three.
type OTPVerifyRequest struct {
	Code string `json:"code"`
}

// PendingAuthResponse is returned after a successful password check. The
// token is accepted only by the OTP verify/resend endpoints.
type PendingAuthResponse struct {
	PendingToken string    `json:"pending_token"`
	Email        string    `json:"email"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthResponse standard response for a completed login.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Approved bool   `json:"approved"`
	Blocked  bool   `json:"blocked"`
}

// PasswordResetRequest payload for requesting a reset token.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirm payload for completing a reset.
type PasswordResetConfirm struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ChangeRoleRequest payload for admin role changes.
type ChangeRoleRequest struct {
	Role string `json:"role"`
}
