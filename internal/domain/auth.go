package domain

import "time"

// TokenStage differentiates half-authenticated tokens issued after the
// password check from full session tokens issued after OTP verification.
type TokenStage string

const (
	// TokenStagePending grants access only to OTP verify/resend.
	TokenStagePending TokenStage = "PENDING_OTP"
	// TokenStageSession grants full access, subject to the resumption guard.
	TokenStageSession TokenStage = "SESSION"
)

// PendingAuth is the ephemeral record held between a successful password
// check and OTP confirmation. It lives only in process memory and is
// discarded on verification, abort, or expiry.
type PendingAuth struct {
	ID        string
	UserID    string
	Email     string
	Name      string
	User      *User
	ExpiresAt time.Time
}

// Session is the server-side record backing an issued session token.
// Deleting the record forcibly signs the session out.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// OneTimeCode is the stored second-factor record, keyed by user id. Only the
// hash of the code is stored; the record is consumed on successful
// verification and expires on its own otherwise.
type OneTimeCode struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CodeHash  string    `json:"code_hash"`
	ExpiresAt time.Time `json:"expires_at"`
	IssuedAt  time.Time `json:"issued_at"`
}

// Expired reports whether the code's validity window has elapsed.
func (c *OneTimeCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
