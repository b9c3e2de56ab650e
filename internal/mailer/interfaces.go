package mailer

import "context"

// Mailer dispatches transactional email. Send failures on the OTP path must
// propagate to the caller; review notices are best effort.
type Mailer interface {
	SendOneTimeCode(ctx context.Context, email, displayName, code string) error
	SendPasswordReset(ctx context.Context, email, displayName, token string) error
	SendReviewNotice(ctx context.Context, email, displayName, clientName, sectionID string) error
}
