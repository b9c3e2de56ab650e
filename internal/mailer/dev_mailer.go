package mailer

import (
	"context"

	"go.uber.org/zap"
)

// DevMailer logs instead of sending, used when no API key is configured.
type DevMailer struct {
	logger *zap.Logger
}

// NewDevMailer constructs the development mailer.
func NewDevMailer(logger *zap.Logger) *DevMailer {
	return &DevMailer{logger: logger}
}

func (m *DevMailer) SendOneTimeCode(_ context.Context, email, displayName, code string) error {
	m.logger.Info("dev mailer: one-time code",
		zap.String("email", email),
		zap.String("name", displayName),
		zap.String("code", code))
	return nil
}

func (m *DevMailer) SendPasswordReset(_ context.Context, email, displayName, token string) error {
	m.logger.Info("dev mailer: password reset",
		zap.String("email", email),
		zap.String("name", displayName),
		zap.String("token", token))
	return nil
}

func (m *DevMailer) SendReviewNotice(_ context.Context, email, displayName, clientName, sectionID string) error {
	m.logger.Info("dev mailer: review notice",
		zap.String("email", email),
		zap.String("client", clientName),
		zap.String("section", sectionID))
	return nil
}
