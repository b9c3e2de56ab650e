package mailer

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
)

// MailerSendMailer sends email through the MailerSend API.
type MailerSendMailer struct {
	client *mailersend.Mailersend
	from   mailersend.From
}

// NewMailerSendMailer constructs the production mailer.
func NewMailerSendMailer(apiKey, fromName, fromEmail string) *MailerSendMailer {
	return &MailerSendMailer{
		client: mailersend.NewMailersend(apiKey),
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}
}

func (m *MailerSendMailer) SendOneTimeCode(ctx context.Context, email, displayName, code string) error {
	subject := "Your sign-in verification code"
	text := fmt.Sprintf("Hello %s,\n\nYour verification code is %s. It expires shortly; do not share it.", displayName, code)
	html := fmt.Sprintf("<p>Hello %s,</p><p>Your verification code is <b>%s</b>.</p><p>It expires shortly; do not share it.</p>", displayName, code)
	return m.send(ctx, email, displayName, subject, text, html)
}

func (m *MailerSendMailer) SendPasswordReset(ctx context.Context, email, displayName, token string) error {
	subject := "Password reset request"
	text := fmt.Sprintf("Hello %s,\n\nUse this token to reset your password: %s", displayName, token)
	html := fmt.Sprintf("<p>Hello %s,</p><p>Use this token to reset your password: <b>%s</b></p>", displayName, token)
	return m.send(ctx, email, displayName, subject, text, html)
}

func (m *MailerSendMailer) SendReviewNotice(ctx context.Context, email, displayName, clientName, sectionID string) error {
	subject := fmt.Sprintf("Section ready for your review: %s", sectionID)
	text := fmt.Sprintf("Hello %s,\n\nThe %q section of the %s engagement is ready for your review.", displayName, sectionID, clientName)
	html := fmt.Sprintf("<p>Hello %s,</p><p>The <b>%s</b> section of the %s engagement is ready for your review.</p>", displayName, sectionID, clientName)
	return m.send(ctx, email, displayName, subject, text, html)
}

func (m *MailerSendMailer) send(ctx context.Context, toEmail, toName, subject, text, html string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: toName, Email: toEmail}})
	msg.SetSubject(subject)
	msg.SetText(text)
	msg.SetHTML(html)

	res, err := m.client.Email.Send(ctx, msg)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("mailersend error: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
