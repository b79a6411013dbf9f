package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/resend/resend-go/v2"
)

// MagicLinkEmail is the delivery contract: who receives the link and the
// already-constructed verification URL. The sender owns subject and copy.
type MagicLinkEmail struct {
	RecipientName   string
	RecipientEmail  string
	VerificationURL string
}

type Sender interface {
	SendMagicLink(ctx context.Context, msg MagicLinkEmail) error
}

// LogSender logs emails instead of sending them — used in ENV=local.
type LogSender struct {
	logger *slog.Logger
}

func (s *LogSender) SendMagicLink(ctx context.Context, msg MagicLinkEmail) error {
	s.logger.InfoContext(ctx, "magic link email (local dev)",
		"to", msg.RecipientEmail, "name", msg.RecipientName, "url", msg.VerificationURL)
	return nil
}

// ResendSender sends emails via the Resend API — used in staging/production.
type ResendSender struct {
	client  *resend.Client
	from    string
	linkTTL time.Duration
}

func (s *ResendSender) SendMagicLink(ctx context.Context, msg MagicLinkEmail) error {
	name := msg.RecipientName
	if name == "" {
		name = "there"
	}
	body := fmt.Sprintf(
		`<p>Hi %s,</p>
<p>Click the link below to sign in. It expires in %d minutes and can only be used once.</p>
<p><a href="%s">%s</a></p>
<p>If you did not request this, you can safely ignore this email.</p>`,
		name, int(s.linkTTL.Minutes()), msg.VerificationURL, msg.VerificationURL,
	)

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.RecipientEmail},
		Subject: "Your sign-in link",
		Html:    body,
	}
	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// NewSender returns a LogSender for ENV=local, ResendSender otherwise.
func NewSender(env, apiKey, from string, linkTTL time.Duration, logger *slog.Logger) Sender {
	if env == "local" {
		return &LogSender{logger: logger}
	}
	return &ResendSender{
		client:  resend.NewClient(apiKey),
		from:    from,
		linkTTL: linkTTL,
	}
}
