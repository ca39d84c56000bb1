package email

import (
	"context"
	"log/slog"

	"github.com/helpdex/helpdesk-backend/internal/core/ports"
)

// LogMailer logs messages instead of sending them. Used when no SMTP server
// is configured, typically in development.
type LogMailer struct {
	logger *slog.Logger
}

var _ ports.Mailer = (*LogMailer)(nil)

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (l *LogMailer) Send(_ context.Context, msg ports.MailMessage) error {
	l.logger.Info("email delivery skipped, no SMTP configured",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.Int("attachments", len(msg.Attachments)),
	)
	return nil
}
