package email

import (
	"context"
	"log/slog"
)

// LogSender writes mail to the log instead of a relay. Used in development
// when no SMTP host is configured.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) SendPasswordReset(_ context.Context, to, resetLink string) error {
	s.Logger.Info("password reset email (smtp not configured)", "to", to, "link", resetLink)
	return nil
}
