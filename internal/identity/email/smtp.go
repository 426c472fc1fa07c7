package email

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// Config holds the SMTP relay settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender delivers transactional mail over SMTP.
type SMTPSender struct {
	client *mail.Client
	from   string
}

func NewSMTPSender(cfg Config) (*SMTPSender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	return &SMTPSender{client: client, from: cfg.From}, nil
}

// SendPasswordReset mails a reset link to the given address.
func (s *SMTPSender) SendPasswordReset(ctx context.Context, to, resetLink string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject("Reset your SkyFleet password")
	msg.SetBodyString(mail.TypeTextHTML, passwordResetBody(resetLink))

	return s.client.DialAndSendWithContext(ctx, msg)
}

func passwordResetBody(resetLink string) string {
	return fmt.Sprintf(`<p>Someone requested a password reset for your SkyFleet account.</p>
<p><a href=%q>Reset your password</a></p>
<p>The link expires in one hour. If you did not request this, you can ignore this email.</p>`, resetLink)
}
