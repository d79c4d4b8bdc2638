package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gamehub/apiserver/config"
	"github.com/gamehub/apiserver/internal/services"
	gomail "github.com/wneessen/go-mail"
)

// SMTPSender delivers mail through an SMTP relay.
type SMTPSender struct {
	cfg config.SMTPConfig
}

func NewSMTPSender(cfg config.SMTPConfig) (*SMTPSender, error) {
	if !cfg.Enabled() {
		return nil, errors.New("smtp host is required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, errors.New("smtp sender address is required")
	}
	return &SMTPSender{cfg: cfg}, nil
}

func (s *SMTPSender) SendPasswordReset(ctx context.Context, m services.PasswordResetMail) error {
	content, err := renderPasswordReset(m)
	if err != nil {
		return fmt.Errorf("render reset mail: %w", err)
	}

	msg := gomail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(m.To); err != nil {
		return fmt.Errorf("set to: %w", err)
	}
	msg.Subject(content.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, content.Text)
	msg.AddAlternativeString(gomail.TypeTextHTML, content.HTML)

	client, err := s.client()
	if err != nil {
		return err
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	return nil
}

func (s *SMTPSender) client() (*gomail.Client, error) {
	opts := []gomail.Option{
		gomail.WithPort(s.cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}

	client, err := gomail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return client, nil
}
