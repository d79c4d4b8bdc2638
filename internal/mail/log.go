package mail

import (
	"context"

	"github.com/gamehub/apiserver/internal/services"
	"go.uber.org/zap"
)

// LogMailer writes mails to the log instead of sending them. It is used
// in development when no SMTP relay or queue is configured.
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (l *LogMailer) SendPasswordReset(_ context.Context, m services.PasswordResetMail) error {
	l.log.Info("password reset mail (not sent)",
		zap.String("to", m.To),
		zap.String("reset_url", m.ResetURL),
	)
	return nil
}
