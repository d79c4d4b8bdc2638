/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"

	"github.com/gamehub/apiserver/config"
	"github.com/gamehub/apiserver/internal/logger"
	"github.com/gamehub/apiserver/internal/mail"
	"github.com/gamehub/apiserver/internal/mq"
	"github.com/gamehub/apiserver/internal/services"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Delivers queued password reset mails",
	Long: `Consumes the mail queue filled by the server when MQ_BACKEND is set and
sends each message over SMTP. Usage:

	MQ_BACKEND=rabbitmq gamehub worker
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		log, err := logger.New(cfg.LogLevel)
		if err != nil {
			return err
		}
		defer log.Sync()

		queue, err := mq.NewFromConfig(cmd.Context(), cfg.MQ)
		if err != nil {
			return err
		}
		if queue == nil {
			return errors.New("MQ_BACKEND is required for the worker")
		}
		defer queue.Close()

		var sender services.Mailer
		if cfg.SMTP.Enabled() {
			smtp, err := mail.NewSMTPSender(cfg.SMTP)
			if err != nil {
				return err
			}
			sender = smtp
		} else {
			log.Warn("SMTP_HOST not set; mails are logged instead of sent")
			sender = mail.NewLogMailer(log)
		}

		log.Info("mail worker started", zap.String("channel", mail.PasswordResetChannel))
		return mail.NewConsumer(queue, sender, log).Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
