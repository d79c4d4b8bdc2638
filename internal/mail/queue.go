package mail

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gamehub/apiserver/internal/mq"
	"github.com/gamehub/apiserver/internal/services"
	"go.uber.org/zap"
)

// PasswordResetChannel is the queue carrying outbound reset mails.
const PasswordResetChannel = "gamehub.mail.password-reset"

// QueueMailer hands mails to the message queue for the worker to deliver.
type QueueMailer struct {
	queue *mq.MQ
}

func NewQueueMailer(queue *mq.MQ) *QueueMailer {
	return &QueueMailer{queue: queue}
}

func (q *QueueMailer) SendPasswordReset(ctx context.Context, m services.PasswordResetMail) error {
	if _, err := q.queue.PublishJSON(ctx, PasswordResetChannel, m, nil); err != nil {
		return fmt.Errorf("enqueue reset mail: %w", err)
	}
	return nil
}

// Consumer delivers queued mails with the wrapped Mailer.
type Consumer struct {
	queue  *mq.MQ
	sender services.Mailer
	log    *zap.Logger
}

func NewConsumer(queue *mq.MQ, sender services.Mailer, log *zap.Logger) *Consumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{queue: queue, sender: sender, log: log}
}

// Run consumes until ctx is cancelled. Undecodable messages are dropped;
// delivery failures are nacked for redelivery.
func (c *Consumer) Run(ctx context.Context) error {
	return c.queue.Subscribe(ctx, PasswordResetChannel, c.handle)
}

func (c *Consumer) handle(ctx context.Context, msg mq.Message) error {
	var m services.PasswordResetMail
	if err := json.Unmarshal(msg.Data, &m); err != nil {
		c.log.Error("dropping undecodable mail message", zap.String("message_id", msg.ID), zap.Error(err))
		return nil
	}

	if err := c.sender.SendPasswordReset(ctx, m); err != nil {
		c.log.Error("password reset mail delivery failed",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		return err
	}

	c.log.Info("password reset mail delivered", zap.String("message_id", msg.ID))
	return nil
}
