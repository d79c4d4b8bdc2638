package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/gamehub/apiserver/config"
	"google.golang.org/api/option"
)

const (
	maxOutstandingMessages  = 10
	subscriptionAckDeadline = 30 * time.Second

	// Pub/Sub accepts dead-letter attempts in [5, 100].
	minDeadLetterAttempts = 5
	maxDeadLetterAttempts = 100

	retryMinBackoff = 10 * time.Second
	retryMaxBackoff = 5 * time.Minute
)

// PubSubClient consumes each channel through one subscription. When a
// dead-letter suffix is configured, messages that keep failing are moved
// to "<channel><suffix>" instead of being redelivered forever.
type PubSubClient struct {
	client *pubsub.Client
	cfg    config.PubSubConfig
}

func NewPubSubClient(ctx context.Context, cfg config.PubSubConfig) (*PubSubClient, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, errors.New("pubsub project id is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, err
	}
	if cfg.SubscriptionSuffix == "" {
		cfg.SubscriptionSuffix = "-sub"
	}
	return &PubSubClient{client: client, cfg: cfg}, nil
}

func (p *PubSubClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("pubsub channel is required")
	}

	topic, err := p.ensureTopic(ctx, channel)
	if err != nil {
		return "", err
	}
	return topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs}).Get(ctx)
}

// Subscribe receives from the channel subscription until ctx ends. A
// handler error nacks the message so Pub/Sub retries it with backoff.
func (p *PubSubClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("pubsub channel is required")
	}

	topic, err := p.ensureTopic(ctx, channel)
	if err != nil {
		return err
	}

	var deadLetter *pubsub.DeadLetterPolicy
	if name := deadLetterTopicName(channel, p.cfg); name != "" {
		if _, err := p.ensureTopic(ctx, name); err != nil {
			return fmt.Errorf("dead letter topic: %w", err)
		}
		deadLetter = deadLetterPolicy(p.cfg.ProjectID, name, p.cfg.MaxDeliveryAttempts)
	}

	sub, err := p.ensureSubscription(ctx, subscriptionName(channel, p.cfg), topic, deadLetter)
	if err != nil {
		return err
	}
	sub.ReceiveSettings.MaxOutstandingMessages = maxOutstandingMessages

	return sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		err := handler(ctx, Message{ID: msg.ID, Data: msg.Data, Attributes: msg.Attributes})
		if err != nil {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (p *PubSubClient) Close() error {
	return p.client.Close()
}

func (p *PubSubClient) ensureTopic(ctx context.Context, name string) (*pubsub.Topic, error) {
	topic := p.client.Topic(name)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		return topic, nil
	}
	return p.client.CreateTopic(ctx, name)
}

// ensureSubscription creates the subscription, or brings the dead-letter
// policy of an existing one in line with the config.
func (p *PubSubClient) ensureSubscription(ctx context.Context, name string, topic *pubsub.Topic, deadLetter *pubsub.DeadLetterPolicy) (*pubsub.Subscription, error) {
	sub := p.client.Subscription(name)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return nil, err
	}

	if !exists {
		return p.client.CreateSubscription(ctx, name, pubsub.SubscriptionConfig{
			Topic:            topic,
			AckDeadline:      subscriptionAckDeadline,
			RetryPolicy:      &pubsub.RetryPolicy{MinimumBackoff: retryMinBackoff, MaximumBackoff: retryMaxBackoff},
			DeadLetterPolicy: deadLetter,
		})
	}

	if deadLetter != nil {
		if _, err := sub.Update(ctx, pubsub.SubscriptionConfigToUpdate{DeadLetterPolicy: deadLetter}); err != nil {
			return nil, fmt.Errorf("update dead letter policy: %w", err)
		}
	}
	return sub, nil
}

func subscriptionName(channel string, cfg config.PubSubConfig) string {
	return channel + cfg.SubscriptionSuffix
}

// deadLetterTopicName is empty when dead-lettering is disabled.
func deadLetterTopicName(channel string, cfg config.PubSubConfig) string {
	if cfg.DeadLetterSuffix == "" || cfg.MaxDeliveryAttempts <= 0 {
		return ""
	}
	return channel + cfg.DeadLetterSuffix
}

func deadLetterPolicy(projectID, topic string, attempts int) *pubsub.DeadLetterPolicy {
	attempts = max(minDeadLetterAttempts, min(attempts, maxDeadLetterAttempts))
	return &pubsub.DeadLetterPolicy{
		DeadLetterTopic:     fmt.Sprintf("projects/%s/topics/%s", projectID, topic),
		MaxDeliveryAttempts: attempts,
	}
}
