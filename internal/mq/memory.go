package mq

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryBackend delivers messages in process. Each channel is a buffered
// queue shared by its subscribers; failed messages are redelivered after
// redeliveryDelay.
type MemoryBackend struct {
	mu              sync.Mutex
	queues          map[string]chan Message
	closed          bool
	redeliveryDelay time.Duration
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		queues:          make(map[string]chan Message),
		redeliveryDelay: defaultRedeliveryDelay,
	}
}

const (
	memoryQueueSize        = 64
	defaultRedeliveryDelay = time.Second
)

func (b *MemoryBackend) queue(channel string) (chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, errors.New("memory backend closed")
	}
	q, ok := b.queues[channel]
	if !ok {
		q = make(chan Message, memoryQueueSize)
		b.queues[channel] = q
	}
	return q, nil
}

func (b *MemoryBackend) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	q, err := b.queue(channel)
	if err != nil {
		return "", err
	}

	msg := Message{ID: uuid.NewString(), Data: append([]byte(nil), data...), Attributes: attrs}
	select {
	case q <- msg:
		return msg.ID, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (b *MemoryBackend) Subscribe(ctx context.Context, channel string, handler Handler) error {
	q, err := b.queue(channel)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-q:
			if err := handler(ctx, msg); err != nil {
				if err := b.requeue(ctx, q, msg); err != nil {
					return err
				}
			}
		}
	}
}

func (b *MemoryBackend) requeue(ctx context.Context, q chan Message, msg Message) error {
	timer := time.NewTimer(b.redeliveryDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case q <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *MemoryBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
