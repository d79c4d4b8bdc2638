package mail

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gamehub/apiserver/config"
	"github.com/gamehub/apiserver/internal/mq"
	"github.com/gamehub/apiserver/internal/services"
)

type recordingSender struct {
	mu       sync.Mutex
	failures int
	sent     []services.PasswordResetMail
	done     chan struct{}
}

func (r *recordingSender) SendPasswordReset(_ context.Context, m services.PasswordResetMail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures > 0 {
		r.failures--
		return errors.New("relay unavailable")
	}
	r.sent = append(r.sent, m)
	close(r.done)
	return nil
}

func TestRenderPasswordReset(t *testing.T) {
	content, err := renderPasswordReset(services.PasswordResetMail{
		To:       "a@x.com",
		Name:     "<A>",
		ResetURL: "http://localhost:5173/reset-password/abc",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if content.Subject != passwordResetSubject {
		t.Fatalf("unexpected subject %q", content.Subject)
	}
	if !strings.Contains(content.HTML, `href="http://localhost:5173/reset-password/abc"`) {
		t.Fatalf("expected link in html body: %s", content.HTML)
	}
	if strings.Contains(content.HTML, "<A>") {
		t.Fatalf("expected name to be escaped in html body")
	}
	if !strings.Contains(content.Text, "http://localhost:5173/reset-password/abc") {
		t.Fatalf("expected link in text body")
	}
}

func TestQueueMailerRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	queue := mq.New(mq.NewMemoryBackend())
	sender := &recordingSender{failures: 1, done: make(chan struct{})}
	consumer := NewConsumer(queue, sender, nil)

	go func() { _ = consumer.Run(ctx) }()

	want := services.PasswordResetMail{To: "a@x.com", Name: "A", ResetURL: "http://x/reset-password/t"}
	if err := NewQueueMailer(queue).SendPasswordReset(ctx, want); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case <-sender.done:
	case <-ctx.Done():
		t.Fatalf("mail was not delivered")
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.sent) != 1 || sender.sent[0] != want {
		t.Fatalf("unexpected deliveries %+v", sender.sent)
	}
}

func TestNewSMTPSenderRequiresHost(t *testing.T) {
	if _, err := NewSMTPSender(config.SMTPConfig{From: "a@x.com"}); err == nil {
		t.Fatalf("expected error without host")
	}
	if _, err := NewSMTPSender(config.SMTPConfig{Host: "smtp.x.com", Port: 587, From: "a@x.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
