package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestImageKey(t *testing.T) {
	key, err := ImageKey("snake.jpg")
	if err != nil || key != "images/snake.jpg" {
		t.Fatalf("unexpected key %q %v", key, err)
	}
	for _, name := range []string{"", "../etc/passwd", "a/b.png", ".."} {
		if _, err := ImageKey(name); err == nil {
			t.Fatalf("expected %q to be rejected", name)
		}
	}
}

func TestStorageImageLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewStorage(NewMemoryStorage("assets"))

	if err := s.PutImage(ctx, "snake.jpg", strings.NewReader("jpeg"), 4, "image/jpeg"); err != nil {
		t.Fatalf("put: %v", err)
	}

	obj, err := s.OpenImage(ctx, "snake.jpg")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer obj.Body.Close()
	data, _ := io.ReadAll(obj.Body)
	if string(data) != "jpeg" || obj.ContentType != "image/jpeg" || obj.Size != 4 {
		t.Fatalf("unexpected object %q %+v", data, obj)
	}

	if err := s.DeleteImage(ctx, "snake.jpg"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.OpenImage(ctx, "snake.jpg"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if _, err := s.OpenImage(ctx, "../secret"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected invalid name to read as not found, got %v", err)
	}
}
