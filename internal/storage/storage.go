package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gamehub/apiserver/config"
)

// ErrObjectNotFound is returned when a key does not exist in the bucket.
var ErrObjectNotFound = errors.New("object not found")

// Object is an opened object and its metadata. Callers must close Body.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (Object, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

const imagePrefix = "images/"

// Storage wraps an ObjectStorage backend and keys catalog assets.
type Storage struct {
	backend ObjectStorage
}

// NewStorage constructs a Storage wrapper for the provided backend.
func NewStorage(backend ObjectStorage) *Storage {
	return &Storage{backend: backend}
}

// NewFromConfig connects the backend named by STORAGE_BACKEND and makes
// sure its bucket exists. It returns nil when no backend is configured.
func NewFromConfig(ctx context.Context, cfg config.StorageConfig) (*Storage, error) {
	var (
		backend ObjectStorage
		err     error
	)
	switch cfg.Backend {
	case "":
		return nil, nil
	case config.StorageMinio:
		backend, err = NewMinioClient(cfg.Minio)
	case config.StorageGCS:
		backend, err = NewGCSClient(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Backend, err)
	}

	if err := backend.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", backend.Bucket(), err)
	}
	return NewStorage(backend), nil
}

// ImageKey returns the object key for a catalog image file name.
func ImageKey(name string) (string, error) {
	name = strings.TrimSpace(name)
	base := path.Base(name)
	if name == "" || base != name || base == "." || base == ".." {
		return "", fmt.Errorf("invalid image name %q", name)
	}
	return imagePrefix + base, nil
}

// PutImage uploads a catalog image under its file name.
func (s *Storage) PutImage(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	key, err := ImageKey(name)
	if err != nil {
		return err
	}
	return s.backend.Put(ctx, key, r, size, contentType)
}

// OpenImage opens a catalog image by file name.
func (s *Storage) OpenImage(ctx context.Context, name string) (Object, error) {
	key, err := ImageKey(name)
	if err != nil {
		return Object{}, ErrObjectNotFound
	}
	return s.backend.Get(ctx, key)
}

// DeleteImage removes a catalog image by file name.
func (s *Storage) DeleteImage(ctx context.Context, name string) error {
	key, err := ImageKey(name)
	if err != nil {
		return err
	}
	return s.backend.Delete(ctx, key)
}

// Bucket returns the configured bucket name.
func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}
