// Package storage persists generated files such as invoice PDFs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/angelmondragon/saastools-backend/pkg/config"
)

const (
	DriverLocal = "local"
	DriverS3    = "s3"
)

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("storage object not found")

// Store is the object storage surface used by invoices.
type Store interface {
	Save(ctx context.Context, key string, body io.Reader, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	URL(key string) string
}

// New picks a backend from config.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverLocal:
		return NewLocal(cfg.LocalDir, cfg.PublicURL)
	case DriverS3:
		return NewS3(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

// cleanKey rejects traversal and normalizes separators.
func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("storage key is required")
	}
	cleaned := path.Clean("/" + strings.ReplaceAll(key, "\\", "/"))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return cleaned, nil
}

func joinURL(base, key string) string {
	base = strings.TrimRight(base, "/")
	if base == "" {
		return "/" + key
	}
	return base + "/" + key
}
