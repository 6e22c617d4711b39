package filestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/gofiber/fiber/v2/log"
)

// Store persists uploaded files and returns the URL they are served from.
type Store interface {
	Save(ctx context.Context, name, contentType string, r io.Reader, size int64) (string, error)
}

// New picks the S3 backend when enabled and the local directory otherwise.
func New(cfg *Config) (Store, error) {
	if cfg.S3Enabled {
		return NewS3Store(cfg)
	}
	return NewLocalStore(cfg.LocalDir, cfg.PublicPath)
}

// LocalStore writes files to a directory served statically under PublicPath.
type LocalStore struct {
	Dir        string
	PublicPath string
}

func NewLocalStore(dir, publicPath string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &LocalStore{Dir: dir, PublicPath: publicPath}, nil
}

func (s *LocalStore) Save(_ context.Context, name, _ string, r io.Reader, _ int64) (string, error) {
	if name != filepath.Base(name) {
		return "", fmt.Errorf("invalid object name %q", name)
	}
	dst := filepath.Join(s.Dir, name)

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dst)
		return "", fmt.Errorf("failed to write %s: %w", dst, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", dst, err)
	}

	log.Infof("[FileStore] Stored %s", dst)
	return path.Join(s.PublicPath, name), nil
}
