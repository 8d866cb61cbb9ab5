package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Gobusters/ectologger"
	"github.com/asterhq/aster/pkg/metrics"
)

// LocalStore keeps media on the local filesystem. It is the development
// backend and the fallback when no SFTP host is configured.
type LocalStore struct {
	root          string
	publicBaseURL string
	logger        ectologger.Logger
}

func NewLocalStore(root, publicBaseURL string, logger ectologger.Logger) *LocalStore {
	return &LocalStore{
		root:          root,
		publicBaseURL: publicBaseURL,
		logger:        logger,
	}
}

func (s *LocalStore) abs(parts ...string) string {
	return filepath.Join(append([]string{s.root}, parts...)...)
}

func (s *LocalStore) record(op string, err error) error {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.StorageOperationsTotal.WithLabelValues("local", op, result).Inc()
	return err
}

func (s *LocalStore) CreateDirectory(ctx context.Context, dir string) error {
	if err := os.MkdirAll(s.abs(dir), 0o755); err != nil {
		return s.record("CreateDirectory", fmt.Errorf("failed to create directory %q: %w", dir, err))
	}
	return s.record("CreateDirectory", nil)
}

func (s *LocalStore) Exists(ctx context.Context, p string) (bool, error) {
	_, err := os.Stat(s.abs(p))
	if err != nil {
		if os.IsNotExist(err) {
			return false, s.record("Exists", nil)
		}
		return false, s.record("Exists", fmt.Errorf("failed to stat %q: %w", p, err))
	}
	return true, s.record("Exists", nil)
}

func (s *LocalStore) ListFiles(ctx context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(s.abs(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, s.record("ListFiles", nil)
		}
		return nil, s.record("ListFiles", fmt.Errorf("failed to list %q: %w", dir, err))
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, s.record("ListFiles", nil)
}

func (s *LocalStore) UploadFile(ctx context.Context, p string, data []byte) error {
	full := s.abs(p)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return s.record("UploadFile", fmt.Errorf("failed to create parent of %q: %w", p, err))
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return s.record("UploadFile", fmt.Errorf("failed to write %q: %w", p, err))
	}
	return s.record("UploadFile", nil)
}

func (s *LocalStore) DeleteFile(ctx context.Context, p string) error {
	if err := os.Remove(s.abs(p)); err != nil && !os.IsNotExist(err) {
		return s.record("DeleteFile", fmt.Errorf("failed to delete %q: %w", p, err))
	}
	return s.record("DeleteFile", nil)
}

func (s *LocalStore) PublicURL(p string) string {
	return strings.TrimRight(s.publicBaseURL, "/") + "/" + strings.TrimLeft(p, "/")
}
