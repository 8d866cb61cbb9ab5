// Package storage abstracts the media file store behind one capability
// interface with SFTP and local-disk backends. Paths are relative to the
// backend's base directory; account media lives in a directory named after
// the account identificator.
package storage

import (
	"context"

	"github.com/pkg/errors"
)

// ErrAcquireTimeout is returned when no pooled connection becomes available
// within the configured window.
var ErrAcquireTimeout = errors.New("storage: connection pool acquire timeout")

// Store is the media store capability surface consumed by the import
// pipeline and the media routes.
type Store interface {
	// CreateDirectory makes the directory (and parents) if missing.
	CreateDirectory(ctx context.Context, dir string) error
	// Exists reports whether the path exists.
	Exists(ctx context.Context, path string) (bool, error)
	// ListFiles returns the file names directly inside dir, excluding
	// subdirectories. A missing dir yields an empty list.
	ListFiles(ctx context.Context, dir string) ([]string, error)
	// UploadFile writes data to path, creating parent directories.
	UploadFile(ctx context.Context, path string, data []byte) error
	// DeleteFile removes the file at path.
	DeleteFile(ctx context.Context, path string) error
	// PublicURL maps a stored path to the URL clients fetch it from.
	PublicURL(path string) string
}
