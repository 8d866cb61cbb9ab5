package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/asterhq/aster/pkg/metrics"
	"github.com/asterhq/aster/pkg/tracing"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// SFTPConfig configures the SFTP media store.
type SFTPConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	BasePath       string
	PublicBaseURL  string
	PoolSize       int
	AcquireTimeout time.Duration
	DialTimeout    time.Duration
}

type sftpConn struct {
	ssh  *ssh.Client
	sftp *sftp.Client
}

func (c *sftpConn) close() error {
	c.sftp.Close()
	return c.ssh.Close()
}

// SFTPStore stores media on a remote SFTP host through a bounded connection
// pool, so a hung remote blocks requests for the acquire timeout at worst
// instead of piling up connections.
type SFTPStore struct {
	config SFTPConfig
	pool   *Pool[*sftpConn]
	logger ectologger.Logger
}

func NewSFTPStore(config SFTPConfig, logger ectologger.Logger) *SFTPStore {
	if config.PoolSize < 1 {
		config.PoolSize = 3
	}
	if config.AcquireTimeout <= 0 {
		config.AcquireTimeout = 5 * time.Second
	}
	if config.DialTimeout <= 0 {
		config.DialTimeout = 10 * time.Second
	}

	store := &SFTPStore{config: config, logger: logger}
	store.pool = NewPool(config.PoolSize, config.AcquireTimeout, store.dial, func(c *sftpConn) error {
		return c.close()
	})

	return store
}

func (s *SFTPStore) dial(ctx context.Context) (*sftpConn, error) {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	sshClient, err := ssh.Dial("tcp", addr, &ssh.ClientConfig{
		User:            s.config.User,
		Auth:            []ssh.AuthMethod{ssh.Password(s.config.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         s.config.DialTimeout,
	})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("failed to dial sftp host")
		return nil, fmt.Errorf("failed to dial sftp host: %w", err)
	}

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		s.logger.WithContext(ctx).WithError(err).Error("failed to open sftp session")
		return nil, fmt.Errorf("failed to open sftp session: %w", err)
	}

	return &sftpConn{ssh: sshClient, sftp: sftpClient}, nil
}

// withConn runs one operation on a pooled connection. A failed connection
// is discarded rather than returned, since SFTP sessions do not recover.
func (s *SFTPStore) withConn(ctx context.Context, op string, fn func(client *sftp.Client) error) error {
	ctx, span := tracing.StartSpan(ctx, "SFTPStore."+op)
	defer span.End()

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		metrics.StorageOperationsTotal.WithLabelValues("sftp", op, "error").Inc()
		return err
	}

	if err := fn(conn.sftp); err != nil {
		s.pool.Discard(conn)
		metrics.StorageOperationsTotal.WithLabelValues("sftp", op, "error").Inc()
		return err
	}

	s.pool.Release(conn)
	metrics.StorageOperationsTotal.WithLabelValues("sftp", op, "ok").Inc()
	return nil
}

func (s *SFTPStore) abs(parts ...string) string {
	return path.Join(append([]string{s.config.BasePath}, parts...)...)
}

func (s *SFTPStore) CreateDirectory(ctx context.Context, dir string) error {
	return s.withConn(ctx, "CreateDirectory", func(client *sftp.Client) error {
		if err := client.MkdirAll(s.abs(dir)); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
		return nil
	})
}

func (s *SFTPStore) Exists(ctx context.Context, p string) (bool, error) {
	var exists bool
	err := s.withConn(ctx, "Exists", func(client *sftp.Client) error {
		_, statErr := client.Stat(s.abs(p))
		if statErr != nil {
			if os.IsNotExist(statErr) {
				return nil
			}
			return fmt.Errorf("failed to stat %q: %w", p, statErr)
		}
		exists = true
		return nil
	})
	return exists, err
}

func (s *SFTPStore) ListFiles(ctx context.Context, dir string) ([]string, error) {
	var names []string
	err := s.withConn(ctx, "ListFiles", func(client *sftp.Client) error {
		entries, readErr := client.ReadDir(s.abs(dir))
		if readErr != nil {
			if os.IsNotExist(readErr) {
				return nil
			}
			return fmt.Errorf("failed to list %q: %w", dir, readErr)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			names = append(names, entry.Name())
		}
		return nil
	})
	return names, err
}

func (s *SFTPStore) UploadFile(ctx context.Context, p string, data []byte) error {
	return s.withConn(ctx, "UploadFile", func(client *sftp.Client) error {
		if err := client.MkdirAll(path.Dir(s.abs(p))); err != nil {
			return fmt.Errorf("failed to create parent of %q: %w", p, err)
		}

		file, err := client.Create(s.abs(p))
		if err != nil {
			return fmt.Errorf("failed to create %q: %w", p, err)
		}
		defer file.Close()

		if _, err := file.Write(data); err != nil {
			return fmt.Errorf("failed to write %q: %w", p, err)
		}
		return nil
	})
}

func (s *SFTPStore) DeleteFile(ctx context.Context, p string) error {
	return s.withConn(ctx, "DeleteFile", func(client *sftp.Client) error {
		if err := client.Remove(s.abs(p)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete %q: %w", p, err)
		}
		return nil
	})
}

func (s *SFTPStore) PublicURL(p string) string {
	return strings.TrimRight(s.config.PublicBaseURL, "/") + "/" + strings.TrimLeft(p, "/")
}

// Close shuts the connection pool down.
func (s *SFTPStore) Close() {
	s.pool.Close()
}
