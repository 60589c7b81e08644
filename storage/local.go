package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
)

// LocalStore keeps evidence files in a directory on disk.
type LocalStore struct {
	dir string
	now func() time.Time
}

// NewLocalStore creates dir if needed and returns a store writing into it.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %s: %w", dir, err)
	}
	return &LocalStore{dir: dir, now: time.Now}, nil
}

func (s *LocalStore) Store(ctx context.Context, u Upload) (string, error) {
	if u.Size > MaxFileSize {
		return "", ErrTooLarge
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := NewName(u.Filename, s.now())
	p := filepath.Join(s.dir, name)
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("failed to create evidence file: %w", err)
	}

	n, err := copyLimited(f, u.Body)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close evidence file: %w", cerr)
	}
	if err != nil {
		if rerr := os.Remove(p); rerr != nil {
			log.Warnf("Failed to remove partial evidence file %s: %v", name, rerr)
		}
		return "", err
	}

	log.WithFields(log.Fields{"name": name, "bytes": n}).Debug("Stored evidence file")
	return URLFor(name), nil
}

func (s *LocalStore) Delete(ctx context.Context, url string) error {
	name, err := NameFromURL(url)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.dir, name))
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to delete evidence file %s: %w", name, err)
}

func (s *LocalStore) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	name, err := NameFromURL(url)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open evidence file %s: %w", name, err)
	}
	return f, nil
}
