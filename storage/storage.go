// Package storage keeps uploaded evidence files outside the report database.
// Reports reference blobs by retrieval URL under URLPrefix.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxFileSize is the largest accepted evidence file.
	MaxFileSize int64 = 25 << 20
	// MaxFiles is the most evidence files one report may carry.
	MaxFiles = 5
	// URLPrefix is the public path namespace blobs are served from.
	URLPrefix = "/uploads/"

	namePrefix   = "evidence-"
	maxExtLength = 12
)

var (
	ErrTooLarge = errors.New("evidence file exceeds size limit")
	ErrNotOwned = errors.New("url does not reference a stored evidence blob")
	ErrNotExist = errors.New("evidence blob does not exist")
)

// Upload is one incoming evidence file.
type Upload struct {
	Filename    string
	Size        int64
	ContentType string
	Body        io.Reader
}

// BlobStore persists evidence files and hands back retrieval URLs.
type BlobStore interface {
	// Store writes the upload under a fresh unique name and returns its URL.
	Store(ctx context.Context, u Upload) (string, error)
	// Delete removes the blob behind url. A blob that is already gone is not an error.
	Delete(ctx context.Context, url string) error
	// Open streams the blob behind url.
	Open(ctx context.Context, url string) (io.ReadCloser, error)
}

// NewName returns a storage name for an upload: a millisecond timestamp plus
// a random UUID, keeping the original extension.
func NewName(original string, now time.Time) string {
	return fmt.Sprintf("%s%d-%s%s", namePrefix, now.UnixMilli(), uuid.NewString(), extension(original))
}

// URLFor returns the retrieval URL of a stored name.
func URLFor(name string) string {
	return URLPrefix + name
}

// NameFromURL extracts the stored name from a retrieval URL, rejecting
// anything outside URLPrefix or pointing into another directory.
func NameFromURL(url string) (string, error) {
	if !strings.HasPrefix(url, URLPrefix) {
		return "", ErrNotOwned
	}
	name := strings.TrimPrefix(url, URLPrefix)
	if name == "" || name != path.Base(name) || name == "." || name == ".." || strings.Contains(name, "\\") {
		return "", ErrNotOwned
	}
	return name, nil
}

func extension(filename string) string {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(filename, "\\", "/")))
	if len(ext) < 2 || len(ext) > maxExtLength {
		return ""
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return ""
		}
	}
	return ext
}

// copyLimited copies at most MaxFileSize bytes and reports ErrTooLarge when
// the source holds more.
func copyLimited(dst io.Writer, src io.Reader) (int64, error) {
	n, err := io.Copy(dst, io.LimitReader(src, MaxFileSize+1))
	if err != nil {
		return n, err
	}
	if n > MaxFileSize {
		return n, ErrTooLarge
	}
	return n, nil
}
