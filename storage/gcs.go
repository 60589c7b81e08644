package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const gcsObjectPrefix = "evidence/"

// GCSStore keeps evidence files in a Google Cloud Storage bucket. Objects are
// private; they are streamed back through the API rather than linked directly.
type GCSStore struct {
	client *gcs.Client
	bucket string
	now    func() time.Time
}

// NewGCSStore connects to bucket using application default credentials, or
// credentialsJSON when it is not empty.
func NewGCSStore(ctx context.Context, bucket, credentialsJSON string) (*GCSStore, error) {
	var opts []option.ClientOption
	if credentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcs client: %w", err)
	}
	if _, err := client.Bucket(bucket).Attrs(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("gcs bucket %q not found or not accessible: %w", bucket, err)
	}
	return &GCSStore{client: client, bucket: bucket, now: time.Now}, nil
}

func (s *GCSStore) object(name string) *gcs.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(gcsObjectPrefix + name)
}

func (s *GCSStore) Store(ctx context.Context, u Upload) (string, error) {
	if u.Size > MaxFileSize {
		return "", ErrTooLarge
	}

	// Cancelling the writer's context aborts the upload without committing an object.
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	name := NewName(u.Filename, s.now())
	w := s.object(name).If(gcs.Conditions{DoesNotExist: true}).NewWriter(wctx)
	w.ContentType = u.ContentType

	if _, err := copyLimited(w, u.Body); err != nil {
		cancel()
		w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to upload evidence object: %w", err)
	}
	return URLFor(name), nil
}

func (s *GCSStore) Delete(ctx context.Context, url string) error {
	name, err := NameFromURL(url)
	if err != nil {
		return err
	}
	err = s.object(name).Delete(ctx)
	if err == nil || errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return fmt.Errorf("failed to delete evidence object %s: %w", name, err)
}

func (s *GCSStore) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	name, err := NameFromURL(url)
	if err != nil {
		return nil, err
	}
	r, err := s.object(name).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read evidence object %s: %w", name, err)
	}
	return r, nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
