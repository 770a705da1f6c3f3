package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// ErrInvalidURI is returned by ParseURI for anything but gs://bucket/object.
var ErrInvalidURI = errors.New("invalid GCS URI")

const uploadTimeout = 2 * time.Minute

// ParseURI splits gs://bucket/path/to/object into bucket and object name.
func ParseURI(uri string) (bucket, object string, err error) {
	trimmed, ok := strings.CutPrefix(uri, "gs://")
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidURI, uri)
	}
	bucket, object, ok = strings.Cut(trimmed, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("%w (no object path): %s", ErrInvalidURI, uri)
	}
	return bucket, object, nil
}

// ObjectName returns the default object name for a snapshot taken at t.
func ObjectName(t time.Time) string {
	return "snapshots/" + t.UTC().Format("2006/01/02/150405") + ".json"
}

// writerFunc opens a writer for bucket/object.
type writerFunc func(ctx context.Context, bucket, object string) io.WriteCloser

// Uploader writes snapshots to GCS.
// It assumes Application Default Credentials are configured (gcloud auth application-default login).
type Uploader struct {
	client    *storage.Client
	newWriter writerFunc
}

// NewUploader creates an Uploader with its own storage client.
func NewUploader(ctx context.Context) (*Uploader, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewUploader: create storage client: %w", err)
	}
	return &Uploader{
		client: client,
		newWriter: func(ctx context.Context, bucket, object string) io.WriteCloser {
			w := client.Bucket(bucket).Object(object).NewWriter(ctx)
			w.ContentType = "application/json"
			return w
		},
	}, nil
}

// Close closes the storage client.
func (u *Uploader) Close() error {
	if u.client != nil {
		return u.client.Close()
	}
	return nil
}

// Upload writes snap to uri, a gs://bucket/object URI.
func (u *Uploader) Upload(ctx context.Context, uri string, snap *Snapshot) error {
	bucket, object, err := ParseURI(uri)
	if err != nil {
		return fmt.Errorf("Upload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := u.newWriter(ctx, bucket, object)
	if err := snap.WriteSnapshot(w); err != nil {
		// Cancelling the context aborts the partial upload.
		cancel()
		_ = w.Close()
		return fmt.Errorf("Upload: write %s: %w", uri, err)
	}

	// Close to finalize the upload
	if err := w.Close(); err != nil {
		return fmt.Errorf("Upload: finalize %s: %w", uri, err)
	}
	return nil
}
