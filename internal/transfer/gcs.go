package transfer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"github.com/Lllllllleong/pagetransfer/internal/models"
)

// GCSOpener maps the directory layout onto object prefixes in one bucket.
// The target's host and credentials are not used; access comes from the client.
type GCSOpener struct {
	Client *storage.Client
	Bucket string
}

func (o GCSOpener) Open(ctx context.Context, target models.TransferTarget) (Session, error) {
	bucket := o.Client.Bucket(o.Bucket)
	if _, err := bucket.Attrs(ctx); err != nil {
		return nil, fmt.Errorf("%w: bucket %s is not reachable: %v", ErrTransfer, o.Bucket, err)
	}
	return &gcsSession{bucket: bucket, name: o.Bucket}, nil
}

type gcsSession struct {
	bucket *storage.BucketHandle
	name   string
}

// EnsureDirectories writes zero-byte "dir/" marker objects, skipping any that exist.
func (s *gcsSession) EnsureDirectories(ctx context.Context, dirs ...string) error {
	for _, dir := range dirs {
		for _, p := range parents(dir) {
			marker := objectName(p) + "/"
			w := s.bucket.Object(marker).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
			if err := w.Close(); err != nil {
				var gerr *googleapi.Error
				if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
					continue
				}
				return fmt.Errorf("%w: failed to create gs://%s/%s: %v", ErrTransfer, s.name, marker, err)
			}
		}
	}
	return nil
}

func (s *gcsSession) Upload(ctx context.Context, data []byte, remotePath string) error {
	w := s.bucket.Object(objectName(remotePath)).NewWriter(ctx)
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		if cerr := w.Close(); cerr != nil {
			slog.Warn("Failed to close object writer after a failed copy.", "object", objectName(remotePath), "error", cerr)
		}
		return fmt.Errorf("%w: io.Copy to gs://%s/%s failed: %v", ErrTransfer, s.name, objectName(remotePath), err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: failed to finalize gs://%s/%s: %v", ErrTransfer, s.name, objectName(remotePath), err)
	}
	return nil
}

// Close releases nothing: the storage client outlives the job.
func (s *gcsSession) Close() error {
	return nil
}

func objectName(remotePath string) string {
	return strings.TrimPrefix(remotePath, "/")
}
