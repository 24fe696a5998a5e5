// Package transfer owns the connection to the remote file endpoint for one job.
package transfer

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/Lllllllleong/pagetransfer/internal/models"
)

// ErrTransfer wraps connect, directory and upload failures.
var ErrTransfer = errors.New("transfer failed")

// Session is one authenticated connection, exclusively owned by a job.
// Close must be called on every exit path once Open has succeeded.
type Session interface {
	// EnsureDirectories creates each directory and its missing parents.
	// Existing directories are not an error.
	EnsureDirectories(ctx context.Context, dirs ...string) error
	// Upload writes data to remotePath, overwriting any existing file.
	Upload(ctx context.Context, data []byte, remotePath string) error
	Close() error
}

// Opener establishes a Session against a target.
type Opener interface {
	Open(ctx context.Context, target models.TransferTarget) (Session, error)
}

// RemotePath joins a destination directory and a file name.
func RemotePath(dir, name string) string {
	return path.Join(dir, name)
}

// parents returns every cumulative prefix of dir, shortest first:
// "/a/b/c" -> ["/a", "/a/b", "/a/b/c"].
func parents(dir string) []string {
	cleaned := path.Clean(dir)
	if cleaned == "." || cleaned == "/" {
		return nil
	}
	prefix := ""
	if strings.HasPrefix(cleaned, "/") {
		prefix = "/"
	}
	var out []string
	current := ""
	for _, segment := range strings.Split(strings.TrimPrefix(cleaned, "/"), "/") {
		if current == "" {
			current = prefix + segment
		} else {
			current = current + "/" + segment
		}
		out = append(out, current)
	}
	return out
}
