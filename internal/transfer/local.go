package transfer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Lllllllleong/pagetransfer/internal/models"
)

// LocalOpener writes the remote layout under a local root directory. It backs
// dry runs of the CLI and end-to-end tests.
type LocalOpener struct {
	Root string
}

func (o LocalOpener) Open(ctx context.Context, target models.TransferTarget) (Session, error) {
	info, err := os.Stat(o.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransfer, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrTransfer, o.Root)
	}
	return &localSession{root: o.Root}, nil
}

type localSession struct {
	root string
}

func (s *localSession) local(remotePath string) string {
	return filepath.Join(s.root, filepath.FromSlash(filepath.Clean("/"+remotePath)))
}

func (s *localSession) EnsureDirectories(ctx context.Context, dirs ...string) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(s.local(dir), 0o755); err != nil {
			return fmt.Errorf("%w: failed to create directory %s: %v", ErrTransfer, dir, err)
		}
	}
	return nil
}

func (s *localSession) Upload(ctx context.Context, data []byte, remotePath string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrTransfer, err)
	}
	if err := os.WriteFile(s.local(remotePath), data, 0o644); err != nil {
		return fmt.Errorf("%w: failed to upload %s: %v", ErrTransfer, remotePath, err)
	}
	return nil
}

func (s *localSession) Close() error {
	return nil
}
