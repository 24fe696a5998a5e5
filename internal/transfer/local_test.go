package transfer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Lllllllleong/pagetransfer/internal/models"
)

func TestLocalSession(t *testing.T) {
	root := t.TempDir()
	session, err := LocalOpener{Root: root}.Open(context.Background(), models.TransferTarget{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer session.Close()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := session.EnsureDirectories(ctx, "/in/xml", "/in/pdf"); err != nil {
			t.Fatalf("EnsureDirectories #%d: %v", i, err)
		}
	}
	if err := session.Upload(ctx, []byte("<a/>"), "/in/xml/doc_1.xml"); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, "in", "xml", "doc_1.xml"))
	if err != nil {
		t.Fatalf("uploaded file missing: %v", err)
	}
	if string(data) != "<a/>" {
		t.Errorf("content = %q", data)
	}

	// Paths cannot escape the root.
	if err := session.Upload(ctx, []byte("x"), "../../escape.txt"); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "escape.txt")); err != nil {
		t.Errorf("escaping path was not confined to root: %v", err)
	}
}

func TestLocalOpener_MissingRoot(t *testing.T) {
	_, err := LocalOpener{Root: filepath.Join(t.TempDir(), "missing")}.Open(context.Background(), models.TransferTarget{})
	if !errors.Is(err, ErrTransfer) {
		t.Fatalf("error = %v, want ErrTransfer", err)
	}
}
