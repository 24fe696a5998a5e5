package pdf

import (
	"bytes"
	"errors"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/Lllllllleong/pagetransfer/internal/pdf/pdftest"
)

func TestSplit_OnePagePerSourcePage(t *testing.T) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	for _, n := range []int{1, 3, 7} {
		pages, err := Split(pdftest.Build(n))
		if err != nil {
			t.Fatalf("Split(%d pages): %v", n, err)
		}
		if len(pages) != n {
			t.Fatalf("got %d pages, want %d", len(pages), n)
		}
		for i, page := range pages {
			if page.Index != i {
				t.Errorf("page %d has index %d", i, page.Index)
			}
			count, err := api.PageCount(bytes.NewReader(page.Data), conf)
			if err != nil {
				t.Fatalf("page %d is not a valid PDF: %v", i, err)
			}
			if count != 1 {
				t.Errorf("page %d has %d pages, want 1", i, count)
			}
			if !bytes.Contains(page.Data, []byte(pdftest.Marker(i))) {
				t.Errorf("page %d does not carry its original content", i)
			}
		}
	}
}

func TestDocument_NextIsNotRestartable(t *testing.T) {
	doc, err := Open(pdftest.Build(2))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if doc.PageCount() != 2 {
		t.Fatalf("PageCount = %d, want 2", doc.PageCount())
	}
	for i := 0; i < 2; i++ {
		if _, err := doc.Next(); err != nil {
			t.Fatalf("Next #%d: %v", i, err)
		}
	}
	if _, err := doc.Next(); !errors.Is(err, Done) {
		t.Fatalf("expected Done after last page, got %v", err)
	}
	if _, err := doc.Next(); !errors.Is(err, Done) {
		t.Fatalf("expected Done to be sticky, got %v", err)
	}
}

func TestDocument_PageOutOfRange(t *testing.T) {
	doc, err := Open(pdftest.Build(1))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for _, idx := range []int{-1, 1, 5} {
		if _, err := doc.Page(idx); !errors.Is(err, ErrMalformedDocument) {
			t.Errorf("Page(%d) error = %v, want ErrMalformedDocument", idx, err)
		}
	}
}

func TestOpen_Malformed(t *testing.T) {
	inputs := map[string][]byte{
		"empty":     nil,
		"not a pdf": []byte("hello, this is plain text"),
		"truncated": pdftest.Build(2)[:40],
	}
	for name, data := range inputs {
		t.Run(name, func(t *testing.T) {
			if _, err := Open(data); !errors.Is(err, ErrMalformedDocument) {
				t.Errorf("Open error = %v, want ErrMalformedDocument", err)
			}
		})
	}
}
