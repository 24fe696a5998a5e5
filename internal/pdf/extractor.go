// Package pdf splits a multi-page PDF held in memory into single-page documents.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrMalformedDocument is returned when the bytes are not a readable PDF or a
// page index is out of range.
var ErrMalformedDocument = errors.New("malformed document")

// Done is returned by Next once every page has been yielded.
var Done = errors.New("no more pages")

// Page is one single-page PDF derived from the source document.
type Page struct {
	Index int // 0-based
	Data  []byte
}

// Document is a parsed source PDF. Pages are yielded in order by Next and the
// sequence cannot be restarted.
type Document struct {
	ctx  *model.Context
	next int
}

// Open parses data as a PDF. Validation is relaxed so that documents produced by
// sloppy writers still split; page content is carried over without re-rendering.
func Open(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrMalformedDocument)
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pdfContext, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return &Document{ctx: pdfContext}, nil
}

// PageCount is the number of pages discovered in the document.
func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

// Next returns the next page, or Done when the document is exhausted.
func (d *Document) Next() (*Page, error) {
	if d.next >= d.PageCount() {
		return nil, Done
	}
	index := d.next
	d.next++
	data, err := d.Page(index)
	if err != nil {
		return nil, err
	}
	return &Page{Index: index, Data: data}, nil
}

// Page extracts the page at the 0-based index as a standalone PDF.
func (d *Document) Page(index int) ([]byte, error) {
	if index < 0 || index >= d.PageCount() {
		return nil, fmt.Errorf("%w: page index %d out of range [0,%d)", ErrMalformedDocument, index, d.PageCount())
	}
	pageReader, err := api.ExtractPage(d.ctx, index+1)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to extract page %d: %v", ErrMalformedDocument, index, err)
	}
	pageData, err := io.ReadAll(pageReader)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read page %d: %v", ErrMalformedDocument, index, err)
	}
	return pageData, nil
}

// Split is a convenience that extracts every page at once.
func Split(data []byte) ([]Page, error) {
	doc, err := Open(data)
	if err != nil {
		return nil, err
	}
	pages := make([]Page, 0, doc.PageCount())
	for {
		page, err := doc.Next()
		if errors.Is(err, Done) {
			return pages, nil
		}
		if err != nil {
			return pages, err
		}
		pages = append(pages, *page)
	}
}
