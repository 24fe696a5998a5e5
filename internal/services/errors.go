package services

import (
	"errors"
	"fmt"

	"github.com/Lllllllleong/pagetransfer/internal/pdf"
	"github.com/Lllllllleong/pagetransfer/internal/render"
	"github.com/Lllllllleong/pagetransfer/internal/sequence"
	"github.com/Lllllllleong/pagetransfer/internal/transfer"
)

// ErrorKind names a class of job failure.
type ErrorKind string

const (
	KindValidation        ErrorKind = "ValidationError"
	KindMalformedDocument ErrorKind = "MalformedDocumentError"
	KindAllocation        ErrorKind = "AllocationError"
	KindTemplate          ErrorKind = "TemplateError"
	KindTransfer          ErrorKind = "TransferError"
)

// Sentinels for errors.Is against a *JobError of the matching kind.
var (
	ErrValidation        = errors.New("validation error")
	ErrMalformedDocument = errors.New("malformed document")
	ErrAllocation        = errors.New("allocation error")
	ErrTemplate          = errors.New("template error")
	ErrTransfer          = errors.New("transfer error")
)

var kindSentinels = map[ErrorKind]error{
	KindValidation:        ErrValidation,
	KindMalformedDocument: ErrMalformedDocument,
	KindAllocation:        ErrAllocation,
	KindTemplate:          ErrTemplate,
	KindTransfer:          ErrTransfer,
}

// JobError is returned by Process for every failed job.
type JobError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *JobError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *JobError) Unwrap() []error {
	errs := []error{kindSentinels[e.Kind]}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Details is the underlying failure text, or "" when there is none.
func (e *JobError) Details() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func validationError(format string, args ...any) *JobError {
	return &JobError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// classify maps a component error onto the job taxonomy.
func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, pdf.ErrMalformedDocument):
		return KindMalformedDocument
	case errors.Is(err, sequence.ErrAllocation):
		return KindAllocation
	case errors.Is(err, render.ErrTemplate):
		return KindTemplate
	case errors.Is(err, transfer.ErrTransfer):
		return KindTransfer
	default:
		// Cancellation and other stray failures happen while talking to the endpoint.
		return KindTransfer
	}
}
