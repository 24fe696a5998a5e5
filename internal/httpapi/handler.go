// Package httpapi exposes the uploader over HTTP.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/Lllllllleong/pagetransfer/internal/models"
	"github.com/Lllllllleong/pagetransfer/internal/services"
)

// MaxRequestBytes bounds the request body; PDFs arrive base64-encoded inline.
const MaxRequestBytes = 64 << 20

// Processor runs one upload job.
type Processor interface {
	Process(ctx context.Context, req *models.UploadJobRequest) (*models.UploadJobResponse, error)
}

// UploadHandler decodes an UploadJobRequest, runs it and writes the response.
type UploadHandler struct {
	processor Processor
}

func NewUploadHandler(p Processor) *UploadHandler {
	return &UploadHandler{processor: p}
}

func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		WriteError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBytes)
	defer r.Body.Close()

	var req models.UploadJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Could not decode request body.", "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, "request body too large", err.Error())
			return
		}
		WriteError(w, http.StatusBadRequest, "could not parse JSON", err.Error())
		return
	}

	res, err := h.processor.Process(r.Context(), &req)
	if err != nil {
		// Process has already logged the failure with job context.
		status, message, details := describe(err)
		WriteError(w, status, message, details)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// StatusFor maps a job error onto an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrAllocation), errors.Is(err, services.ErrTransfer):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func describe(err error) (int, string, string) {
	var jerr *services.JobError
	if errors.As(err, &jerr) {
		return StatusFor(err), jerr.Message, jerr.Details()
	}
	return StatusFor(err), err.Error(), ""
}

// WriteError writes the failure body shared by every entry point.
func WriteError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, models.ErrorResponse{Success: false, Error: message, Details: details})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to write response.", "error", err)
	}
}
