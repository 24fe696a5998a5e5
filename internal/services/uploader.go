package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Lllllllleong/pagetransfer/internal/audit"
	"github.com/Lllllllleong/pagetransfer/internal/config"
	"github.com/Lllllllleong/pagetransfer/internal/gcp"
	"github.com/Lllllllleong/pagetransfer/internal/metrics"
	"github.com/Lllllllleong/pagetransfer/internal/models"
	"github.com/Lllllllleong/pagetransfer/internal/pdf"
	"github.com/Lllllllleong/pagetransfer/internal/render"
	"github.com/Lllllllleong/pagetransfer/internal/sequence"
	"github.com/Lllllllleong/pagetransfer/internal/transfer"
)

// pageSource is the ordered, non-restartable page sequence of one document.
type pageSource interface {
	PageCount() int
	Next() (*pdf.Page, error)
}

// WorkflowTrigger starts the optional completion workflow.
type WorkflowTrigger interface {
	Trigger(ctx context.Context, args map[string]interface{}) (string, error)
}

// Dependencies are the collaborators of an UploaderFunction.
type Dependencies struct {
	Opener    transfer.Opener
	Allocator sequence.Allocator
	// AllocatorTimeout bounds each allocation call; zero means ctx only.
	AllocatorTimeout time.Duration
	Audit            *audit.Logger
	Workflow         WorkflowTrigger
	Closers          []io.Closer
}

// UploaderFunction runs upload jobs: split, allocate, render, transfer, audit.
type UploaderFunction struct {
	opener       transfer.Opener
	sequence     *sequence.Client
	audit        *audit.Logger
	workflow     WorkflowTrigger
	closers      []io.Closer
	openDocument func([]byte) (pageSource, error)
}

// NewUploaderWithDeps builds an UploaderFunction from explicit collaborators.
func NewUploaderWithDeps(deps Dependencies) *UploaderFunction {
	return &UploaderFunction{
		opener:   deps.Opener,
		sequence: sequence.NewClient(deps.Allocator, deps.AllocatorTimeout),
		audit:    deps.Audit,
		workflow: deps.Workflow,
		closers:  deps.Closers,
		openDocument: func(data []byte) (pageSource, error) {
			return pdf.Open(data)
		},
	}
}

// NewUploader wires the backends selected in cfg.
func NewUploader(ctx context.Context, cfg *config.Config) (*UploaderFunction, error) {
	deps := Dependencies{AllocatorTimeout: cfg.AllocatorTimeout}
	fail := func(err error) (*UploaderFunction, error) {
		closeAll(deps.Closers)
		return nil, err
	}

	needFirestore := cfg.AllocatorBackend == config.AllocatorFirestore || cfg.AuditBackend == config.AuditFirestore
	if needFirestore {
		client, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID, cfg.CredentialsFile)
		if err != nil {
			return fail(err)
		}
		deps.Closers = append(deps.Closers, client)

		if cfg.AllocatorBackend == config.AllocatorFirestore {
			deps.Allocator = sequence.NewFirestoreAllocator(client, cfg.AllocatorCounterCollection, cfg.AllocatorCounterID)
		}
		if cfg.AuditBackend == config.AuditFirestore {
			deps.Audit = audit.NewLogger(audit.NewFirestoreInserter(client), cfg.AuditCollection)
		}
	}

	switch cfg.AllocatorBackend {
	case config.AllocatorRedis:
		alloc, err := sequence.NewRedisAllocator(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.AllocatorCounterID)
		if err != nil {
			return fail(err)
		}
		deps.Allocator = alloc
		deps.Closers = append(deps.Closers, alloc)
	case config.AllocatorHTTP:
		deps.Allocator = sequence.NewHTTPAllocator(cfg.AllocatorURL, cfg.AllocatorAPIKey, &http.Client{Timeout: cfg.AllocatorTimeout})
	}

	switch cfg.TransferBackend {
	case config.TransferFTP:
		deps.Opener = transfer.FTPOpener{DialTimeout: cfg.FTPDialTimeout, ExplicitTLS: cfg.FTPExplicitTLS}
	case config.TransferGCS:
		client, err := gcp.NewStorageClient(ctx, cfg.CredentialsFile)
		if err != nil {
			return fail(err)
		}
		deps.Closers = append(deps.Closers, client)
		deps.Opener = transfer.GCSOpener{Client: client, Bucket: cfg.TransferBucket}
	case config.TransferLocal:
		deps.Opener = transfer.LocalOpener{Root: cfg.TransferRoot}
	}

	if cfg.AuditBackend == config.AuditMySQL {
		inserter, err := audit.NewMySQLInserter(cfg.AuditMySQLDSN)
		if err != nil {
			return fail(err)
		}
		deps.Closers = append(deps.Closers, inserter)
		deps.Audit = audit.NewLogger(inserter, cfg.AuditCollection)
	}

	if cfg.WorkflowID != "" {
		trigger, err := gcp.NewWorkflowTrigger(ctx, cfg.ProjectID, cfg.WorkflowLocation, cfg.WorkflowID, cfg.CredentialsFile)
		if err != nil {
			return fail(err)
		}
		deps.Closers = append(deps.Closers, trigger)
		deps.Workflow = trigger
	}

	slog.Info("Uploader initialized.",
		"allocator", cfg.AllocatorBackend,
		"transfer", cfg.TransferBackend,
		"audit", cfg.AuditBackend,
		"workflowId", cfg.WorkflowID,
	)
	return NewUploaderWithDeps(deps), nil
}

// Close releases the long-lived clients created by NewUploader.
func (f *UploaderFunction) Close() error {
	return closeAll(f.closers)
}

func closeAll(closers []io.Closer) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// job is a validated request.
type job struct {
	req          *models.UploadJobRequest
	format       string
	extension    string
	baseFilename string
	pdfBytes     []byte
}

// jobState accumulates what the audit entry needs while pages are processed.
type jobState struct {
	pageCount       int
	results         []models.UploadOutcome
	payloadSnapshot string
}

// Process runs one upload job. Pages are handled strictly in order over a single
// session; a failure aborts the remaining pages without undoing earlier uploads.
func (f *UploaderFunction) Process(ctx context.Context, req *models.UploadJobRequest) (*models.UploadJobResponse, error) {
	logCtx := slog.With("jobId", uuid.NewString())

	j, jerr := validate(req)
	if jerr != nil {
		logCtx.Warn("Rejected upload request.", "error", jerr)
		metrics.JobsTotal.WithLabelValues("rejected").Inc()
		metrics.StageFailuresTotal.WithLabelValues(string(jerr.Kind)).Inc()
		return nil, jerr
	}
	logCtx = logCtx.With("baseFilename", j.baseFilename, "format", j.format, "host", req.Target.Host)
	logCtx.Info("Processing upload job.")

	start := time.Now()
	defer func() { metrics.JobDuration.Observe(time.Since(start).Seconds()) }()

	state := &jobState{
		results:         []models.UploadOutcome{},
		payloadSnapshot: req.Payload,
	}
	session, err := f.opener.Open(ctx, req.Target)
	if err != nil {
		jerr = f.handleError(logCtx, "failed to connect to transfer endpoint", err)
		f.finish(ctx, logCtx, j, state, jerr)
		return nil, jerr
	}

	jerr = f.transferPages(ctx, logCtx, session, j, state)

	if err := session.Close(); err != nil {
		logCtx.Error("Failed to close transfer session.", "error", err)
	}

	f.finish(ctx, logCtx, j, state, jerr)
	if jerr != nil {
		return nil, jerr
	}

	logCtx.Info("Upload job complete.", "pageCount", state.pageCount)
	return &models.UploadJobResponse{
		Success:   true,
		PageCount: state.pageCount,
		Results:   state.results,
	}, nil
}

func (f *UploaderFunction) transferPages(ctx context.Context, logCtx *slog.Logger, session transfer.Session, j *job, state *jobState) *JobError {
	dirs := []string{j.req.Target.PayloadDir, j.req.Target.PDFDir}
	if j.req.Target.SecondaryDir != "" {
		dirs = append(dirs, j.req.Target.SecondaryDir)
	}
	if err := session.EnsureDirectories(ctx, dirs...); err != nil {
		return f.handleError(logCtx, "failed to ensure remote directories", err)
	}

	doc, err := f.openDocument(j.pdfBytes)
	if err != nil {
		return f.handleError(logCtx, "failed to read PDF", err)
	}
	state.pageCount = doc.PageCount()
	logCtx.Info("PDF opened.", "pageCount", state.pageCount)

	for {
		page, err := doc.Next()
		if errors.Is(err, pdf.Done) {
			return nil
		}
		if err != nil {
			return f.handleError(logCtx, fmt.Sprintf("page %d: failed to extract", len(state.results)), err)
		}
		pageLog := logCtx.With("page", page.Index)

		id, err := f.sequence.ForPage(ctx, page.Index, j.req.ReuseIdentifierForFirstPage)
		if err != nil {
			return f.handleError(pageLog, fmt.Sprintf("page %d: failed to allocate identifier", page.Index), err)
		}
		pageLog = pageLog.With("identifier", id)

		rendered, err := render.Render(j.req.Payload, j.format, j.req.FieldPathForID, id)
		if err != nil {
			return f.handleError(pageLog, fmt.Sprintf("page %d: failed to render payload", page.Index), err)
		}
		if page.Index == 0 {
			state.payloadSnapshot = rendered
		}

		stem := fmt.Sprintf("%s_%d", j.baseFilename, id)
		paths := models.UploadedPaths{
			Data: transfer.RemotePath(j.req.Target.PayloadDir, stem+"."+j.extension),
			PDF:  transfer.RemotePath(j.req.Target.PDFDir, stem+".pdf"),
		}
		if err := session.Upload(ctx, []byte(rendered), paths.Data); err != nil {
			return f.handleError(pageLog, fmt.Sprintf("page %d: failed to upload payload", page.Index), err)
		}
		if err := session.Upload(ctx, page.Data, paths.PDF); err != nil {
			return f.handleError(pageLog, fmt.Sprintf("page %d: failed to upload PDF", page.Index), err)
		}

		state.results = append(state.results, models.UploadOutcome{
			Page:       page.Index,
			Identifier: id,
			Filename:   stem,
			Paths:      paths,
		})
		metrics.PagesUploadedTotal.Inc()
		pageLog.Info("Page uploaded.", "dataPath", paths.Data, "pdfPath", paths.PDF)
	}
}

// handleError logs the failure and wraps it in the job taxonomy.
func (f *UploaderFunction) handleError(logCtx *slog.Logger, message string, originalErr error) *JobError {
	kind := classify(originalErr)
	logCtx.Error(message, "error", originalErr, "kind", kind)
	metrics.StageFailuresTotal.WithLabelValues(string(kind)).Inc()
	return &JobError{Kind: kind, Message: message, Err: originalErr}
}

// finish writes the audit entry and, on success, triggers the completion workflow.
func (f *UploaderFunction) finish(ctx context.Context, logCtx *slog.Logger, j *job, state *jobState, jerr *JobError) {
	entry := models.AuditLogEntry{
		UserRef:           j.req.UserRef,
		ClassificationRef: j.req.ClassificationRef,
		OriginalFilename:  j.req.OriginalFilename,
		PageCount:         state.pageCount,
		Status:            models.AuditStatusSuccess,
	}
	if state.payloadSnapshot != "" {
		snapshot := state.payloadSnapshot
		entry.PayloadSnapshot = &snapshot
	}
	if len(state.results) > 0 {
		first := state.results[0].Identifier
		entry.FirstPageIdentifier = &first
	}
	if jerr != nil {
		msg := jerr.Error()
		entry.Status = models.AuditStatusFailed
		entry.ErrorMessage = &msg
	}
	f.audit.Record(ctx, entry)
	metrics.JobsTotal.WithLabelValues(entry.Status).Inc()

	if jerr != nil || f.workflow == nil {
		return
	}
	args := map[string]interface{}{
		"pageCount":    state.pageCount,
		"baseFilename": j.baseFilename,
	}
	if entry.FirstPageIdentifier != nil {
		args["firstPageIdentifier"] = *entry.FirstPageIdentifier
	}
	execName, err := f.workflow.Trigger(ctx, args)
	if err != nil {
		logCtx.Error("Failed to trigger completion workflow.", "error", err)
		return
	}
	logCtx.Info("Completion workflow triggered.", "execution", execName)
}

const dataURLMarker = ";base64,"

// validate checks the request before any network I/O.
func validate(req *models.UploadJobRequest) (*job, *JobError) {
	if req == nil {
		return nil, validationError("request body is required")
	}
	t := req.Target
	switch {
	case strings.TrimSpace(t.Host) == "":
		return nil, validationError("target.host is required")
	case t.Username == "" || t.Password == "":
		return nil, validationError("target.username and target.password are required")
	case t.Port < 0 || t.Port > 65535:
		return nil, validationError("target.port %d is out of range", t.Port)
	case strings.TrimSpace(t.PayloadDir) == "" || strings.TrimSpace(t.PDFDir) == "":
		return nil, validationError("target.payloadDir and target.pdfDir are required")
	case req.Payload == "":
		return nil, validationError("payload is required")
	case strings.TrimSpace(req.PDFBase64) == "":
		return nil, validationError("pdfBase64 is required")
	}
	if req.ReuseIdentifierForFirstPage != nil && *req.ReuseIdentifierForFirstPage <= 0 {
		return nil, validationError("reuseIdentifierForFirstPage must be a positive integer")
	}

	base := path.Base(strings.TrimSpace(req.BaseFilename))
	if strings.TrimSpace(req.BaseFilename) == "" || base == "." || base == ".." || base == "/" {
		return nil, validationError("baseFilename is required")
	}

	format, err := render.NormalizeFormat(req.PayloadFormat)
	if err != nil {
		return nil, validationError("%v", err)
	}

	pdfBytes, err := decodePDF(req.PDFBase64)
	if err != nil {
		return nil, &JobError{Kind: KindValidation, Message: "pdfBase64 is not valid base64", Err: err}
	}
	if len(pdfBytes) == 0 {
		return nil, validationError("pdfBase64 decodes to an empty document")
	}

	return &job{
		req:          req,
		format:       format,
		extension:    render.Extension(format),
		baseFilename: base,
		pdfBytes:     pdfBytes,
	}, nil
}

// decodePDF accepts plain standard base64 or a data URL, ignoring whitespace.
func decodePDF(encoded string) ([]byte, error) {
	if i := strings.Index(encoded, dataURLMarker); i >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[i+len(dataURLMarker):]
	}
	encoded = strings.Join(strings.Fields(encoded), "")
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		if raw, rawErr := base64.RawStdEncoding.DecodeString(encoded); rawErr == nil {
			return raw, nil
		}
		return nil, err
	}
	return data, nil
}
