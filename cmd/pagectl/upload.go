package main

import (
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/Lllllllleong/pagetransfer/internal/config"
	"github.com/Lllllllleong/pagetransfer/internal/models"
	"github.com/Lllllllleong/pagetransfer/internal/services"
)

// uploadOptions are the flag values of the upload command.
type uploadOptions struct {
	pdfFile      string
	payloadFile  string
	baseFilename string
	format       string
	fieldPath    string
	override     int64

	host         string
	port         int
	username     string
	password     string
	payloadDir   string
	pdfDir       string
	secondaryDir string

	userRef           string
	classificationRef string
	localRoot         string
}

func uploadCmd() *cobra.Command {
	opts := &uploadOptions{}
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload every page of a PDF with its rendered payload",
		Long: `Split a PDF into pages, allocate an identifier per page, render the payload
template with it and upload both files to the target.

Backends (allocator, transfer, audit) come from the same environment as the
server. --local-root writes the remote layout under a local directory instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.pdfFile, "pdf", "", "PDF file to split (required)")
	f.StringVar(&opts.payloadFile, "payload", "", "payload template file (required)")
	f.StringVar(&opts.baseFilename, "base", "", "base filename for uploaded files (default: PDF name without extension)")
	f.StringVar(&opts.format, "format", "", "payload format: xml or json (default: from payload file extension)")
	f.StringVar(&opts.fieldPath, "field-path", "", "dot-delimited path that receives the identifier in JSON payloads")
	f.Int64Var(&opts.override, "reuse-id", 0, "identifier to use for the first page instead of allocating one")

	f.StringVar(&opts.host, "host", "", "target host")
	f.IntVar(&opts.port, "port", 0, "target port (default 21)")
	f.StringVarP(&opts.username, "user", "u", "", "target username")
	f.StringVar(&opts.password, "password", "", "target password (default: $PAGECTL_PASSWORD)")
	f.StringVar(&opts.payloadDir, "payload-dir", "", "remote directory for payload files")
	f.StringVar(&opts.pdfDir, "pdf-dir", "", "remote directory for page PDFs")
	f.StringVar(&opts.secondaryDir, "secondary-dir", "", "additional remote directory to create")

	f.StringVar(&opts.userRef, "user-ref", "", "user reference recorded in the audit log")
	f.StringVar(&opts.classificationRef, "classification-ref", "", "classification reference recorded in the audit log")
	f.StringVar(&opts.localRoot, "local-root", "", "write to this local directory instead of the configured transfer backend")

	_ = cmd.MarkFlagRequired("pdf")
	_ = cmd.MarkFlagRequired("payload")
	return cmd
}

func runUpload(cmd *cobra.Command, opts *uploadOptions) error {
	slog.SetDefault(slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), nil)))

	cfg, err := loadConfig(opts.localRoot)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	req, err := buildRequest(opts)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	uploader, err := services.NewUploader(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize uploader: %w", err)
	}
	defer uploader.Close()

	res, procErr := uploader.Process(ctx, req)
	if procErr != nil {
		return procErr
	}
	return printJSON(cmd.OutOrStdout(), res)
}

// loadConfig reads the environment and, for local runs, swaps in the local
// transfer backend.
func loadConfig(localRoot string) (*config.Config, error) {
	if localRoot != "" {
		if err := os.MkdirAll(localRoot, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create local root: %w", err)
		}
		os.Setenv("TRANSFER_BACKEND", config.TransferLocal)
		os.Setenv("TRANSFER_LOCAL_ROOT", localRoot)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// buildRequest reads the input files and assembles the job request.
func buildRequest(opts *uploadOptions) (*models.UploadJobRequest, error) {
	pdfBytes, err := os.ReadFile(opts.pdfFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	payload, err := os.ReadFile(opts.payloadFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	base := opts.baseFilename
	if base == "" {
		name := filepath.Base(opts.pdfFile)
		base = strings.TrimSuffix(name, filepath.Ext(name))
	}
	format := opts.format
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(opts.payloadFile)), ".")
	}
	password := opts.password
	if password == "" {
		password = os.Getenv("PAGECTL_PASSWORD")
	}

	req := &models.UploadJobRequest{
		Target: models.TransferTarget{
			Host:         opts.host,
			Port:         opts.port,
			Username:     opts.username,
			Password:     password,
			PayloadDir:   opts.payloadDir,
			PDFDir:       opts.pdfDir,
			SecondaryDir: opts.secondaryDir,
		},
		Payload:           string(payload),
		PDFBase64:         base64.StdEncoding.EncodeToString(pdfBytes),
		BaseFilename:      base,
		OriginalFilename:  filepath.Base(opts.pdfFile),
		FieldPathForID:    opts.fieldPath,
		UserRef:           opts.userRef,
		ClassificationRef: opts.classificationRef,
		PayloadFormat:     format,
	}
	if opts.override != 0 {
		override := opts.override
		req.ReuseIdentifierForFirstPage = &override
	}
	return req, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
