package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/goccy/go-json"

	"github.com/Lllllllleong/pagetransfer/internal/config"
	"github.com/Lllllllleong/pagetransfer/internal/httpapi"
	"github.com/Lllllllleong/pagetransfer/internal/models"
	"github.com/Lllllllleong/pagetransfer/internal/services"
)

var (
	uploaderInstance *services.UploaderFunction
	once             sync.Once
	initErr          error
)

func init() {
	functions.HTTP("HandleUploadPages", handleUploadPages)
	functions.CloudEvent("UploadPagesFromEvent", uploadPagesFromEvent)
}

// main is required by the Go Functions Framework.
func main() {}

func uploader() (*services.UploaderFunction, error) {
	once.Do(func() {
		var cfg *config.Config
		cfg, initErr = config.Load()
		if initErr != nil {
			slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
			return
		}
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
		slog.SetDefault(logger)
		uploaderInstance, initErr = services.NewUploader(context.Background(), cfg)
	})
	return uploaderInstance, initErr
}

// handleUploadPages is the HTTP entry point.
func handleUploadPages(w http.ResponseWriter, r *http.Request) {
	u, err := uploader()
	if err != nil {
		slog.Error("CRITICAL: Uploader initialization failed", "error", err)
		httpapi.WriteError(w, http.StatusInternalServerError, "failed to initialize service", err.Error())
		return
	}
	httpapi.NewUploadHandler(u).ServeHTTP(w, r)
}

// pubSubMessage is the data of a Pub/Sub CloudEvent.
type pubSubMessage struct {
	Message struct {
		Data []byte `json:"data"`
		ID   string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// uploadPagesFromEvent runs a job published to Pub/Sub.
func uploadPagesFromEvent(ctx context.Context, e cloudevents.Event) error {
	u, err := uploader()
	if err != nil {
		slog.Error("Critical error during function initialization", "error", err)
		return err
	}
	return handleEvent(ctx, u, e)
}

// handleEvent decodes the job from a Pub/Sub CloudEvent and processes it. Only
// failures worth a redelivery are returned; bad requests are logged and acknowledged.
func handleEvent(ctx context.Context, p httpapi.Processor, e cloudevents.Event) error {
	var msg pubSubMessage
	if err := json.Unmarshal(e.Data(), &msg); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "eventId", e.ID())
		return nil
	}
	var req models.UploadJobRequest
	if err := json.Unmarshal(msg.Message.Data, &req); err != nil {
		slog.Error("Failed to unmarshal job request", "error", err, "messageId", msg.Message.ID)
		return nil
	}

	if _, err := p.Process(ctx, &req); err != nil && shouldRedeliver(err) {
		return fmt.Errorf("upload job %s: %w", msg.Message.ID, err)
	}
	return nil
}

// shouldRedeliver reports whether a job failure came from an upstream service
// that may recover on a later attempt.
func shouldRedeliver(err error) bool {
	return errors.Is(err, services.ErrAllocation) || errors.Is(err, services.ErrTransfer)
}
