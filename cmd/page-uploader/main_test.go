package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/Lllllllleong/pagetransfer/internal/models"
	"github.com/Lllllllleong/pagetransfer/internal/services"
)

type stubProcessor struct {
	got *models.UploadJobRequest
	err error
}

func (s *stubProcessor) Process(ctx context.Context, req *models.UploadJobRequest) (*models.UploadJobResponse, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	return &models.UploadJobResponse{Success: true, Results: []models.UploadOutcome{}}, nil
}

func newPubSubEvent(t *testing.T, job string) cloudevents.Event {
	t.Helper()
	e := cloudevents.NewEvent()
	e.SetID("evt-1")
	e.SetSource("//pubsub.googleapis.com/projects/p/topics/upload-jobs")
	e.SetType("google.cloud.pubsub.topic.v1.messagePublished")
	data := fmt.Sprintf(`{"message":{"data":%q,"messageId":"m-1"},"subscription":"s"}`,
		base64.StdEncoding.EncodeToString([]byte(job)))
	if err := e.SetData(cloudevents.ApplicationJSON, []byte(data)); err != nil {
		t.Fatalf("SetData: %v", err)
	}
	return e
}

func TestHandleEventDecodesJob(t *testing.T) {
	stub := &stubProcessor{}
	e := newPubSubEvent(t, `{"baseFilename":"drawing","target":{"host":"ftp.example.com"}}`)

	if err := handleEvent(context.Background(), stub, e); err != nil {
		t.Fatalf("handleEvent() error = %v", err)
	}
	if stub.got == nil || stub.got.BaseFilename != "drawing" || stub.got.Target.Host != "ftp.example.com" {
		t.Errorf("decoded request = %+v", stub.got)
	}
}

func TestHandleEventRedelivery(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		redeliver bool
	}{
		{"success", nil, false},
		{"validation", &services.JobError{Kind: services.KindValidation, Message: "target.host is required"}, false},
		{"malformed", &services.JobError{Kind: services.KindMalformedDocument, Message: "failed to read PDF"}, false},
		{"template", &services.JobError{Kind: services.KindTemplate, Message: "page 0: failed to render payload"}, false},
		{"allocation", &services.JobError{Kind: services.KindAllocation, Message: "page 1: failed to allocate identifier"}, true},
		{"transfer", &services.JobError{Kind: services.KindTransfer, Message: "failed to connect to transfer endpoint"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newPubSubEvent(t, `{"baseFilename":"drawing"}`)
			err := handleEvent(context.Background(), &stubProcessor{err: tt.err}, e)
			if got := err != nil; got != tt.redeliver {
				t.Errorf("handleEvent() error = %v, want redelivery %v", err, tt.redeliver)
			}
			if tt.redeliver && !errors.Is(err, tt.err) {
				t.Errorf("returned error %v does not wrap the job error", err)
			}
		})
	}
}

func TestHandleEventAcknowledgesUndecodableMessages(t *testing.T) {
	stub := &stubProcessor{}
	e := newPubSubEvent(t, `not json`)

	if err := handleEvent(context.Background(), stub, e); err != nil {
		t.Errorf("handleEvent() error = %v, want nil", err)
	}
	if stub.got != nil {
		t.Error("processor called for an undecodable message")
	}
}
