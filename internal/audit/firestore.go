package audit

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"github.com/Lllllllleong/pagetransfer/internal/models"
)

// FirestoreInserter adds each entry as a new document in a collection.
type FirestoreInserter struct {
	client *firestore.Client
}

func NewFirestoreInserter(client *firestore.Client) *FirestoreInserter {
	return &FirestoreInserter{client: client}
}

func (f *FirestoreInserter) Insert(ctx context.Context, collection string, entry *models.AuditLogEntry) error {
	if _, _, err := f.client.Collection(collection).Add(ctx, entry); err != nil {
		return fmt.Errorf("failed to add audit document: %w", err)
	}
	return nil
}
