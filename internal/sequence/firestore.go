package sequence

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreAllocator increments a counter document inside a transaction.
// A missing document starts the sequence at 1.
type FirestoreAllocator struct {
	client *firestore.Client
	doc    *firestore.DocumentRef
}

func NewFirestoreAllocator(client *firestore.Client, collection, counterID string) *FirestoreAllocator {
	return &FirestoreAllocator{
		client: client,
		doc:    client.Collection(collection).Doc(counterID),
	}
}

func (a *FirestoreAllocator) Allocate(ctx context.Context) (int64, error) {
	var next int64
	err := a.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var current int64
		snap, err := tx.Get(a.doc)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return fmt.Errorf("failed to read counter: %w", err)
		default:
			value, err := snap.DataAt("value")
			if err != nil {
				return fmt.Errorf("failed to read counter value: %w", err)
			}
			n, ok := value.(int64)
			if !ok {
				return fmt.Errorf("counter value has unexpected type %T", value)
			}
			current = n
		}

		next = current + 1
		return tx.Set(a.doc, map[string]interface{}{
			"value":     next,
			"updatedAt": firestore.ServerTimestamp,
		})
	})
	if err != nil {
		return 0, fmt.Errorf("%w: firestore counter %s: %v", ErrAllocation, a.doc.Path, err)
	}
	return next, nil
}
