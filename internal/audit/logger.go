// Package audit records one outcome entry per job in the metadata store.
// Writes are best-effort: failures are logged and never reach the caller.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Lllllllleong/pagetransfer/internal/models"
)

// ErrAuditWrite wraps failures inside the audit store. It never leaves this package
// except through logs.
var ErrAuditWrite = errors.New("audit write failed")

const defaultWriteTimeout = 10 * time.Second

// Inserter appends one entry to a named table or collection.
type Inserter interface {
	Insert(ctx context.Context, table string, entry *models.AuditLogEntry) error
}

// Logger writes audit entries through an Inserter.
type Logger struct {
	store   Inserter
	table   string
	timeout time.Duration
}

// NewLogger returns a Logger; a nil store turns Record into a no-op.
func NewLogger(store Inserter, table string) *Logger {
	return &Logger{store: store, table: table, timeout: defaultWriteTimeout}
}

// Record writes entry. It detaches from ctx cancellation so that an aborted
// request still gets its audit entry, and it swallows every failure.
func (l *Logger) Record(ctx context.Context, entry models.AuditLogEntry) {
	if l == nil || l.store == nil {
		return
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	if err := l.write(context.WithoutCancel(ctx), &entry); err != nil {
		slog.Error("Failed to write audit entry.",
			"error", err,
			"table", l.table,
			"status", entry.Status,
			"originalFilename", entry.OriginalFilename,
		)
	}
}

func (l *Logger) write(ctx context.Context, entry *models.AuditLogEntry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrAuditWrite, r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	if err := l.store.Insert(ctx, l.table, entry); err != nil {
		return fmt.Errorf("%w: %v", ErrAuditWrite, err)
	}
	return nil
}
