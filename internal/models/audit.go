package models

import "time"

// Audit statuses.
const (
	AuditStatusSuccess = "success"
	AuditStatusFailed  = "failed"
)

// AuditLogEntry is the append-only record written once per job to the metadata store.
// Nullable columns are pointers so the SQL store writes NULL rather than zero values.
type AuditLogEntry struct {
	UserRef             string    `firestore:"userRef,omitempty" gorm:"column:user_ref"`
	ClassificationRef   string    `firestore:"classificationRef,omitempty" gorm:"column:classification_ref"`
	OriginalFilename    string    `firestore:"originalFilename,omitempty" gorm:"column:original_filename"`
	PageCount           int       `firestore:"pageCount" gorm:"column:page_count"`
	Status              string    `firestore:"status" gorm:"column:status"`
	ErrorMessage        *string   `firestore:"errorMessage" gorm:"column:error_message"`
	PayloadSnapshot     *string   `firestore:"payloadSnapshot" gorm:"column:payload_snapshot"`
	FirstPageIdentifier *int64    `firestore:"firstPageIdentifier" gorm:"column:first_page_identifier"`
	CreatedAt           time.Time `firestore:"createdAt" gorm:"column:created_at"`
}
