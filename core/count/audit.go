package count

import (
	"context"
	"time"
)

// Audit actions
const (
	AuditCreate = "create"
	AuditUpdate = "update"
	AuditDelete = "delete"
)

// AuditEntry is one line of the append-only count history.
type AuditEntry struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Action    string    `json:"action" db:"action"`
	CountID   string    `json:"count_id" db:"count_id"`
	Message   string    `json:"message" db:"message"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
}

type AuditRecorder interface {
	RecordAudit(ctx context.Context, entry AuditEntry) error
}
