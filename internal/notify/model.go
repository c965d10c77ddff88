// Package notify stores and serves per-tenant notifications, such as
// completed statement exports.
package notify

import (
	"time"

	"github.com/google/uuid"
)

// Kind values for notifications.
const (
	KindExportReady  = "export.ready"
	KindExportFailed = "export.failed"
)

// Notification is one message for a tenant's activity feed.
type Notification struct {
	ID        int64      `json:"id"`
	TenantID  uuid.UUID  `json:"tenantId"`
	Kind      string     `json:"kind"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	FilePath  string     `json:"filePath,omitempty"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}
