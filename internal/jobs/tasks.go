// Package jobs defines the background task queue for long-running
// statement exports.
package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// QueueDefault is the queue all statement tasks run on.
const QueueDefault = "default"

// TaskStatementExport renders a statement to a file and notifies the
// tenant when the file is ready.
const TaskStatementExport = "statements:export"

// Export formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

// StatementExportPayload describes one queued export.
type StatementExportPayload struct {
	JobID    uuid.UUID `json:"jobId"`
	TenantID uuid.UUID `json:"tenantId"`
	Report   string    `json:"report"`
	Format   string    `json:"format"`
	AsOf     time.Time `json:"asOf,omitempty"`
	From     time.Time `json:"from,omitempty"`
	To       time.Time `json:"to,omitempty"`
}

// NewStatementExportTask packs the payload into an Asynq task.
func NewStatementExportTask(payload StatementExportPayload) (*asynq.Task, error) {
	if payload.TenantID == uuid.Nil {
		return nil, fmt.Errorf("jobs: tenant id required")
	}
	if payload.Report == "" {
		return nil, fmt.Errorf("jobs: report required")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStatementExport, data, asynq.MaxRetry(3)), nil
}
