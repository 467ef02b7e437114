package domain

import (
	"time"

	"github.com/google/uuid"
)

// Export statuses.
const (
	ExportSucceeded = "succeeded"
	ExportFailed    = "failed"
)

// ExportRecord describes one finished export attempt. The CV content itself
// is never stored; only what was produced and where it went.
type ExportRecord struct {
	ID         uuid.UUID              `json:"id"`
	SessionID  uuid.UUID              `json:"session_id"`
	TemplateID int                    `json:"template_id"`
	Status     string                 `json:"status"`
	FileName   string                 `json:"file_name"`
	FilePath   string                 `json:"file_path"`
	FileSize   int                    `json:"file_size"`
	Shared     bool                   `json:"shared"`
	Error      string                 `json:"error,omitempty"`
	Metadata   map[string]interface{} `json:"metadata"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
}
