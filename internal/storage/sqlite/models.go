package sqlite

import "time"

// Run statuses
const (
	RunStatusPending   = "pending"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// RunRecord represents one transcription run
type RunRecord struct {
	ID         string    `json:"id"`
	SourcePath string    `json:"source_path"`
	DestPath   string    `json:"dest_path"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	FullText   string    `json:"full_text,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SegmentRecord represents one per-segment result within a run
type SegmentRecord struct {
	RunID       string  `json:"run_id"`
	Index       int     `json:"index"`
	StartSec    float64 `json:"start_sec"`
	DurationSec float64 `json:"duration_sec"`
	Text        string  `json:"text"`
}
