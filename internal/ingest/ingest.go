package ingest

import (
	"time"
)

// Run statuses.
const (
	StatusRunning   = "RUNNING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// Run summarizes one batch import.
type Run struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Status     string     `json:"status"`
	Requested  int        `json:"requested"`
	Imported   int        `json:"imported"`
	Skipped    int        `json:"skipped"`
	NotFound   int        `json:"not_found"`
	Failed     int        `json:"failed"`
	Error      string     `json:"error,omitempty"`
}
