package models

import "time"

// Sync states for a publisher within one engine pass.
const (
	SyncPending   = "pending"
	SyncRunning   = "syncing"
	SyncCompleted = "completed"
	SyncFailed    = "failed"
)

// MSyncStatus represents the current synchronization status of a publisher.
type MSyncStatus struct {
	PublisherCode string    `json:"publisher_code"`
	Status        string    `json:"status"`
	RecordsMerged int       `json:"records_merged"`
	Watermark     string    `json:"watermark,omitempty"`
	Error         string    `json:"error,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// MRunReport summarizes one full sync pass over all publishers.
type MRunReport struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Publishers int       `json:"publishers"`
	Completed  int       `json:"completed"`
	Failed     int       `json:"failed"`
	Merged     int       `json:"records_merged"`
}
