package domain

import (
	"errors"
	"time"
)

// JobStatus enumerates the lifecycle of an article job.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Mode selects how much of the pipeline a job runs.
type Mode string

const (
	// ModeFull downloads and transcribes the selected video before drafting.
	ModeFull Mode = "1"
	// ModeTranscriptless skips download and transcription and drafts from
	// video metadata alone.
	ModeTranscriptless Mode = "2"
)

// ValidMode reports whether the submitted mode selector is known.
func ValidMode(m Mode) bool {
	return m == ModeFull || m == ModeTranscriptless
}

// Job is the persisted record of one topic-to-article run.
type Job struct {
	ID       string    `json:"id"`
	Topic    string    `json:"topic"`
	Mode     Mode      `json:"mode"`
	Status   JobStatus `json:"status"`
	Progress float64   `json:"progress"`
	Message  string    `json:"message"`
	Result   *Result   `json:"result,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Result is populated once, when a job completes.
type Result struct {
	Article    string           `json:"article"`
	WordCount  int              `json:"wordCount"`
	SavedPath  string           `json:"savedPath"`
	Keywords   []string         `json:"keywords"`
	Video      VideoRef         `json:"video"`
	Validation ValidationReport `json:"validation"`
}

// VideoRef records which video the article was produced from.
type VideoRef struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Duration int    `json:"duration"`
}

// Sentinel errors shared across stores and the orchestrator.
var (
	// ErrNotFound marks a job id that was never submitted or has expired
	// out of the store.
	ErrNotFound = errors.New("job not found")
	// ErrStoreUnavailable marks a persistence layer that cannot be reached.
	ErrStoreUnavailable = errors.New("job store unavailable")
)
