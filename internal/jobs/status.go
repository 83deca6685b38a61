package jobs

import (
	"fmt"
	"slices"
)

// Status is the backend's report of where a job is in its pipeline.
type Status string

// Status values accepted from the backend. Any other value is rejected by ParseStatus.
const (
	StatusUploaded             Status = "uploaded"
	StatusProcessing           Status = "processing"
	StatusReadyForReview       Status = "ready_for_review"
	StatusGeneratingReport     Status = "generating_report"
	StatusCompleted            Status = "completed"
	StatusCompletedWithWarning Status = "completed_with_warning"
	StatusError                Status = "error"
)

var statuses = []Status{
	StatusUploaded,
	StatusProcessing,
	StatusReadyForReview,
	StatusGeneratingReport,
	StatusCompleted,
	StatusCompletedWithWarning,
	StatusError,
}

// ParseStatus validates a raw status string against the closed vocabulary.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !slices.Contains(statuses, status) {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return status, nil
}

// Succeeded reports whether the job finished producing its report.
func (s Status) Succeeded() bool {
	return s == StatusCompleted || s == StatusCompletedWithWarning
}

// Failed reports whether the backend gave up on the job.
func (s Status) Failed() bool {
	return s == StatusError
}

// Terminal reports whether polling stops once this status is observed.
func (s Status) Terminal() bool {
	return s == StatusReadyForReview || s.Succeeded() || s.Failed()
}

// JobStatus is a single status observation fetched from the backend.
// FinalOutput is only populated once the report has been generated.
type JobStatus struct {
	Status         Status  `json:"status"`
	Message        string  `json:"message"`
	Progress       float64 `json:"progress"`
	CurrentStage   string  `json:"current_stage"`
	TotalPages     int     `json:"total_pages"`
	ProcessedPages int     `json:"processed_pages"`
	FinalOutput    *string `json:"final_output,omitempty"`
}
