// Package jobs models a remote document-processing job as the client sees it:
// the closed backend status vocabulary, the local workflow stages, and the
// error classes shared by the components that drive a job.
package jobs

import "time"

// Job is the local mirror of a backend job. It is created when an upload is
// acknowledged and afterwards only changes through Apply.
type Job struct {
	ID             string    `json:"id"`
	Status         Status    `json:"status,omitempty"`
	Progress       float64   `json:"progress"`
	Message        string    `json:"message"`
	CurrentStage   string    `json:"current_stage"`
	TotalPages     int       `json:"total_pages"`
	ProcessedPages int       `json:"processed_pages"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// New creates a Job for an acknowledged backend identifier.
func New(id string) *Job {
	return &Job{
		ID:        id,
		Status:    StatusUploaded,
		UpdatedAt: time.Now(),
	}
}

// Apply ingests a status observation. Progress is clamped to [0,1] and the
// processed page count never exceeds the total.
func (j *Job) Apply(st JobStatus) {
	j.Status = st.Status
	j.Message = st.Message
	j.CurrentStage = st.CurrentStage
	j.Progress = min(max(st.Progress, 0), 1)
	j.TotalPages = max(st.TotalPages, 0)
	j.ProcessedPages = min(max(st.ProcessedPages, 0), j.TotalPages)
	j.UpdatedAt = time.Now()
}

// Clone returns a copy safe to hand to readers.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	c := *j
	return &c
}
