package jobs_test

import (
	"errors"
	"testing"

	"github.com/JaimeStill/scribe/internal/jobs"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input    string
		terminal bool
		wantErr  bool
	}{
		{"uploaded", false, false},
		{"processing", false, false},
		{"ready_for_review", true, false},
		{"generating_report", false, false},
		{"completed", true, false},
		{"completed_with_warning", true, false},
		{"error", true, false},
		{"", false, true},
		{"COMPLETED", false, true},
		{"cancelled", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			status, err := jobs.ParseStatus(tt.input)
			if tt.wantErr {
				if !errors.Is(err, jobs.ErrUnknownStatus) || !errors.Is(err, jobs.ErrRemoteJob) {
					t.Fatalf("error: got %v, want ErrUnknownStatus", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if status.Terminal() != tt.terminal {
				t.Errorf("terminal: got %v, want %v", status.Terminal(), tt.terminal)
			}
		})
	}
}

func TestStageTransitions(t *testing.T) {
	tests := []struct {
		name string
		from jobs.Stage
		to   jobs.Stage
		want bool
	}{
		{"idle to uploading", jobs.StageIdle, jobs.StageUploading, true},
		{"awaiting to complete", jobs.StageAwaitingOcr, jobs.StageComplete, true},
		{"reviewing to generating", jobs.StageReviewing, jobs.StageGeneratingReport, true},
		{"backwards", jobs.StageReviewing, jobs.StageAwaitingOcr, false},
		{"same stage", jobs.StageReviewing, jobs.StageReviewing, false},
		{"uploading fails", jobs.StageUploading, jobs.StageError, true},
		{"awaiting fails", jobs.StageAwaitingOcr, jobs.StageError, true},
		{"generating fails", jobs.StageGeneratingReport, jobs.StageError, true},
		{"reviewing cannot fail", jobs.StageReviewing, jobs.StageError, false},
		{"complete cannot fail", jobs.StageComplete, jobs.StageError, false},
		{"error is a dead end", jobs.StageError, jobs.StageComplete, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanAdvance(tt.to); got != tt.want {
				t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestStageText(t *testing.T) {
	text, err := jobs.StageAwaitingOcr.MarshalText()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(text) != "awaiting_ocr" {
		t.Errorf("text: got %s, want awaiting_ocr", text)
	}
}

func TestJobApplyClamps(t *testing.T) {
	job := jobs.New("job-1")

	job.Apply(jobs.JobStatus{
		Status:         jobs.StatusProcessing,
		Progress:       1.4,
		TotalPages:     3,
		ProcessedPages: 5,
		Message:        "OCR",
	})

	if job.Progress != 1 {
		t.Errorf("progress: got %v, want 1", job.Progress)
	}
	if job.ProcessedPages != 3 {
		t.Errorf("processed: got %d, want 3", job.ProcessedPages)
	}
	if job.Message != "OCR" || job.Status != jobs.StatusProcessing {
		t.Errorf("fields not applied: %+v", job)
	}

	job.Apply(jobs.JobStatus{Status: jobs.StatusProcessing, Progress: -0.5, TotalPages: -1, ProcessedPages: 2})
	if job.Progress != 0 || job.TotalPages != 0 || job.ProcessedPages != 0 {
		t.Errorf("negative clamp: %+v", job)
	}
}

func TestJobClone(t *testing.T) {
	var nilJob *jobs.Job
	if nilJob.Clone() != nil {
		t.Error("clone of nil should be nil")
	}

	job := jobs.New("job-1")
	c := job.Clone()
	c.Message = "changed"
	if job.Message == "changed" {
		t.Error("clone shares state with original")
	}
}
