package workflow

import (
	"slices"

	"github.com/JaimeStill/scribe/internal/jobs"
	"github.com/JaimeStill/scribe/internal/pages"
	"github.com/JaimeStill/scribe/internal/report"
	"github.com/JaimeStill/scribe/internal/transform"
)

// Artifact is a file the session wrote to artifact storage.
type Artifact struct {
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Snapshot is a point-in-time copy of a Session for the presentation layer.
type Snapshot struct {
	SessionID string           `json:"session_id"`
	Version   uint64           `json:"version"`
	Stage     jobs.Stage       `json:"stage"`
	Job       *jobs.Job        `json:"job,omitempty"`
	Page      *pages.Record    `json:"page,omitempty"`
	EditMode  pages.Mode       `json:"edit_mode"`
	Loading   bool             `json:"loading"`
	Saving    bool             `json:"saving"`
	Transform transform.State  `json:"transform"`
	Report    *report.Snapshot `json:"report,omitempty"`
	Notice    *Notice          `json:"notice,omitempty"`
	Polling   bool             `json:"polling"`
	Artifacts []Artifact       `json:"artifacts,omitempty"`
}

func (s *Session) snapshotLocked() Snapshot {
	var n *Notice
	if s.notice != nil {
		c := *s.notice
		n = &c
	}

	return Snapshot{
		SessionID: s.id,
		Version:   s.version,
		Stage:     s.stage,
		Job:       s.job.Clone(),
		Page:      s.cache.Current(),
		EditMode:  s.cache.Mode(),
		Loading:   s.cache.Loading(),
		Saving:    s.saving > 0,
		Transform: s.transform,
		Report:    s.report.Snapshot(),
		Notice:    n,
		Artifacts: slices.Clone(s.artifacts),
	}
}
