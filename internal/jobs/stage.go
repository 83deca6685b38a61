package jobs

import "fmt"

// Stage is the local workflow position of a session.
// The chain is linear; Error is a side exit and Idle is only re-entered by reset.
type Stage int

const (
	StageIdle Stage = iota
	StageUploading
	StageAwaitingOcr
	StageReviewing
	StageGeneratingReport
	StageComplete
	StageError
)

var stageNames = map[Stage]string{
	StageIdle:             "idle",
	StageUploading:        "uploading",
	StageAwaitingOcr:      "awaiting_ocr",
	StageReviewing:        "reviewing",
	StageGeneratingReport: "generating_report",
	StageComplete:         "complete",
	StageError:            "error",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// MarshalText encodes the stage by name.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CanFail reports whether the Error stage is reachable from s.
func (s Stage) CanFail() bool {
	return s == StageUploading || s == StageAwaitingOcr || s == StageGeneratingReport
}

// CanAdvance reports whether moving from s to next respects the forward-only
// ordering of the chain. Reset back to Idle is not an advance and is always legal.
func (s Stage) CanAdvance(next Stage) bool {
	if next == StageError {
		return s.CanFail()
	}
	if s == StageError {
		return false
	}
	return next > s
}
