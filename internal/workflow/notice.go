package workflow

import (
	"errors"
	"time"

	"github.com/JaimeStill/scribe/internal/jobs"
)

// Level classifies a Notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is the most recent outcome surfaced to the user.
type Notice struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Class   string    `json:"class,omitempty"`
	At      time.Time `json:"at"`
}

func notice(level Level, message string) *Notice {
	return &Notice{Level: level, Message: message, At: time.Now()}
}

func failure(err error) *Notice {
	n := notice(LevelError, err.Error())
	n.Class = classify(err)
	return n
}

func classify(err error) string {
	switch {
	case errors.Is(err, jobs.ErrValidation):
		return "validation"
	case errors.Is(err, jobs.ErrTransport):
		return "transport"
	case errors.Is(err, jobs.ErrRemoteJob):
		return "remote_job"
	default:
		return ""
	}
}
