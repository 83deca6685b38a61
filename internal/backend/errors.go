package backend

import (
	"fmt"

	"github.com/JaimeStill/scribe/internal/jobs"
)

// TransportError describes a failed call to the job engine: either the request
// never completed (Err set) or the engine answered with a non-2xx status.
type TransportError struct {
	Op         string
	StatusCode int
	Detail     string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Detail)
	default:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is matches jobs.ErrTransport so callers need not know the concrete type.
func (e *TransportError) Is(target error) bool {
	return target == jobs.ErrTransport
}
