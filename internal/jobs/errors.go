package jobs

import (
	"errors"
	"fmt"
)

// Error classes shared by every workflow component. Package-level sentinels
// elsewhere wrap one of these so callers can classify failures with errors.Is.
var (
	// ErrValidation marks a request rejected before any network call was issued.
	ErrValidation = errors.New("validation failed")
	// ErrTransport marks a network or HTTP failure talking to the backend.
	ErrTransport = errors.New("transport failure")
	// ErrRemoteJob marks a job the backend reported as failed.
	ErrRemoteJob = errors.New("remote job failed")
)

// ErrUnknownStatus is returned when the backend reports a status outside the
// closed Status vocabulary. It is fatal for the job.
var ErrUnknownStatus = fmt.Errorf("%w: unrecognized job status", ErrRemoteJob)
