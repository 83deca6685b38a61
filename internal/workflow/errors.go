package workflow

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/JaimeStill/scribe/internal/documents"
	"github.com/JaimeStill/scribe/internal/jobs"
	"github.com/JaimeStill/scribe/internal/pages"
)

var (
	// ErrInvalidTransition rejects an operation issued in the wrong stage.
	ErrInvalidTransition = errors.New("operation not valid in current stage")
	// ErrSessionReset indicates the session was reset while the operation was in flight.
	// Its result was discarded.
	ErrSessionReset = errors.New("session reset during operation")
	// ErrReportUnavailable indicates no report text has been fetched yet.
	ErrReportUnavailable = errors.New("report not available")
	// ErrPendingChanges blocks report generation while page work is unsettled.
	ErrPendingChanges = fmt.Errorf("%w: page has unsaved edits or a load or save in flight", jobs.ErrValidation)
	// ErrBusy rejects a request while the same request is already in flight.
	ErrBusy = fmt.Errorf("%w: operation already in progress", jobs.ErrValidation)
	// ErrUnsupportedDownload rejects a download kind the engine does not offer.
	ErrUnsupportedDownload = fmt.Errorf("%w: unsupported download type", jobs.ErrValidation)
)

func invalidTransition(op string, stage jobs.Stage) error {
	return fmt.Errorf("%w: %s in %s", ErrInvalidTransition, op, stage)
}

// MapHTTPStatus maps workflow errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, documents.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, documents.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, pages.ErrPageOutOfRange), errors.Is(err, ErrPendingChanges):
		return http.StatusUnprocessableEntity
	case errors.Is(err, jobs.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrSessionReset),
		errors.Is(err, ErrReportUnavailable),
		errors.Is(err, pages.ErrSuperseded),
		errors.Is(err, pages.ErrNotBound):
		return http.StatusConflict
	case errors.Is(err, jobs.ErrTransport):
		return http.StatusBadGateway
	case errors.Is(err, jobs.ErrRemoteJob):
		return http.StatusFailedDependency
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
