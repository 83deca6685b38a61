package pages

import (
	"errors"
	"fmt"

	"github.com/JaimeStill/scribe/internal/jobs"
)

var (
	// ErrPageOutOfRange rejects navigation outside [1, total pages].
	ErrPageOutOfRange = fmt.Errorf("%w: page out of range", jobs.ErrValidation)
	// ErrNoPage rejects edits and saves when no page is resident.
	ErrNoPage = fmt.Errorf("%w: no page loaded", jobs.ErrValidation)
	// ErrInvalidMode rejects an unknown edit mode.
	ErrInvalidMode = fmt.Errorf("%w: invalid edit mode", jobs.ErrValidation)
	// ErrNotBound indicates the cache has no job to load pages for.
	ErrNotBound = errors.New("page cache not bound to a job")
	// ErrSuperseded indicates a load finished after a newer load or a reset.
	ErrSuperseded = errors.New("page load superseded")
	// ErrImageDecode indicates the page image payload could not be decoded.
	ErrImageDecode = errors.New("page image decode failed")
)
