package documents

import (
	"fmt"

	"github.com/JaimeStill/scribe/internal/jobs"
)

// Intake errors. All are validation failures raised before any upload.
var (
	ErrNoFile          = fmt.Errorf("%w: no file selected", jobs.ErrValidation)
	ErrEmptyFile       = fmt.Errorf("%w: file is empty", jobs.ErrValidation)
	ErrFileTooLarge    = fmt.Errorf("%w: file exceeds maximum upload size", jobs.ErrValidation)
	ErrUnsupportedType = fmt.Errorf("%w: unsupported file type", jobs.ErrValidation)
)
