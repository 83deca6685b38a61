package pages

import "fmt"

// Mode selects which text variant of a page is edited and saved.
type Mode string

const (
	ModeTranslated Mode = "translated"
	ModeRaw        Mode = "raw"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeTranslated, ModeRaw:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}
