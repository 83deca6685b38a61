// Package formatting converts byte sizes and progress ratios to and from the
// human-readable forms used in configuration and logs.
package formatting

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var units = []string{"B", "KB", "MB", "GB", "TB", "PB"}

var sizePattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([A-Za-z]*)$`)

// FormatBytes renders n with base-1024 units at the given precision.
func FormatBytes(n int64, precision int) string {
	if n < 1024 {
		return strconv.FormatInt(n, 10) + " B"
	}

	precision = max(precision, 0)
	value, exp := float64(n), 0
	for value >= 1024 && exp < len(units)-1 {
		value /= 1024
		exp++
	}

	return strconv.FormatFloat(value, 'f', precision, 64) + " " + units[exp]
}

// ParseBytes reads sizes such as "50MB", "1.5 GB", or "2048". Units are
// base-1024 and case-insensitive; a bare number is bytes.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size")
	}

	m := sizePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size number: %w", err)
	}

	unit := strings.ToUpper(m[2])
	if unit == "" {
		return int64(value), nil
	}

	exp := slices.Index(units, unit)
	if exp < 0 {
		return 0, fmt.Errorf("unknown byte size unit: %q", m[2])
	}

	return int64(value * math.Pow(1024, float64(exp))), nil
}
