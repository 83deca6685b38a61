package formatting

import "strconv"

// FormatProgress renders a ratio in [0,1] as a whole percentage.
// Values outside the range are clamped.
func FormatProgress(ratio float64) string {
	ratio = min(max(ratio, 0), 1)
	return strconv.Itoa(int(ratio*100+0.5)) + "%"
}
