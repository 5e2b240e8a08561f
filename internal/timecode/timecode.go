package timecode

import "fmt"

func split(seconds float64) (h, m, s int) {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return total / 3600, (total % 3600) / 60, total % 60
}

// FormatTimestamp renders seconds as HH_MM_SS for use in filenames
func FormatTimestamp(seconds float64) string {
	h, m, s := split(seconds)
	return fmt.Sprintf("%02d_%02d_%02d", h, m, s)
}

// FormatDisplay renders seconds as M:SS, or H:MM:SS from one hour on
func FormatDisplay(seconds float64) string {
	h, m, s := split(seconds)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
