package projection

import (
	"fmt"
	"math"
)

// FormatClock renders seconds as H:MM:SS after truncating to whole seconds.
// Hours are not zero-padded and are never folded into days.
func FormatClock(seconds float64) string {
	total := wholeSeconds(seconds)
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

func wholeSeconds(seconds float64) int64 {
	if seconds <= 0 || math.IsNaN(seconds) {
		return 0
	}
	return int64(seconds)
}

// cueTimestamp renders HH:MM:SS<sep>mmm rounded to the nearest millisecond.
func cueTimestamp(seconds float64, sep byte) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	ms := int64(seconds*1000 + 0.5)
	hours := ms / 3_600_000
	ms %= 3_600_000
	minutes := ms / 60_000
	ms %= 60_000
	secs := ms / 1_000
	millis := ms % 1_000
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", hours, minutes, secs, sep, millis)
}
