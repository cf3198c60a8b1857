package library

import (
	"fmt"
	"math"
	"time"

	"summarizer/pkg/narration"
)

// FormatDate renders how long ago an item was added.
func FormatDate(t, now time.Time) string {
	diff := now.Sub(t)
	if diff < 0 {
		diff = -diff
	}
	days := int(math.Ceil(diff.Hours() / 24))

	switch {
	case days <= 1:
		return "Today"
	case days == 2:
		return "Yesterday"
	case days <= 7:
		return fmt.Sprintf("%d days ago", days-1)
	}
	return t.Format("Jan 2, 2006")
}

// FormatDuration renders an estimated duration in seconds as m:ss.
func FormatDuration(seconds int) string {
	return narration.FormatTime(time.Duration(seconds) * time.Second)
}
