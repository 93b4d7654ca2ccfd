package activity

import (
	"fmt"
	"time"
)

// RelativeTime renders a timestamp relative to now. Boundaries are exact:
// 59s is "Just now", 60s is "1m ago", 3599s is "59m ago", 3600s is "1h ago".
// Anything a week or more old falls back to an absolute short date.
func RelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	if diff < 0 {
		diff = 0
	}

	seconds := int64(diff.Seconds())
	switch {
	case seconds < 60:
		return "Just now"
	case seconds < 3600:
		return fmt.Sprintf("%dm ago", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%dh ago", seconds/3600)
	case seconds < 604800:
		return fmt.Sprintf("%dd ago", seconds/86400)
	default:
		return t.Format("Jan 2, 2006")
	}
}
