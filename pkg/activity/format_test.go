package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRelativeTimeBoundaries(t *testing.T) {
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		ago  time.Duration
		want string
	}{
		{"zero", 0, "Just now"},
		{"just under a minute", 59 * time.Second, "Just now"},
		{"exactly a minute", 60 * time.Second, "1m ago"},
		{"just under an hour", 3599 * time.Second, "59m ago"},
		{"exactly an hour", 3600 * time.Second, "1h ago"},
		{"just under a day", 86399 * time.Second, "23h ago"},
		{"exactly a day", 86400 * time.Second, "1d ago"},
		{"just under a week", 604799 * time.Second, "6d ago"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RelativeTime(now.Add(-tc.ago), now))
		})
	}
}

func TestRelativeTimeFallsBackToDate(t *testing.T) {
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	weekOld := now.Add(-604800 * time.Second)

	assert.Equal(t, "Mar 7, 2026", RelativeTime(weekOld, now))
}

func TestRelativeTimeClampsFutureTimestamps(t *testing.T) {
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "Just now", RelativeTime(now.Add(5*time.Minute), now))
}
