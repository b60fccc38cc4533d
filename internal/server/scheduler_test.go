package server

import (
	"testing"
	"time"
)

func TestIsDue(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 30, 0, 0, time.UTC)
	hourAgo := now.Add(-time.Hour)
	dayAgo := now.Add(-25 * time.Hour)
	justNow := now.Add(-time.Minute)

	cases := []struct {
		name string
		cron string
		last *time.Time
		want bool
	}{
		{"hourly never ran", "@hourly", nil, true},
		{"hourly due", "@hourly", &hourAgo, true},
		{"hourly not due", "@hourly", &justNow, false},
		{"daily due", "@daily", &dayAgo, true},
		{"daily not due", "@daily", &hourAgo, false},
		{"cron never ran", "*/15 * * * *", nil, true},
		{"cron due", "*/15 * * * *", &hourAgo, true},
		{"cron not due", "0 0 1 1 *", &justNow, false},
		{"invalid cron treated as daily", "not a cron", &dayAgo, true},
		{"invalid cron not due", "not a cron", &hourAgo, false},
	}
	for _, tc := range cases {
		if got := isDue(tc.cron, tc.last, now); got != tc.want {
			t.Errorf("%s: isDue(%q) = %v, want %v", tc.name, tc.cron, got, tc.want)
		}
	}
}
