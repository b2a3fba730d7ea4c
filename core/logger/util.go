package logger

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Status maps an error to the status field: ok, cancelled, timeout or error.
func Status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	return "error"
}

// Took is RoundMS(time.Since(start)).
func Took(start time.Time) time.Duration {
	return RoundMS(time.Since(start))
}

// RoundMS rounds d to whole milliseconds; negative values become zero.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// Preview joins at most limit values with ", " and returns how many were
// left out.
func Preview(values []string, limit int) (string, int) {
	if limit < 0 {
		limit = 0
	}
	if len(values) <= limit {
		return strings.Join(values, ", "), 0
	}
	return strings.Join(values[:limit], ", "), len(values) - limit
}
