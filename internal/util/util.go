package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron"
)

var durationUnits = []struct {
	size time.Duration
	name string
}{
	{time.Hour, "hour"},
	{time.Minute, "minute"},
	{time.Second, "second"},
}

// FormatDuration renders a poll interval or cycle duration for log messages,
// e.g. "1 hour, 2 minutes" or "350 milliseconds".
//
// Parameters:
//   - duration: Interval or elapsed time.
//
// Returns:
//   - string: Readable duration, "0 seconds" when zero or negative.
func FormatDuration(duration time.Duration) string {
	if duration < time.Second {
		if ms := duration.Milliseconds(); ms > 0 {
			return countOf(ms, "millisecond")
		}

		return "0 seconds"
	}

	remaining := duration.Truncate(time.Second)
	parts := make([]string, 0, len(durationUnits))

	for _, unit := range durationUnits {
		if n := int64(remaining / unit.size); n > 0 {
			parts = append(parts, countOf(n, unit.name))
			remaining -= time.Duration(n) * unit.size
		}
	}

	return strings.Join(parts, ", ")
}

// DescribeSchedule renders a cron spec for the startup summary. Fixed-delay
// specs such as "@every 3600s" become "every 1 hour"; anything else is quoted.
func DescribeSchedule(spec string) string {
	schedule, err := cron.Parse(spec)
	if err != nil {
		return fmt.Sprintf("on invalid schedule %q", spec)
	}

	if every, ok := schedule.(cron.ConstantDelaySchedule); ok {
		return "every " + FormatDuration(every.Delay)
	}

	return fmt.Sprintf("on cron schedule %q", spec)
}

// LockName joins the non-empty compose identifiers naming an instance lock.
func LockName(parts ...string) string {
	named := make([]string, 0, len(parts))

	for _, part := range parts {
		if part != "" {
			named = append(named, part)
		}
	}

	return strings.Join(named, "_")
}

func countOf(n int64, unit string) string {
	if n == 1 {
		return "1 " + unit
	}

	return fmt.Sprintf("%d %ss", n, unit)
}
