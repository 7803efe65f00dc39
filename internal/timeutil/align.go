// Package timeutil aligns instants to minute-modulo windows.
package timeutil

import (
	"time"

	"github.com/livetocode/vehicle-fleet-poc/internal/engineerr"
)

// Align truncates instant down to the nearest minute divisible by
// moduloMinutes (seconds and sub-seconds zeroed) and returns that as
// lower, with upper = lower + moduloMinutes. lower <= instant < upper.
func Align(instant time.Time, moduloMinutes int) (lower, upper time.Time, err error) {
	if moduloMinutes == 0 {
		return time.Time{}, time.Time{}, engineerr.New(engineerr.InvalidArgument, "align: modulo_minutes must be non-zero")
	}
	instant = instant.UTC()
	truncated := instant.Truncate(time.Minute)
	minutesSinceMidnight := truncated.Hour()*60 + truncated.Minute()
	rem := minutesSinceMidnight % moduloMinutes
	lower = truncated.Add(-time.Duration(rem) * time.Minute)
	upper = lower.Add(time.Duration(moduloMinutes) * time.Minute)
	return lower, upper, nil
}

// Format renders an aligned instant as the `YYYY-MM-DD-HH-MM` string the
// partition key and predicate pushdown both rely on sorting lexicographically.
func Format(t time.Time) string {
	return t.UTC().Format("2006-01-02-15-04")
}
