// Package schedule computes due times for backup definitions. Every
// timestamp is derived in UTC so persisted schedules stay comparable
// across restarts on hosts with different local zones.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseTimeOfDay parses an "HH:MM" 24-hour clock value.
func ParseTimeOfDay(s string) (hour, min int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("time of day %q is not HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("time of day %q has invalid hour", s)
	}
	min, err = strconv.Atoi(parts[1])
	if err != nil || min < 0 || min > 59 {
		return 0, 0, fmt.Errorf("time of day %q has invalid minute", s)
	}
	return hour, min, nil
}

// FirstDue returns the first due time for a freshly created definition:
// today at timeOfDay if that is still strictly in the future, otherwise
// tomorrow at timeOfDay. A time-of-day exactly equal to now counts as
// already occurred and goes to tomorrow.
func FirstDue(now time.Time, timeOfDay string) (time.Time, error) {
	hour, min, err := ParseTimeOfDay(timeOfDay)
	if err != nil {
		return time.Time{}, err
	}
	now = now.UTC()
	due := time.Date(now.Year(), now.Month(), now.Day(), hour, min, 0, 0, time.UTC)
	if !due.After(now) {
		due = due.AddDate(0, 0, 1)
	}
	return due, nil
}

// SeedLastRun is the last-run sentinel for a definition that has never
// fired: one day before creation.
func SeedLastRun(now time.Time) time.Time {
	return now.UTC().Add(-24 * time.Hour)
}

// NextDue advances lastDue by whole intervals until it lands strictly
// after now, preserving the schedule's phase across downtime.
func NextDue(lastDue time.Time, interval time.Duration, now time.Time) time.Time {
	if interval <= 0 {
		return lastDue
	}
	now = now.UTC()
	next := lastDue.UTC().Add(interval)
	if next.After(now) {
		return next
	}
	behind := now.Sub(next)
	steps := behind/interval + 1
	return next.Add(steps * interval)
}
