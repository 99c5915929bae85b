// Package timeutil holds the date arithmetic shared by the scheduler
// and the validator. Everything that compares intervals goes through
// NormalizeRange so overnight shifts are handled identically everywhere.
package timeutil

import (
	"strconv"
	"strings"
	"time"
)

// Block is an occupied time span, already range-normalized.
type Block struct {
	Start time.Time
	End   time.Time
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

// ParseTimestamp parses a full timestamp in any accepted layout.
func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseDate parses a calendar day in any accepted layout.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Combine builds an absolute instant from a calendar date and a
// time-of-day. If clock is already a full timestamp it is used
// verbatim. Otherwise clock is read as colon-separated hour and minute
// (minutes default to 0 when absent) and applied to the parsed date.
// Returns ok=false when neither input parses.
func Combine(date, clock string) (time.Time, bool) {
	if t, ok := ParseTimestamp(clock); ok {
		return t, true
	}

	day, ok := ParseDate(date)
	if !ok {
		return time.Time{}, false
	}

	parts := strings.SplitN(strings.TrimSpace(clock), ":", 3)
	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, false
	}
	minute := 0
	if len(parts) > 1 {
		minute, err = strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil || minute < 0 || minute > 59 {
			return time.Time{}, false
		}
	}

	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute), true
}

// NormalizeRange applies the single overnight-wraparound rule: an end
// at or before the start is read as spanning into the next day. Returns
// ok=false when either endpoint is the zero instant (failed parse).
func NormalizeRange(start, end time.Time) (time.Time, time.Time, bool) {
	if start.IsZero() || end.IsZero() {
		return time.Time{}, time.Time{}, false
	}
	if !end.After(start) {
		end = end.Add(24 * time.Hour)
	}
	return start, end, true
}

// HoursBetween is the duration of the normalized range in hours,
// 0 when the range is invalid.
func HoursBetween(start, end time.Time) float64 {
	s, e, ok := NormalizeRange(start, end)
	if !ok {
		return 0
	}
	return e.Sub(s).Hours()
}

// Overlaps reports whether the candidate interval strictly intersects
// any existing block, using half-open intersection. A malformed block
// (end still not after start) never overlaps anything; dropping it is
// the safe default rather than an error.
func Overlaps(blocks []Block, start, end time.Time) bool {
	s, e, ok := NormalizeRange(start, end)
	if !ok {
		return false
	}
	for _, b := range blocks {
		if !b.End.After(b.Start) {
			continue
		}
		if s.Before(b.End) && b.Start.Before(e) {
			return true
		}
	}
	return false
}
