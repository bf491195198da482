package simclock

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidInstant reports calendar input that does not name a real instant.
var ErrInvalidInstant = errors.New("invalid instant")

// NewInstant builds a UTC instant from calendar fields. Unlike time.Date it
// rejects out-of-range fields instead of normalizing them, so 2023-02-30 is
// an error rather than March 2nd.
func NewInstant(year int, month time.Month, day, hour, min, sec, nsec int) (time.Time, error) {
	switch {
	case month < time.January || month > time.December:
		return time.Time{}, fmt.Errorf("%w: month %d", ErrInvalidInstant, month)
	case day < 1 || day > daysIn(year, month):
		return time.Time{}, fmt.Errorf("%w: day %d of %04d-%02d", ErrInvalidInstant, day, year, month)
	case hour < 0 || hour > 23:
		return time.Time{}, fmt.Errorf("%w: hour %d", ErrInvalidInstant, hour)
	case min < 0 || min > 59:
		return time.Time{}, fmt.Errorf("%w: minute %d", ErrInvalidInstant, min)
	case sec < 0 || sec > 59:
		return time.Time{}, fmt.Errorf("%w: second %d", ErrInvalidInstant, sec)
	case nsec < 0 || nsec > 999_999_999:
		return time.Time{}, fmt.Errorf("%w: nanosecond %d", ErrInvalidInstant, nsec)
	}
	return time.Date(year, month, day, hour, min, sec, nsec, time.UTC), nil
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// instantLayouts are tried in order; layouts without a zone are read as UTC.
var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseInstant parses RFC 3339 or a bare YYYY-MM-DD[THH:MM[:SS]] date in UTC.
// The literal "now" is not accepted here; callers resolve it against their clock.
func ParseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidInstant)
	}
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q is not RFC 3339 or YYYY-MM-DD[THH:MM[:SS]]", ErrInvalidInstant, s)
}
