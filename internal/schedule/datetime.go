package schedule

import (
	"regexp"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var plainDateRE = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Normalize canonicalizes an extracted date string. Values carrying a time
// component ("2025-05-20T09:00:00") are reduced to the calendar date; plain
// dates pass through unchanged; anything else is rejected.
func Normalize(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if idx := strings.IndexByte(raw, 'T'); idx > 0 {
		if t, err := time.Parse("2006-01-02T15:04:05", raw); err == nil {
			return t.Format(dateLayout), true
		}
		raw = raw[:idx]
	}
	if plainDateRE.MatchString(raw) {
		if _, err := time.Parse(dateLayout, raw); err == nil {
			return raw, true
		}
	}
	return "", false
}

// Validator checks date/time pairs against the catalog and the calendar.
// Now is injectable so tests can pin the current date.
type Validator struct {
	Now func() time.Time
}

func (v Validator) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

// ValidateDateTime reports whether date parses as a calendar date and tm is a
// catalog slot. Past dates are rejected unless the intent is a cancellation;
// canceling a historical booking is allowed.
func (v Validator) ValidateDateTime(date, tm, intent string) bool {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return false
	}
	if !ValidateTime(tm) {
		return false
	}
	if intent != "cancel" {
		today := v.now()
		todayMidnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
		if d.Before(todayMidnight) {
			return false
		}
	}
	return true
}
