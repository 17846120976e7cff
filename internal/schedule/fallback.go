package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// FallbackParser resolves loosely-formatted natural date/time phrases against
// the slot catalog. It is a best-effort net behind the extraction service: it
// reports no match rather than guessing when the resolved time is not a
// catalog slot. Ambiguous dates resolve to DefaultYear.
type FallbackParser struct {
	DefaultYear int
}

var (
	clockTimeRE   = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))(?::(\d{2}))?\s*(am|pm)?\b`)
	meridiemRE    = regexp.MustCompile(`(?i)\b(\d{1,2})\s*(am|pm)\b`)
	isoDateRE     = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	dayMonthRE    = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(january|february|march|april|may|june|july|august|september|october|november|december)(?:\s+(\d{4}))?\b`)
	monthDayRE    = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s+(\d{4}))?\b`)
)

var monthNumbers = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4,
	"may": 5, "june": 6, "july": 7, "august": 8,
	"september": 9, "october": 10, "november": 11, "december": 12,
}

// Parse extracts a (date, slot time) pair from free text. ok is false when no
// catalog slot can be resolved. A text carrying a slot time but no date
// resolves to January 1 of DefaultYear, mirroring the fixed-default
// convention for ambiguous input.
func (p FallbackParser) Parse(text string) (date, tm string, ok bool) {
	tm, ok = p.parseSlotTime(text)
	if !ok {
		return "", "", false
	}

	year := p.DefaultYear
	if year <= 0 {
		year = 2025
	}
	month, day := 1, 1

	switch {
	case isoDateRE.MatchString(text):
		m := isoDateRE.FindStringSubmatch(text)
		year = atoi(m[1])
		month = atoi(m[2])
		day = atoi(m[3])
	case dayMonthRE.MatchString(text):
		m := dayMonthRE.FindStringSubmatch(text)
		day = atoi(m[1])
		month = monthNumbers[strings.ToLower(m[2])]
		if m[3] != "" {
			year = atoi(m[3])
		}
	case monthDayRE.MatchString(text):
		m := monthDayRE.FindStringSubmatch(text)
		month = monthNumbers[strings.ToLower(m[1])]
		day = atoi(m[2])
		if m[3] != "" {
			year = atoi(m[3])
		}
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), tm, true
}

// parseSlotTime resolves a time mention to a catalog slot value.
func (p FallbackParser) parseSlotTime(text string) (string, bool) {
	if m := clockTimeRE.FindStringSubmatch(text); m != nil {
		hour := atoi(m[1])
		minute := atoi(m[2])
		hour = applyMeridiem(hour, m[4])
		candidate := fmt.Sprintf("%02d:%02d:00", hour, minute)
		if ValidateTime(candidate) {
			return candidate, true
		}
	}
	if m := meridiemRE.FindStringSubmatch(text); m != nil {
		hour := applyMeridiem(atoi(m[1]), m[2])
		candidate := fmt.Sprintf("%02d:00:00", hour)
		if ValidateTime(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func applyMeridiem(hour int, meridiem string) int {
	switch strings.ToLower(meridiem) {
	case "pm":
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	return hour
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
