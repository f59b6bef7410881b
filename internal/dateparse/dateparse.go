// Package dateparse provides natural language date parsing.
package dateparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Parse parses a natural language date string and returns a date in YYYY-MM-DD format.
// Supported formats:
//   - today, tomorrow, yesterday
//   - monday, tuesday, ... (next occurrence, same day = next week)
//   - next monday, next tuesday, ... (at least 7 days from now)
//   - next week, next month
//   - eow (end of week - Friday)
//   - eom (end of month)
//   - +N, -N (N days from now, N days ago)
//   - in N days, in N weeks, N days ago
//   - YYYY-MM-DD (passthrough)
func Parse(input string) (string, error) {
	return ParseFrom(input, time.Now())
}

// ParseFrom parses a date relative to the given reference time.
func ParseFrom(input string, now time.Time) (string, error) {
	t, err := parseDay(input, now)
	if err != nil {
		return "", err
	}
	return formatDate(t), nil
}

// ParseTime parses a date with a time of day, in now's location.
// Accepts RFC 3339, or any date Parse understands followed by a time:
//
//	2026-11-02T15:00:00Z
//	2026-11-02 15:00
//	tomorrow 3pm
//	next tuesday at 10:30am
func ParseTime(input string, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	if t, err := time.Parse(time.RFC3339, input); err == nil {
		return t, nil
	}

	lower := strings.ToLower(input)
	var datePart, timePart string
	if before, after, ok := strings.Cut(lower, " at "); ok {
		datePart, timePart = before, after
	} else if i := strings.LastIndexByte(lower, ' '); i > 0 {
		datePart, timePart = lower[:i], lower[i+1:]
	} else {
		return time.Time{}, fmt.Errorf("missing time of day in %q", input)
	}

	day, err := parseDay(datePart, now)
	if err != nil {
		return time.Time{}, err
	}
	hour, minute, err := parseClock(timePart)
	if err != nil {
		return time.Time{}, err
	}

	year, month, d := day.Date()
	return time.Date(year, month, d, hour, minute, 0, 0, now.Location()), nil
}

func parseDay(input string, now time.Time) (time.Time, error) {
	input = strings.ToLower(strings.TrimSpace(input))

	switch input {
	case "today":
		return now, nil
	case "tomorrow":
		return now.AddDate(0, 0, 1), nil
	case "yesterday":
		return now.AddDate(0, 0, -1), nil
	case "next week", "nextweek":
		return now.AddDate(0, 0, 7), nil
	case "next month", "nextmonth":
		return now.AddDate(0, 1, 0), nil
	case "end of week", "eow":
		return nextWeekday(now, time.Friday, false), nil
	case "end of month", "eom":
		return endOfMonth(now), nil
	}

	// Weekday names
	if day, ok := parseWeekday(input); ok {
		next := strings.HasPrefix(input, "next ")
		return nextWeekday(now, day, next), nil
	}

	// +N / -N days
	if strings.HasPrefix(input, "+") || strings.HasPrefix(input, "-") {
		if days, err := strconv.Atoi(input); err == nil {
			return now.AddDate(0, 0, days), nil
		}
	}

	if match := inDaysPattern.FindStringSubmatch(input); match != nil {
		days, _ := strconv.Atoi(match[1])
		return now.AddDate(0, 0, days), nil
	}
	if match := inWeeksPattern.FindStringSubmatch(input); match != nil {
		weeks, _ := strconv.Atoi(match[1])
		return now.AddDate(0, 0, weeks*7), nil
	}
	if match := daysAgoPattern.FindStringSubmatch(input); match != nil {
		days, _ := strconv.Atoi(match[1])
		return now.AddDate(0, 0, -days), nil
	}

	if datePattern.MatchString(input) {
		t, err := time.ParseInLocation(time.DateOnly, input, now.Location())
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q", input)
		}
		return t, nil
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", input)
}

var (
	datePattern    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	inDaysPattern  = regexp.MustCompile(`^in (\d+) days?$`)
	inWeeksPattern = regexp.MustCompile(`^in (\d+) weeks?$`)
	daysAgoPattern = regexp.MustCompile(`^(\d+) days? ago$`)

	// 15:00, 9:30am, 3pm. A bare hour needs am/pm.
	clockPattern = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)
)

// parseClock parses a time of day into hour and minute.
func parseClock(input string) (int, int, error) {
	input = strings.TrimSpace(input)
	match := clockPattern.FindStringSubmatch(input)
	if match == nil || (match[2] == "" && match[3] == "") {
		return 0, 0, fmt.Errorf("invalid time of day %q", input)
	}

	hour, _ := strconv.Atoi(match[1])
	minute := 0
	if match[2] != "" {
		minute, _ = strconv.Atoi(match[2])
	}

	if match[3] != "" {
		if hour < 1 || hour > 12 {
			return 0, 0, fmt.Errorf("invalid time of day %q", input)
		}
		hour %= 12
		if match[3] == "pm" {
			hour += 12
		}
	}
	if hour > 23 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid time of day %q", input)
	}
	return hour, minute, nil
}

func formatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

func parseWeekday(input string) (time.Weekday, bool) {
	// Remove "next " prefix if present
	input = strings.TrimPrefix(input, "next ")

	switch input {
	case "sunday", "sun":
		return time.Sunday, true
	case "monday", "mon":
		return time.Monday, true
	case "tuesday", "tue":
		return time.Tuesday, true
	case "wednesday", "wed":
		return time.Wednesday, true
	case "thursday", "thu":
		return time.Thursday, true
	case "friday", "fri":
		return time.Friday, true
	case "saturday", "sat":
		return time.Saturday, true
	}
	return 0, false
}

// nextWeekday returns the next occurrence of the given weekday.
// If forceNext is true ("next monday"), it returns the Monday after this week's.
// If today IS the target weekday, both return 7 days out.
func nextWeekday(now time.Time, target time.Weekday, forceNext bool) time.Time {
	daysUntil := int(target - now.Weekday())
	sameDay := daysUntil == 0

	if daysUntil <= 0 {
		daysUntil += 7
	}
	if forceNext && !sameDay {
		daysUntil += 7
	}

	return now.AddDate(0, 0, daysUntil)
}

// endOfMonth returns the last day of the current month.
func endOfMonth(now time.Time) time.Time {
	year, month, _ := now.Date()
	firstOfNextMonth := time.Date(year, month+1, 1, 0, 0, 0, 0, now.Location())
	return firstOfNextMonth.AddDate(0, 0, -1)
}
