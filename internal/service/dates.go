package service

import (
	"regexp"
	"time"
)

const dateLayout = "2006-01-02"

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Schedulers can pass template placeholders verbatim instead of concrete
// dates; they are expanded server-side before validation.
var dateTemplates = map[string]func(now time.Time) time.Time{
	"{{TODAY}}":            func(now time.Time) time.Time { return dateOnly(now) },
	"{{YESTERDAY}}":        func(now time.Time) time.Time { return dateOnly(now).AddDate(0, 0, -1) },
	"{{LAST_WEEK_START}}":  lastWeekStart,
	"{{LAST_WEEK_END}}":    func(now time.Time) time.Time { return lastWeekStart(now).AddDate(0, 0, 6) },
	"{{LAST_MONTH_START}}": lastMonthStart,
	"{{LAST_MONTH_END}}":   func(now time.Time) time.Time { return lastMonthStart(now).AddDate(0, 1, -1) },
}

// ResolveDate expands a template placeholder or parses an explicit
// YYYY-MM-DD date. The second return is false when the input was malformed;
// callers fall back to yesterday and log the anomaly rather than failing the
// run.
func ResolveDate(raw string, now time.Time) (time.Time, bool) {
	if raw == "" {
		return dateOnly(now).AddDate(0, 0, -1), true
	}
	if expand, ok := dateTemplates[raw]; ok {
		return expand(now), true
	}
	if !datePattern.MatchString(raw) {
		return dateOnly(now).AddDate(0, 0, -1), false
	}
	parsed, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return dateOnly(now).AddDate(0, 0, -1), false
	}
	return parsed, true
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// lastWeekStart returns the Monday of the previous ISO week.
func lastWeekStart(now time.Time) time.Time {
	day := dateOnly(now)
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	thisMonday := day.AddDate(0, 0, -(weekday - 1))
	return thisMonday.AddDate(0, 0, -7)
}

func lastMonthStart(now time.Time) time.Time {
	day := dateOnly(now)
	firstOfThisMonth := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	return firstOfThisMonth.AddDate(0, -1, 0)
}
