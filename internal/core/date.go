package core

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/ncruces/go-strftime"
)

// Date is a calendar day without time or zone.
type Date = civil.Date

const DefaultDateFormat = "%d.%m.%Y"

// DefaultInputFormats are tried after the configured format.
var DefaultInputFormats = []string{"%d.%m.%Y", "%Y-%m-%d", "%m/%d/%Y"}

// InputFormats puts the preferred format first, followed by the fallbacks,
// dropping blanks and duplicates while keeping order.
func InputFormats(preferred string, fallbacks ...string) []string {
	if len(fallbacks) == 0 {
		fallbacks = DefaultInputFormats
	}
	seen := make(map[string]bool, len(fallbacks)+1)
	out := make([]string, 0, len(fallbacks)+1)
	for _, f := range append([]string{preferred}, fallbacks...) {
		f = strings.TrimSpace(f)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// ParseDate tries each strftime pattern in order and returns the first
// calendar date that parses.
func ParseDate(raw string, formats []string) (Date, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Date{}, false
	}
	for _, f := range formats {
		t, err := strftime.Parse(f, raw)
		if err != nil {
			continue
		}
		return civil.DateOf(t), true
	}
	return Date{}, false
}

// FormatDate renders d with a strftime pattern.
func FormatDate(d Date, format string) string {
	return strftime.Format(format, d.In(time.UTC))
}

// Today returns the local calendar date of now.
func Today(now time.Time) Date {
	return civil.DateOf(now)
}

// DaysIn returns the inclusive day count of [start, end], 0 when reversed.
func DaysIn(start, end Date) int {
	if end.Before(start) {
		return 0
	}
	return end.DaysSince(start) + 1
}

// FirstOfMonth returns the 1st of d's month.
func FirstOfMonth(d Date) Date {
	return Date{Year: d.Year, Month: d.Month, Day: 1}
}

// LastOfMonth returns the last day of d's month.
func LastOfMonth(d Date) Date {
	return FirstOfMonth(d).AddMonths(1).AddDays(-1)
}

// MondayOf returns the Monday on or before d.
func MondayOf(d Date) Date {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDays(-offset)
}
