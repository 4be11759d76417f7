package analytics

import (
	"strings"

	"spendlens/internal/core"
)

// Preset names a period relative to today.
type Preset string

const (
	PresetToday     Preset = "today"
	PresetThisWeek  Preset = "this_week"
	PresetThisMonth Preset = "this_month"
	PresetLastMonth Preset = "last_month"
	PresetThisYear  Preset = "this_year"
	PresetLastYear  Preset = "last_year"
	PresetCustom    Preset = "custom"
)

// Presets lists the presets in the order they are offered.
var Presets = []Preset{PresetToday, PresetThisWeek, PresetThisMonth, PresetLastMonth, PresetThisYear, PresetLastYear, PresetCustom}

// ResolvePreset returns the range a preset covers on the given day.
// PresetCustom and unknown names resolve to nothing.
func ResolvePreset(p Preset, today core.Date) (core.Date, core.Date, bool) {
	switch Preset(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(string(p))), " ", "_")) {
	case PresetToday:
		return today, today, true
	case PresetThisWeek:
		start := core.MondayOf(today)
		return start, start.AddDays(6), true
	case PresetThisMonth:
		return core.FirstOfMonth(today), core.LastOfMonth(today), true
	case PresetLastMonth:
		end := core.FirstOfMonth(today).AddDays(-1)
		return core.FirstOfMonth(end), end, true
	case PresetThisYear:
		return core.Date{Year: today.Year, Month: 1, Day: 1}, core.Date{Year: today.Year, Month: 12, Day: 31}, true
	case PresetLastYear:
		y := today.Year - 1
		return core.Date{Year: y, Month: 1, Day: 1}, core.Date{Year: y, Month: 12, Day: 31}, true
	}
	return core.Date{}, core.Date{}, false
}

// DataRange returns the earliest and latest parseable record dates.
func DataRange(records []core.Record, formats []string) (core.Date, core.Date, bool) {
	var lo, hi core.Date
	found := false
	for _, r := range records {
		d, ok := core.ParseDate(r.Date, formats)
		if !ok {
			continue
		}
		if !found || d.Before(lo) {
			lo = d
		}
		if !found || d.After(hi) {
			hi = d
		}
		found = true
	}
	return lo, hi, found
}

// ResolveRange starts from the extent of the records and lets each bound
// that parses override it. Bounds that do not parse are ignored. It
// reports false when there are no dated records.
func ResolveRange(records []core.Record, formats []string, from, to string) (core.Date, core.Date, bool) {
	start, end, ok := DataRange(records, formats)
	if !ok {
		return start, end, false
	}
	if d, ok := core.ParseDate(from, formats); ok {
		start = d
	}
	if d, ok := core.ParseDate(to, formats); ok {
		end = d
	}
	return start, end, true
}

// ShortRangeDays is the span below which daily buckets are offered.
const ShortRangeDays = 60

// GranularityOptions lists the bucket modes that make sense for a range.
func GranularityOptions(start, end core.Date) []BucketMode {
	if core.DaysIn(start, end) < ShortRangeDays {
		return []BucketMode{ModeDay, ModeWeekMonday, ModeWeekRolling, ModeMonth}
	}
	return []BucketMode{ModeWeekMonday, ModeWeekRolling, ModeMonth}
}

// PickMode keeps want when it is offered for the range, else the first
// offered mode.
func PickMode(want BucketMode, start, end core.Date) BucketMode {
	opts := GranularityOptions(start, end)
	for _, m := range opts {
		if m == want {
			return m
		}
	}
	return opts[0]
}

// AllPeople is the person filter value that disables filtering.
const AllPeople = "All"

// Filter narrows records before aggregation.
type Filter struct {
	Person string
}

// FilterRecords returns the records matching f. The input is not modified.
func FilterRecords(records []core.Record, f Filter) []core.Record {
	person := strings.TrimSpace(f.Person)
	if person == "" || person == AllPeople {
		return records
	}
	out := make([]core.Record, 0, len(records))
	for _, r := range records {
		if strings.TrimSpace(r.Person) == person {
			out = append(out, r)
		}
	}
	return out
}

// FilterByDate keeps records whose date parses and lies in [start, end].
func FilterByDate(records []core.Record, start, end core.Date, formats []string) []core.Record {
	var out []core.Record
	for _, r := range records {
		d, ok := core.ParseDate(r.Date, formats)
		if ok && !d.Before(start) && !d.After(end) {
			out = append(out, r)
		}
	}
	return out
}
