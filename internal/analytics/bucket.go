// Package analytics partitions date ranges into buckets and sums expense
// records into them.
//
// Every function here is pure: records, range, mode and date formats go in,
// plain values come out. Callers may run several aggregations over the same
// record slice concurrently.
package analytics

import (
	"fmt"
	"strings"

	"spendlens/internal/core"
)

// BucketMode selects how a range is partitioned.
type BucketMode string

const (
	ModeDay         BucketMode = "day"
	ModeWeekMonday  BucketMode = "week_monday"
	ModeWeekRolling BucketMode = "week_rolling"
	ModeMonth       BucketMode = "month"
)

var bucketModes = []BucketMode{ModeDay, ModeWeekMonday, ModeWeekRolling, ModeMonth}

func ParseBucketMode(s string) (BucketMode, error) {
	m := BucketMode(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range bucketModes {
		if m == valid {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown bucket mode %q", s)
}

// Bucket is an inclusive date span.
type Bucket struct {
	Start core.Date `json:"start"`
	End   core.Date `json:"end"`
}

// Contains reports whether d falls within the bucket, bounds included.
func (b Bucket) Contains(d core.Date) bool {
	return !d.Before(b.Start) && !d.After(b.End)
}

func (b Bucket) Days() int { return core.DaysIn(b.Start, b.End) }

// Bucketize partitions [start, end] into contiguous, ordered buckets.
// A reversed range yields no buckets.
func Bucketize(start, end core.Date, mode BucketMode) []Bucket {
	if end.Before(start) {
		return nil
	}

	var (
		anchor  core.Date
		next    func(core.Date) core.Date
		lastDay func(core.Date) core.Date
	)
	switch mode {
	case ModeDay:
		anchor = start
		next = func(d core.Date) core.Date { return d.AddDays(1) }
		lastDay = func(d core.Date) core.Date { return d }
	case ModeWeekMonday:
		anchor = core.MondayOf(start)
		next = func(d core.Date) core.Date { return d.AddDays(7) }
		lastDay = func(d core.Date) core.Date { return d.AddDays(6) }
	case ModeWeekRolling:
		anchor = start
		next = func(d core.Date) core.Date { return d.AddDays(7) }
		lastDay = func(d core.Date) core.Date { return d.AddDays(6) }
	case ModeMonth:
		anchor = core.FirstOfMonth(start)
		next = func(d core.Date) core.Date { return d.AddMonths(1) }
		lastDay = core.LastOfMonth
	default:
		return nil
	}

	var out []Bucket
	for !anchor.After(end) {
		b := Bucket{Start: anchor, End: lastDay(anchor)}
		if b.Start.Before(start) {
			b.Start = start
		}
		if b.End.After(end) {
			b.End = end
		}
		out = append(out, b)

		n := next(anchor)
		if !n.After(anchor) {
			break
		}
		anchor = n
	}
	return out
}

// Label renders the short axis label of a bucket: "05.03" for days,
// "03.03-09.03" for weeks and "Mar 2024" for months.
func Label(b Bucket, mode BucketMode) string {
	switch mode {
	case ModeDay:
		return core.FormatDate(b.Start, "%d.%m")
	case ModeWeekMonday, ModeWeekRolling:
		return core.FormatDate(b.Start, "%d.%m") + "-" + core.FormatDate(b.End, "%d.%m")
	case ModeMonth:
		return core.FormatDate(b.Start, "%b %Y")
	}
	return b.Start.String()
}

// Labels renders every bucket with Label.
func Labels(buckets []Bucket, mode BucketMode) []string {
	out := make([]string, len(buckets))
	for i, b := range buckets {
		out[i] = Label(b, mode)
	}
	return out
}
