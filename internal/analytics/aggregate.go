package analytics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"spendlens/internal/core"
)

// Stats counts how records were treated by an aggregation. Records with a
// malformed amount are included with a zero value and also counted in
// InvalidAmount so callers can surface the corruption.
type Stats struct {
	Included      int `json:"included"`
	SkippedDate   int `json:"skipped_date"`
	OutOfRange    int `json:"out_of_range"`
	InvalidAmount int `json:"invalid_amount"`
}

// BucketSeries holds parallel buckets, labels and totals.
type BucketSeries struct {
	Mode    BucketMode   `json:"mode"`
	Buckets []Bucket     `json:"buckets"`
	Labels  []string     `json:"labels"`
	Totals  []core.Money `json:"totals"`
	Stats   Stats        `json:"stats"`
}

// Total is the sum of all bucket totals.
func (s BucketSeries) Total() core.Money {
	return core.Sum(s.Totals...)
}

// scan calls fn for every record whose date parses and falls inside
// [start, end], with its amount or zero when malformed.
func scan(records []core.Record, start, end core.Date, formats []string, fn func(core.Record, core.Date, core.Money)) Stats {
	var st Stats
	for _, r := range records {
		d, ok := core.ParseDate(r.Date, formats)
		if !ok {
			st.SkippedDate++
			continue
		}
		if d.Before(start) || d.After(end) {
			st.OutOfRange++
			continue
		}
		amount, ok := r.Money()
		if !ok {
			st.InvalidAmount++
		}
		st.Included++
		fn(r, d, amount)
	}
	return st
}

// AggregateByBucket sums record amounts into the buckets of [start, end].
// Buckets without records keep a zero total.
func AggregateByBucket(records []core.Record, start, end core.Date, mode BucketMode, formats []string) BucketSeries {
	buckets := Bucketize(start, end, mode)
	totals := make([]core.Money, len(buckets))

	st := scan(records, start, end, formats, func(_ core.Record, d core.Date, amount core.Money) {
		for i, b := range buckets {
			if b.Contains(d) {
				totals[i] = totals[i].Add(amount)
				return
			}
		}
	})

	return BucketSeries{
		Mode:    mode,
		Buckets: buckets,
		Labels:  Labels(buckets, mode),
		Totals:  totals,
		Stats:   st,
	}
}

// Grouping selects the classifier used as pie key.
type Grouping string

const (
	GroupStore       Grouping = "store"
	GroupPerson      Grouping = "person"
	GroupCategory    Grouping = "category"
	GroupSubcategory Grouping = "subcategory"
)

func ParseGrouping(s string) (Grouping, error) {
	g := Grouping(strings.ToLower(strings.TrimSpace(s)))
	switch g {
	case GroupStore, GroupPerson, GroupCategory, GroupSubcategory:
		return g, nil
	}
	return "", fmt.Errorf("unknown grouping %q", s)
}

// GroupKey derives the key of r for g. Blank classifiers become "Unknown".
func GroupKey(r core.Record, g Grouping) string {
	switch g {
	case GroupStore:
		return r.StoreOrUnknown()
	case GroupPerson:
		return r.PersonOrUnknown()
	case GroupCategory:
		return r.CategoryOrUnknown()
	case GroupSubcategory:
		return r.CategoryOrUnknown() + " > " + r.SubCategoryOrUnknown()
	}
	return core.UnknownValue
}

// GroupTotals maps a group key to its summed amount.
type GroupTotals map[string]core.Money

// GroupTotal is one entry of a sorted group view.
type GroupTotal struct {
	Key   string     `json:"key"`
	Total core.Money `json:"total"`
}

// Sorted returns the groups by descending total, ties by key.
func (g GroupTotals) Sorted() []GroupTotal {
	out := make([]GroupTotal, 0, len(g))
	for k, v := range g {
		out = append(out, GroupTotal{Key: k, Total: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total.Cents != out[j].Total.Cents {
			return out[i].Total.Cents > out[j].Total.Cents
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func (g GroupTotals) Total() core.Money {
	var total core.Money
	for _, v := range g {
		total = total.Add(v)
	}
	return total
}

// AggregateByGroup sums the records of [start, end] per group key.
func AggregateByGroup(records []core.Record, start, end core.Date, grouping Grouping, formats []string) (GroupTotals, Stats) {
	groups := make(GroupTotals)
	if end.Before(start) {
		return groups, Stats{}
	}
	st := scan(records, start, end, formats, func(r core.Record, _ core.Date, amount core.Money) {
		k := GroupKey(r, grouping)
		groups[k] = groups[k].Add(amount)
	})
	return groups, st
}

// Share is a group with its percentage of the whole.
type Share struct {
	Key     string          `json:"key"`
	Total   core.Money      `json:"total"`
	Percent decimal.Decimal `json:"percent"`
}

var hundred = decimal.NewFromInt(100)

// Shares returns the sorted groups with their percentage of the grand
// total, rounded half-even to two digits. A zero grand total gives zero
// percentages.
func Shares(groups GroupTotals) []Share {
	sorted := groups.Sorted()
	total := groups.Total().Decimal()
	out := make([]Share, len(sorted))
	for i, g := range sorted {
		pct := decimal.Zero
		if !total.IsZero() {
			pct = g.Total.Decimal().Mul(hundred).Div(total).RoundBank(2)
		}
		out[i] = Share{Key: g.Key, Total: g.Total, Percent: pct}
	}
	return out
}
