package analytics

import (
	"sort"

	"spendlens/internal/core"
)

// DefaultOverviewMonths caps the length of the monthly series.
const DefaultOverviewMonths = 6

// MonthTotal is one point of the monthly series, keyed "2024-03".
type MonthTotal struct {
	Month string     `json:"month"`
	Total core.Money `json:"total"`
}

// Overview summarises the current month against the previous one.
type Overview struct {
	ThisMonth   core.Money   `json:"this_month"`
	LastMonth   core.Money   `json:"last_month"`
	Change      Change       `json:"change"`
	TopCategory string       `json:"top_category"`
	TopTotal    core.Money   `json:"top_total"`
	Series      []MonthTotal `json:"series"`
	Stats       Stats        `json:"stats"`
}

// MonthlyOverview computes the month cards for today's month and the one
// before, plus the totals of the last months that have records (oldest
// first, at most months entries). Calendar months without records are left
// out of the series.
func MonthlyOverview(records []core.Record, today core.Date, formats []string, months int) Overview {
	if months < 1 {
		months = 1
	}
	thisStart := core.FirstOfMonth(today)

	cards := AggregateByBucket(records, thisStart.AddMonths(-1), core.LastOfMonth(today), ModeMonth, formats)
	out := Overview{ThisMonth: cards.Totals[1], LastMonth: cards.Totals[0]}
	out.Change = MonthOverMonth(out.ThisMonth, out.LastMonth)
	out.Series, out.Stats = monthSeries(records, formats, months)

	groups, _ := AggregateByGroup(records, thisStart, core.LastOfMonth(today), GroupCategory, formats)
	out.TopCategory, out.TopTotal, _ = TopGroup(groups)
	return out
}

// monthSeries sums the dated records per calendar month and keeps the
// latest n months.
func monthSeries(records []core.Record, formats []string, n int) ([]MonthTotal, Stats) {
	lo, hi, _ := DataRange(records, formats)
	totals := make(map[core.Date]core.Money)
	st := scan(records, lo, hi, formats, func(_ core.Record, d core.Date, amount core.Money) {
		m := core.FirstOfMonth(d)
		totals[m] = totals[m].Add(amount)
	})

	keys := make([]core.Date, 0, len(totals))
	for m := range totals {
		keys = append(keys, m)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	if len(keys) > n {
		keys = keys[len(keys)-n:]
	}

	series := make([]MonthTotal, len(keys))
	for i, m := range keys {
		series[i] = MonthTotal{Month: core.FormatDate(m, "%Y-%m"), Total: totals[m]}
	}
	return series, st
}
