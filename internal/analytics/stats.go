package analytics

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"spendlens/internal/core"
)

// AveragePerDay divides total by the inclusive day count of the range,
// never by less than one.
func AveragePerDay(total core.Money, start, end core.Date) core.Money {
	return total.DivRound(int64(core.DaysIn(start, end)))
}

// ChangeKind tags a month-over-month result.
type ChangeKind string

const (
	// ChangeFlat is zero last month and nothing spent this month.
	ChangeFlat ChangeKind = "flat"
	// ChangeFromZero is zero last month and a non-zero amount this month.
	ChangeFromZero ChangeKind = "from_zero"
	// ChangePercent is a regular relative change.
	ChangePercent ChangeKind = "percent"
)

// Change is a month-over-month comparison. For ChangeFromZero, Percent
// carries the conventional 100.
type Change struct {
	Kind    ChangeKind
	Percent decimal.Decimal
}

// MonthOverMonth compares this month's total with last month's.
func MonthOverMonth(this, last core.Money) Change {
	if last.IsZero() {
		if this.Sign() > 0 {
			return Change{Kind: ChangeFromZero, Percent: hundred}
		}
		return Change{Kind: ChangeFlat, Percent: decimal.Zero}
	}
	diff := this.Sub(last).Decimal()
	pct := diff.Div(last.Decimal()).Mul(hundred).RoundBank(2)
	return Change{Kind: ChangePercent, Percent: pct}
}

// String renders "+25.00%", "-50.00%", "0.00%" or "+100.00% (from 0)".
func (c Change) String() string {
	switch c.Kind {
	case ChangeFlat:
		return "0.00%"
	case ChangeFromZero:
		return signed(c.Percent) + "% (from 0)"
	}
	return signed(c.Percent) + "%"
}

func signed(d decimal.Decimal) string {
	s := d.StringFixed(2)
	if d.Sign() >= 0 {
		return "+" + s
	}
	return s
}

func (c Change) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind    ChangeKind `json:"kind"`
		Percent string     `json:"percent"`
		Display string     `json:"display"`
	}{c.Kind, c.Percent.StringFixed(2), c.String()})
}

// NoGroup is the key reported by TopGroup for an empty mapping.
const NoGroup = "none"

// TopGroup returns the key with the largest total. Ties go to the smaller
// key. An empty mapping yields NoGroup and false.
func TopGroup(groups GroupTotals) (string, core.Money, bool) {
	if len(groups) == 0 {
		return NoGroup, core.Money{}, false
	}
	top := groups.Sorted()[0]
	return top.Key, top.Total, true
}
