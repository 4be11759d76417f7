package core

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatMoney renders m for people, with the locale's grouping and decimal
// separators and the currency code in front: "EUR 1,234.50" for English,
// "EUR 1.234,50" for Italian. Unknown locales fall back to English.
func FormatMoney(m Money, currency, locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	p := message.NewPrinter(tag)

	// Unsigned magnitude so math.MinInt64 negates without overflow.
	cents := uint64(m.Cents)
	sign := ""
	if m.Cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := p.Sprintf("%d", cents/100)
	// Decimal separator read off a constant; amounts never go through floats.
	sep := string([]rune(p.Sprintf("%.1f", 0.5))[1])
	amount := fmt.Sprintf("%s%s%s%02d", sign, whole, sep, cents%100)

	if currency = strings.TrimSpace(currency); currency == "" {
		return amount
	}
	return currency + " " + amount
}
