package services

import (
	"strings"

	"spendlens/internal/core"
)

// Settings are the user preferences every engine call is given
// explicitly.
type Settings struct {
	// DateFormat is used when writing record dates.
	DateFormat string
	// InputFormats are tried in order when reading dates. DateFormat is
	// always tried first.
	InputFormats []string
	Currency     string
	Locale       string
}

func DefaultSettings() Settings {
	return Settings{
		DateFormat:   core.DefaultDateFormat,
		InputFormats: core.InputFormats(core.DefaultDateFormat),
		Currency:     "EUR",
		Locale:       "en",
	}
}

// normalize fills blanks with defaults and puts DateFormat first in
// InputFormats.
func (s Settings) normalize() Settings {
	d := DefaultSettings()
	if strings.TrimSpace(s.DateFormat) == "" {
		s.DateFormat = d.DateFormat
	}
	s.InputFormats = core.InputFormats(s.DateFormat, s.InputFormats...)
	if strings.TrimSpace(s.Currency) == "" {
		s.Currency = d.Currency
	}
	if strings.TrimSpace(s.Locale) == "" {
		s.Locale = d.Locale
	}
	return s
}
