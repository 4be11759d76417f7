package core

import (
	"errors"
	"strings"
)

// UnknownValue is used for every classifier that is missing or blank.
const UnknownValue = "Unknown"

type (
	// Record is one persisted expense line. Fields are kept as the raw
	// strings that were written so dirty historical rows still load; the
	// analytics engine parses them on demand.
	Record struct {
		Date        string `json:"date"`
		Person      string `json:"person"`
		Store       string `json:"store"`
		Total       string `json:"total"`
		Category    string `json:"category"`
		SubCategory string `json:"sub_category"`
		Amount      string `json:"amount"`
		ExpenseID   string `json:"expense_id"`
		CreatedAt   string `json:"created_at"`
	}

	// Line is one category breakdown of an expense.
	Line struct {
		Category    string
		SubCategory string
		Amount      Money
	}

	// Expense is a purchase split into breakdown lines.
	Expense struct {
		ID        string
		Date      Date
		Person    string
		Store     string
		Total     Money
		Lines     []Line
		CreatedAt string
	}

	Person struct {
		Name string `json:"name"`
	}

	// Store carries the classification applied when a line leaves it blank.
	Store struct {
		Name               string `json:"name"`
		DefaultCategory    string `json:"default_category,omitempty"`
		DefaultSubCategory string `json:"default_sub_category,omitempty"`
	}

	Category struct {
		Name          string   `json:"name"`
		SubCategories []string `json:"sub_categories"`
	}

	Taxonomy struct {
		People     []Person   `json:"people"`
		Stores     []Store    `json:"stores"`
		Categories []Category `json:"categories"`
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidTotal      = errors.New("total must be greater than zero")
	ErrNoLines           = errors.New("expense has no breakdown lines")
	ErrEmptyCategory     = errors.New("empty category")
	ErrEmptyName         = errors.New("empty name")
	ErrBreakdownMismatch = errors.New("breakdown does not sum to total")
	ErrExpenseNotFound   = errors.New("expense not found")
)

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return UnknownValue
	}
	return s
}

// PersonOrUnknown returns the person, or "Unknown" when blank.
func (r Record) PersonOrUnknown() string { return orUnknown(r.Person) }

func (r Record) StoreOrUnknown() string { return orUnknown(r.Store) }

func (r Record) CategoryOrUnknown() string { return orUnknown(r.Category) }

func (r Record) SubCategoryOrUnknown() string { return orUnknown(r.SubCategory) }

// Money parses the line amount. A blank amount is zero; malformed values
// yield false.
func (r Record) Money() (Money, bool) {
	if strings.TrimSpace(r.Amount) == "" {
		return Money{}, true
	}
	m, err := ParseMoney(r.Amount)
	if err != nil {
		return Money{}, false
	}
	return m, true
}

func (l Line) Validate() error {
	if strings.TrimSpace(l.Category) == "" {
		return ErrEmptyCategory
	}
	if l.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks that the expense is complete and that its lines add up
// to exactly the declared total.
func (e Expense) Validate() error {
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	if e.Total.Cents <= 0 {
		return ErrInvalidTotal
	}
	if len(e.Lines) == 0 {
		return ErrNoLines
	}
	var sum Money
	for _, l := range e.Lines {
		if err := l.Validate(); err != nil {
			return err
		}
		sum = sum.Add(l.Amount)
	}
	if sum != e.Total {
		return ErrBreakdownMismatch
	}
	return nil
}

// ApplyStoreDefaults fills blank line classifiers from the store defaults.
func (e *Expense) ApplyStoreDefaults(s Store) {
	for i := range e.Lines {
		l := &e.Lines[i]
		if strings.TrimSpace(l.Category) == "" && s.DefaultCategory != "" {
			l.Category = s.DefaultCategory
			if strings.TrimSpace(l.SubCategory) == "" {
				l.SubCategory = s.DefaultSubCategory
			}
		}
	}
}

// Records flattens the expense into one record per line, with dates
// written in dateFormat.
func (e Expense) Records(dateFormat string) []Record {
	out := make([]Record, 0, len(e.Lines))
	date := FormatDate(e.Date, dateFormat)
	for _, l := range e.Lines {
		out = append(out, Record{
			Date:        date,
			Person:      strings.TrimSpace(e.Person),
			Store:       strings.TrimSpace(e.Store),
			Total:       e.Total.String(),
			Category:    strings.TrimSpace(l.Category),
			SubCategory: strings.TrimSpace(l.SubCategory),
			Amount:      l.Amount.String(),
			ExpenseID:   e.ID,
			CreatedAt:   e.CreatedAt,
		})
	}
	return out
}
