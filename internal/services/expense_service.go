package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ncruces/go-strftime"

	"spendlens/internal/amqp"
	"spendlens/internal/core"
	"spendlens/internal/sheets"
)

const createdAtFormat = "%Y-%m-%d %H:%M:%S"

// Repository is the record and taxonomy store behind the services.
type Repository interface {
	sheets.RecordWriter
	sheets.ExpenseDeleter
	sheets.RecordLister
	sheets.TaxonomyReader
	sheets.TaxonomyWriter
}

// EventPublisher announces changed expenses to the sync worker.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, expenseID string, op amqp.Op) error
}

// Invalidator drops cached record snapshots.
type Invalidator interface {
	Purge()
}

type LineInput struct {
	Category    string `json:"category"`
	SubCategory string `json:"sub_category"`
	Amount      string `json:"amount"`
}

// ExpenseInput is an expense as submitted, before parsing.
type ExpenseInput struct {
	Date   string      `json:"date"`
	Person string      `json:"person"`
	Store  string      `json:"store"`
	Total  string      `json:"total"`
	Lines  []LineInput `json:"lines"`
}

// ExpenseService validates expenses and writes them as records. Each
// write is followed by an AMQP event so the mirror can catch up.
type ExpenseService struct {
	repo      Repository
	publisher EventPublisher
	cache     Invalidator
	settings  Settings
	now       func() time.Time
	newID     func() string
}

// NewExpenseService wires the service. publisher and cache may be nil.
func NewExpenseService(repo Repository, publisher EventPublisher, cache Invalidator, settings Settings) *ExpenseService {
	return &ExpenseService{
		repo:      repo,
		publisher: publisher,
		cache:     cache,
		settings:  settings.normalize(),
		now:       time.Now,
		newID:     newExpenseID,
	}
}

// newExpenseID returns the first 8 hex digits of a random UUID.
func newExpenseID() string {
	return uuid.NewString()[:8]
}

// build parses and validates input into an expense.
func (s *ExpenseService) build(ctx context.Context, in ExpenseInput) (core.Expense, error) {
	date, ok := core.ParseDate(in.Date, s.settings.InputFormats)
	if !ok {
		return core.Expense{}, fmt.Errorf("date %q: %w", in.Date, core.ErrInvalidDate)
	}
	total, err := core.ParseMoney(in.Total)
	if err != nil {
		return core.Expense{}, fmt.Errorf("total %q: %w", in.Total, core.ErrInvalidTotal)
	}

	e := core.Expense{
		Date:   date,
		Person: strings.TrimSpace(in.Person),
		Store:  strings.TrimSpace(in.Store),
		Total:  total,
		Lines:  make([]core.Line, 0, len(in.Lines)),
	}
	for i, l := range in.Lines {
		amount, err := core.ParseMoney(l.Amount)
		if err != nil {
			return core.Expense{}, fmt.Errorf("line %d amount %q: %w", i+1, l.Amount, core.ErrInvalidAmount)
		}
		e.Lines = append(e.Lines, core.Line{
			Category:    strings.TrimSpace(l.Category),
			SubCategory: strings.TrimSpace(l.SubCategory),
			Amount:      amount,
		})
	}

	if e.Store != "" {
		tax, err := s.repo.Taxonomy(ctx)
		if err != nil {
			return core.Expense{}, fmt.Errorf("load taxonomy: %w", err)
		}
		for _, st := range tax.Stores {
			if st.Name == e.Store {
				e.ApplyStoreDefaults(st)
				break
			}
		}
	}

	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

// Create stores a new expense and returns it with its id.
func (s *ExpenseService) Create(ctx context.Context, in ExpenseInput) (core.Expense, error) {
	e, err := s.build(ctx, in)
	if err != nil {
		return core.Expense{}, err
	}

	id, err := s.freshID(ctx)
	if err != nil {
		return core.Expense{}, err
	}
	e.ID = id
	e.CreatedAt = strftime.Format(createdAtFormat, s.now())

	if err := s.write(ctx, e); err != nil {
		return core.Expense{}, err
	}
	slog.InfoContext(ctx, "Expense created",
		"expense_id", e.ID,
		"total", e.Total.String(),
		"lines", len(e.Lines))
	return e, nil
}

// freshID retries on the rare clash of 8-digit ids.
func (s *ExpenseService) freshID(ctx context.Context) (string, error) {
	for i := 0; i < 3; i++ {
		id := s.newID()
		existing, err := s.repo.ExpenseRecords(ctx, id)
		if err != nil {
			return "", fmt.Errorf("check expense id: %w", err)
		}
		if len(existing) == 0 {
			return id, nil
		}
	}
	return "", errors.New("could not allocate a unique expense id")
}

// Update replaces every line of an expense. The creation time is kept.
func (s *ExpenseService) Update(ctx context.Context, expenseID string, in ExpenseInput) (core.Expense, error) {
	existing, err := s.Get(ctx, expenseID)
	if err != nil {
		return core.Expense{}, err
	}
	e, err := s.build(ctx, in)
	if err != nil {
		return core.Expense{}, err
	}
	e.ID = expenseID
	e.CreatedAt = existing[0].CreatedAt

	if err := s.write(ctx, e); err != nil {
		return core.Expense{}, err
	}
	slog.InfoContext(ctx, "Expense updated",
		"expense_id", e.ID,
		"total", e.Total.String(),
		"lines", len(e.Lines))
	return e, nil
}

func (s *ExpenseService) write(ctx context.Context, e core.Expense) error {
	if err := s.repo.ReplaceExpense(ctx, e.ID, e.Records(s.settings.DateFormat)); err != nil {
		return fmt.Errorf("save expense: %w", err)
	}
	s.changed(ctx, e.ID, amqp.OpUpsert)
	return nil
}

// Delete removes every line of an expense.
func (s *ExpenseService) Delete(ctx context.Context, expenseID string) error {
	n, err := s.repo.DeleteExpense(ctx, expenseID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, core.ErrExpenseNotFound)
	}
	s.changed(ctx, expenseID, amqp.OpDelete)
	slog.InfoContext(ctx, "Expense deleted", "expense_id", expenseID, "lines", n)
	return nil
}

// Get returns the lines of one expense.
func (s *ExpenseService) Get(ctx context.Context, expenseID string) ([]core.Record, error) {
	recs, err := s.repo.ExpenseRecords(ctx, expenseID)
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("expense %s: %w", expenseID, core.ErrExpenseNotFound)
	}
	return recs, nil
}

// changed invalidates cached records and publishes the event. Publishing
// failures are logged only: the write is already stored and the worker's
// poll picks it up.
func (s *ExpenseService) changed(ctx context.Context, expenseID string, op amqp.Op) {
	if s.cache != nil {
		s.cache.Purge()
	}
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not configured, skipping event", "expense_id", expenseID)
		return
	}
	if err := s.publisher.PublishExpenseEvent(ctx, expenseID, op); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"expense_id", expenseID,
			"op", op,
			"error", err)
	}
}

func (s *ExpenseService) Taxonomy(ctx context.Context) (core.Taxonomy, error) {
	tax, err := s.repo.Taxonomy(ctx)
	if err != nil {
		return core.Taxonomy{}, fmt.Errorf("load taxonomy: %w", err)
	}
	return tax, nil
}

func (s *ExpenseService) AddPerson(ctx context.Context, p core.Person) error {
	if err := s.repo.AddPerson(ctx, p); err != nil {
		return fmt.Errorf("add person: %w", err)
	}
	slog.InfoContext(ctx, "Person added", "name", p.Name)
	return nil
}

func (s *ExpenseService) AddStore(ctx context.Context, st core.Store) error {
	if err := s.repo.AddStore(ctx, st); err != nil {
		return fmt.Errorf("add store: %w", err)
	}
	slog.InfoContext(ctx, "Store saved", "name", st.Name, "default_category", st.DefaultCategory)
	return nil
}

func (s *ExpenseService) AddCategory(ctx context.Context, c core.Category) error {
	if err := s.repo.AddCategory(ctx, c); err != nil {
		return fmt.Errorf("add category: %w", err)
	}
	slog.InfoContext(ctx, "Category saved", "name", c.Name, "sub_categories", len(c.SubCategories))
	return nil
}
