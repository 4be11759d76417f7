package sheets

import (
	"context"

	"spendlens/internal/core"
)

// Ports for record stores and the spreadsheet mirror.
type (
	// RecordWriter stores the lines of one expense. ReplaceExpense swaps
	// every existing line of expenseID for recs in one step.
	RecordWriter interface {
		ReplaceExpense(ctx context.Context, expenseID string, recs []core.Record) error
	}

	// ExpenseDeleter removes every line of an expense and reports how
	// many were removed.
	ExpenseDeleter interface {
		DeleteExpense(ctx context.Context, expenseID string) (int, error)
	}

	// RecordLister returns stored lines in insertion order.
	RecordLister interface {
		ListRecords(ctx context.Context) ([]core.Record, error)
		ExpenseRecords(ctx context.Context, expenseID string) ([]core.Record, error)
	}

	TaxonomyReader interface {
		Taxonomy(ctx context.Context) (core.Taxonomy, error)
	}

	// TaxonomyWriter adds entries. Adding an existing name updates it.
	TaxonomyWriter interface {
		AddPerson(ctx context.Context, p core.Person) error
		AddStore(ctx context.Context, s core.Store) error
		AddCategory(ctx context.Context, c core.Category) error
	}
)
