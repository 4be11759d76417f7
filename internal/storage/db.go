package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Queries holds the hand-written statements of the repository, one method
// per statement.
type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// ExpenseLine is a row of expense_lines.
type ExpenseLine struct {
	ID          int64
	ExpenseID   string
	Date        string
	Person      string
	Store       string
	Total       string
	Category    string
	SubCategory string
	Amount      string
	CreatedAt   string
	SyncStatus  string
}

type Store struct {
	Name               string
	DefaultCategory    string
	DefaultSubCategory string
}

type SubCategory struct {
	Category string
	Name     string
}
