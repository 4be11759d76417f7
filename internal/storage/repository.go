package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"spendlens/internal/core"
	ports "spendlens/internal/sheets"

	_ "modernc.org/sqlite"
)

var (
	_ ports.RecordWriter   = (*SQLiteRepository)(nil)
	_ ports.RecordLister   = (*SQLiteRepository)(nil)
	_ ports.ExpenseDeleter = (*SQLiteRepository)(nil)
	_ ports.TaxonomyReader = (*SQLiteRepository)(nil)
	_ ports.TaxonomyWriter = (*SQLiteRepository)(nil)
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	path    string
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time keeps SQLite from reporting SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		path:    dbPath,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the connection and that the schema is not left dirty.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	_, dirty, err := SchemaVersion(r.path)
	if err != nil {
		return err
	}
	if dirty {
		return fmt.Errorf("schema is dirty")
	}
	return nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ReplaceExpense implements sheets.RecordWriter. New lines start out
// pending sync.
func (r *SQLiteRepository) ReplaceExpense(ctx context.Context, expenseID string, recs []core.Record) error {
	err := r.inTx(ctx, func(q *Queries) error {
		if _, err := q.DeleteExpenseLines(ctx, expenseID); err != nil {
			return fmt.Errorf("delete old lines: %w", err)
		}
		for _, rec := range recs {
			if err := q.InsertExpenseLine(ctx, InsertExpenseLineParams{
				ExpenseID:   expenseID,
				Date:        rec.Date,
				Person:      rec.Person,
				Store:       rec.Store,
				Total:       rec.Total,
				Category:    rec.Category,
				SubCategory: rec.SubCategory,
				Amount:      rec.Amount,
				CreatedAt:   rec.CreatedAt,
			}); err != nil {
				return fmt.Errorf("insert line: %w", err)
			}
		}
		if err := q.ClearDeletedExpense(ctx, expenseID); err != nil {
			return fmt.Errorf("clear tombstone: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace expense %s: %w", expenseID, err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"expense_id", expenseID,
		"lines", len(recs))
	return nil
}

// DeleteExpense implements sheets.ExpenseDeleter. A tombstone is kept so
// the mirror can catch up later.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, expenseID string) (int, error) {
	var removed int64
	err := r.inTx(ctx, func(q *Queries) error {
		n, err := q.DeleteExpenseLines(ctx, expenseID)
		if err != nil {
			return fmt.Errorf("delete lines: %w", err)
		}
		removed = n
		if n == 0 {
			return nil
		}
		return q.InsertDeletedExpense(ctx, expenseID)
	})
	if err != nil {
		return 0, fmt.Errorf("delete expense %s: %w", expenseID, err)
	}
	if removed > 0 {
		slog.InfoContext(ctx, "Expense deleted from SQLite", "expense_id", expenseID, "lines", removed)
	}
	return int(removed), nil
}

func toRecords(lines []ExpenseLine) []core.Record {
	out := make([]core.Record, len(lines))
	for i, l := range lines {
		out[i] = core.Record{
			Date:        l.Date,
			Person:      l.Person,
			Store:       l.Store,
			Total:       l.Total,
			Category:    l.Category,
			SubCategory: l.SubCategory,
			Amount:      l.Amount,
			ExpenseID:   l.ExpenseID,
			CreatedAt:   l.CreatedAt,
		}
	}
	return out
}

// ListRecords implements sheets.RecordLister
func (r *SQLiteRepository) ListRecords(ctx context.Context) ([]core.Record, error) {
	lines, err := r.queries.ListExpenseLines(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expense lines: %w", err)
	}
	return toRecords(lines), nil
}

func (r *SQLiteRepository) ExpenseRecords(ctx context.Context, expenseID string) ([]core.Record, error) {
	lines, err := r.queries.GetExpenseLines(ctx, expenseID)
	if err != nil {
		return nil, fmt.Errorf("get expense lines: %w", err)
	}
	return toRecords(lines), nil
}

// PendingSync returns ids of expenses with lines not yet mirrored.
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]string, error) {
	ids, err := r.queries.GetPendingSyncExpenseIDs(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync expenses: %w", err)
	}
	return ids, nil
}

// PendingDeletes returns ids of deleted expenses not yet removed from the
// mirror.
func (r *SQLiteRepository) PendingDeletes(ctx context.Context, limit int) ([]string, error) {
	ids, err := r.queries.GetDeletedExpenseIDs(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending deletes: %w", err)
	}
	return ids, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, expenseID string) error {
	if err := r.queries.MarkExpenseSynced(ctx, expenseID); err != nil {
		return fmt.Errorf("mark expense synced: %w", err)
	}
	slog.InfoContext(ctx, "Expense marked as synced", "expense_id", expenseID)
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, expenseID string) error {
	if err := r.queries.MarkExpenseSyncError(ctx, expenseID); err != nil {
		return fmt.Errorf("mark expense sync error: %w", err)
	}
	slog.WarnContext(ctx, "Expense marked with sync error", "expense_id", expenseID)
	return nil
}

// MarkDeleteSynced drops the tombstone once the mirror is clean.
func (r *SQLiteRepository) MarkDeleteSynced(ctx context.Context, expenseID string) error {
	if err := r.queries.ClearDeletedExpense(ctx, expenseID); err != nil {
		return fmt.Errorf("clear deleted expense: %w", err)
	}
	return nil
}

// Taxonomy implements sheets.TaxonomyReader
func (r *SQLiteRepository) Taxonomy(ctx context.Context) (core.Taxonomy, error) {
	var tax core.Taxonomy

	people, err := r.queries.ListPeople(ctx)
	if err != nil {
		return tax, fmt.Errorf("list people: %w", err)
	}
	for _, p := range people {
		tax.People = append(tax.People, core.Person{Name: p})
	}

	stores, err := r.queries.ListStores(ctx)
	if err != nil {
		return tax, fmt.Errorf("list stores: %w", err)
	}
	for _, s := range stores {
		tax.Stores = append(tax.Stores, core.Store{
			Name:               s.Name,
			DefaultCategory:    s.DefaultCategory,
			DefaultSubCategory: s.DefaultSubCategory,
		})
	}

	cats, err := r.queries.ListCategories(ctx)
	if err != nil {
		return tax, fmt.Errorf("list categories: %w", err)
	}
	subs, err := r.queries.ListSubCategories(ctx)
	if err != nil {
		return tax, fmt.Errorf("list sub categories: %w", err)
	}
	byCat := make(map[string][]string, len(cats))
	for _, s := range subs {
		byCat[s.Category] = append(byCat[s.Category], s.Name)
	}
	for _, c := range cats {
		tax.Categories = append(tax.Categories, core.Category{Name: c, SubCategories: byCat[c]})
	}
	return tax, nil
}

func (r *SQLiteRepository) AddPerson(ctx context.Context, p core.Person) error {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return core.ErrEmptyName
	}
	if err := r.queries.InsertPerson(ctx, name); err != nil {
		return fmt.Errorf("insert person: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) AddStore(ctx context.Context, s core.Store) error {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		return core.ErrEmptyName
	}
	err := r.queries.UpsertStore(ctx, Store{
		Name:               name,
		DefaultCategory:    strings.TrimSpace(s.DefaultCategory),
		DefaultSubCategory: strings.TrimSpace(s.DefaultSubCategory),
	})
	if err != nil {
		return fmt.Errorf("upsert store: %w", err)
	}
	return nil
}

// AddCategory inserts the category and merges its sub-categories.
func (r *SQLiteRepository) AddCategory(ctx context.Context, c core.Category) error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return core.ErrEmptyName
	}
	return r.inTx(ctx, func(q *Queries) error {
		if err := q.InsertCategory(ctx, name); err != nil {
			return fmt.Errorf("insert category: %w", err)
		}
		for _, sub := range c.SubCategories {
			if sub = strings.TrimSpace(sub); sub == "" {
				continue
			}
			if err := q.InsertSubCategory(ctx, SubCategory{Category: name, Name: sub}); err != nil {
				return fmt.Errorf("insert sub category: %w", err)
			}
		}
		return nil
	})
}
