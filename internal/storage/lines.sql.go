package storage

import (
	"context"
)

const insertExpenseLine = `
INSERT INTO expense_lines (expense_id, date, person, store, total, category, sub_category, amount, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type InsertExpenseLineParams struct {
	ExpenseID   string
	Date        string
	Person      string
	Store       string
	Total       string
	Category    string
	SubCategory string
	Amount      string
	CreatedAt   string
}

func (q *Queries) InsertExpenseLine(ctx context.Context, arg InsertExpenseLineParams) error {
	_, err := q.db.ExecContext(ctx, insertExpenseLine,
		arg.ExpenseID,
		arg.Date,
		arg.Person,
		arg.Store,
		arg.Total,
		arg.Category,
		arg.SubCategory,
		arg.Amount,
		arg.CreatedAt,
	)
	return err
}

const deleteExpenseLines = `DELETE FROM expense_lines WHERE expense_id = ?`

func (q *Queries) DeleteExpenseLines(ctx context.Context, expenseID string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteExpenseLines, expenseID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const selectLineColumns = `
SELECT id, expense_id, date, person, store, total, category, sub_category, amount, created_at, sync_status
FROM expense_lines
`

func (q *Queries) listLines(ctx context.Context, query string, args ...interface{}) ([]ExpenseLine, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ExpenseLine
	for rows.Next() {
		var i ExpenseLine
		if err := rows.Scan(
			&i.ID,
			&i.ExpenseID,
			&i.Date,
			&i.Person,
			&i.Store,
			&i.Total,
			&i.Category,
			&i.SubCategory,
			&i.Amount,
			&i.CreatedAt,
			&i.SyncStatus,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (q *Queries) ListExpenseLines(ctx context.Context) ([]ExpenseLine, error) {
	return q.listLines(ctx, selectLineColumns+`ORDER BY id`)
}

func (q *Queries) GetExpenseLines(ctx context.Context, expenseID string) ([]ExpenseLine, error) {
	return q.listLines(ctx, selectLineColumns+`WHERE expense_id = ? ORDER BY id`, expenseID)
}

const getPendingSyncExpenseIDs = `
SELECT expense_id FROM expense_lines
WHERE sync_status != 'synced'
GROUP BY expense_id
ORDER BY MIN(id)
LIMIT ?
`

func (q *Queries) GetPendingSyncExpenseIDs(ctx context.Context, limit int64) ([]string, error) {
	return q.listStrings(ctx, getPendingSyncExpenseIDs, limit)
}

const markExpenseSynced = `
UPDATE expense_lines SET sync_status = 'synced', synced_at = CURRENT_TIMESTAMP
WHERE expense_id = ?
`

func (q *Queries) MarkExpenseSynced(ctx context.Context, expenseID string) error {
	_, err := q.db.ExecContext(ctx, markExpenseSynced, expenseID)
	return err
}

const markExpenseSyncError = `UPDATE expense_lines SET sync_status = 'error' WHERE expense_id = ?`

func (q *Queries) MarkExpenseSyncError(ctx context.Context, expenseID string) error {
	_, err := q.db.ExecContext(ctx, markExpenseSyncError, expenseID)
	return err
}

const insertDeletedExpense = `INSERT OR REPLACE INTO deleted_expenses (expense_id) VALUES (?)`

func (q *Queries) InsertDeletedExpense(ctx context.Context, expenseID string) error {
	_, err := q.db.ExecContext(ctx, insertDeletedExpense, expenseID)
	return err
}

const clearDeletedExpense = `DELETE FROM deleted_expenses WHERE expense_id = ?`

func (q *Queries) ClearDeletedExpense(ctx context.Context, expenseID string) error {
	_, err := q.db.ExecContext(ctx, clearDeletedExpense, expenseID)
	return err
}

const getDeletedExpenseIDs = `SELECT expense_id FROM deleted_expenses ORDER BY deleted_at LIMIT ?`

func (q *Queries) GetDeletedExpenseIDs(ctx context.Context, limit int64) ([]string, error) {
	return q.listStrings(ctx, getDeletedExpenseIDs, limit)
}

func (q *Queries) listStrings(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
