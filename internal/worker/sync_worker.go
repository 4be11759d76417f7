package worker

import (
	"context"
	"fmt"
	"log/slog"

	"spendlens/internal/amqp"
	"spendlens/internal/core"
	applog "spendlens/internal/log"
	"spendlens/internal/sheets"
)

// SyncStore is the local side of the mirror: it owns the lines and
// remembers what still has to be pushed.
type SyncStore interface {
	ExpenseRecords(ctx context.Context, expenseID string) ([]core.Record, error)
	PendingSync(ctx context.Context, limit int) ([]string, error)
	PendingDeletes(ctx context.Context, limit int) ([]string, error)
	MarkSynced(ctx context.Context, expenseID string) error
	MarkSyncError(ctx context.Context, expenseID string) error
	MarkDeleteSynced(ctx context.Context, expenseID string) error
}

// Mirror is the remote copy of the lines.
type Mirror interface {
	sheets.RecordWriter
	sheets.ExpenseDeleter
}

// SyncWorker copies expenses from the local store to the mirror.
type SyncWorker struct {
	store     SyncStore
	mirror    Mirror
	batchSize int
}

func NewSyncWorker(store SyncStore, mirror Mirror, batchSize int) *SyncWorker {
	if batchSize < 1 {
		batchSize = 10
	}
	return &SyncWorker{store: store, mirror: mirror, batchSize: batchSize}
}

// HandleEvent processes one AMQP event.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev *amqp.ExpenseEvent) error {
	switch ev.Op {
	case amqp.OpUpsert:
		return w.syncExpense(ctx, ev.ExpenseID)
	case amqp.OpDelete:
		return w.syncDelete(ctx, ev.ExpenseID)
	default:
		return fmt.Errorf("unknown op %q", ev.Op)
	}
}

// syncExpense pushes the current lines of an expense. An expense with no
// local lines was deleted after the event was published; the mirror is
// cleaned instead.
func (w *SyncWorker) syncExpense(ctx context.Context, expenseID string) error {
	recs, err := w.store.ExpenseRecords(ctx, expenseID)
	if err != nil {
		return fmt.Errorf("get expense lines: %w", err)
	}
	if len(recs) == 0 {
		slog.InfoContext(ctx, "Expense no longer stored, removing from mirror", "expense_id", expenseID)
		return w.syncDelete(ctx, expenseID)
	}

	if err := w.mirror.ReplaceExpense(ctx, expenseID, recs); err != nil {
		if markErr := w.store.MarkSyncError(ctx, expenseID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "expense_id", expenseID, "error", markErr)
		}
		return fmt.Errorf("mirror expense: %w", err)
	}

	if err := w.store.MarkSynced(ctx, expenseID); err != nil {
		// The mirror already has the lines; the next poll retries harmlessly.
		slog.ErrorContext(ctx, "Failed to mark as synced", "expense_id", expenseID, "error", err)
	}

	fields := applog.NewFields().
		WithOperation(applog.OpSync).
		WithExpense(expenseID, recs[0].Total, len(recs))
	slog.InfoContext(ctx, "Successfully synced expense", fields.ToSlice()...)
	return nil
}

func (w *SyncWorker) syncDelete(ctx context.Context, expenseID string) error {
	n, err := w.mirror.DeleteExpense(ctx, expenseID)
	if err != nil {
		return fmt.Errorf("delete from mirror: %w", err)
	}
	if err := w.store.MarkDeleteSynced(ctx, expenseID); err != nil {
		slog.ErrorContext(ctx, "Failed to clear delete marker", "expense_id", expenseID, "error", err)
	}
	fields := applog.NewFields().
		WithOperation(applog.OpDelete).
		WithExpense(expenseID, "", n)
	slog.InfoContext(ctx, "Successfully deleted expense from mirror", fields.ToSlice()...)
	return nil
}

// ProcessPending replays expenses whose events were lost. It is the
// backup path next to AMQP and runs from the poll loop.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	return w.processPending(ctx, w.batchSize)
}

// StartupSyncCheck is ProcessPending with a larger batch, run once when
// the worker starts.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	if err := w.processPending(ctx, w.batchSize*5); err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	return nil
}

func (w *SyncWorker) processPending(ctx context.Context, limit int) error {
	deletes, err := w.store.PendingDeletes(ctx, limit)
	if err != nil {
		return fmt.Errorf("get pending deletes: %w", err)
	}
	pending, err := w.store.PendingSync(ctx, limit)
	if err != nil {
		return fmt.Errorf("get pending expenses: %w", err)
	}
	if len(deletes) == 0 && len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending expenses",
		"deletes", len(deletes),
		"upserts", len(pending))

	var synced, failed int
	for _, id := range deletes {
		if err := w.syncDelete(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to sync delete", "expense_id", id, "error", err)
			failed++
			continue
		}
		synced++
	}
	for _, id := range pending {
		if err := w.syncExpense(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to sync expense", "expense_id", id, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Pending sync completed",
		"synced", synced,
		"errors", failed)
	return nil
}
