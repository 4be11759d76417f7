package worker

import (
	"context"
	"errors"
	"testing"

	"spendlens/internal/amqp"
	"spendlens/internal/core"
	"spendlens/internal/sheets/memory"
)

type fakeSyncStore struct {
	lines          map[string][]core.Record
	pending        []string
	deletes        []string
	synced         map[string]bool
	syncErrors     map[string]bool
	deletesCleared map[string]bool
}

func newFakeSyncStore() *fakeSyncStore {
	return &fakeSyncStore{
		lines:          map[string][]core.Record{},
		synced:         map[string]bool{},
		syncErrors:     map[string]bool{},
		deletesCleared: map[string]bool{},
	}
}

func (f *fakeSyncStore) ExpenseRecords(_ context.Context, id string) ([]core.Record, error) {
	return f.lines[id], nil
}
func (f *fakeSyncStore) PendingSync(context.Context, int) ([]string, error)    { return f.pending, nil }
func (f *fakeSyncStore) PendingDeletes(context.Context, int) ([]string, error) { return f.deletes, nil }
func (f *fakeSyncStore) MarkSynced(_ context.Context, id string) error {
	f.synced[id] = true
	return nil
}
func (f *fakeSyncStore) MarkSyncError(_ context.Context, id string) error {
	f.syncErrors[id] = true
	return nil
}
func (f *fakeSyncStore) MarkDeleteSynced(_ context.Context, id string) error {
	f.deletesCleared[id] = true
	return nil
}

type failingMirror struct{}

func (failingMirror) ReplaceExpense(context.Context, string, []core.Record) error {
	return errors.New("quota exceeded")
}
func (failingMirror) DeleteExpense(context.Context, string) (int, error) {
	return 0, errors.New("quota exceeded")
}

func rec(id, amount string) core.Record {
	return core.Record{Date: "05.01.2024", Person: "Alice", Amount: amount, Total: amount, ExpenseID: id}
}

func TestSyncWorker_HandleUpsert(t *testing.T) {
	ctx := context.Background()
	store := newFakeSyncStore()
	store.lines["aaaa1111"] = []core.Record{rec("aaaa1111", "12.00")}
	mirror := memory.New(core.Taxonomy{})

	w := NewSyncWorker(store, mirror, 10)
	if err := w.HandleEvent(ctx, amqp.NewExpenseEvent("aaaa1111", amqp.OpUpsert)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	got, _ := mirror.ExpenseRecords(ctx, "aaaa1111")
	if len(got) != 1 || got[0].Amount != "12.00" {
		t.Fatalf("expected mirrored line, got %+v", got)
	}
	if !store.synced["aaaa1111"] {
		t.Error("expense should be marked synced")
	}
}

func TestSyncWorker_UpsertOfDeletedExpenseCleansMirror(t *testing.T) {
	ctx := context.Background()
	store := newFakeSyncStore()
	mirror := memory.New(core.Taxonomy{})
	mirror.ReplaceExpense(ctx, "aaaa1111", []core.Record{rec("aaaa1111", "1.00")})

	w := NewSyncWorker(store, mirror, 10)
	if err := w.HandleEvent(ctx, amqp.NewExpenseEvent("aaaa1111", amqp.OpUpsert)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	got, _ := mirror.ListRecords(ctx)
	if len(got) != 0 {
		t.Errorf("expected mirror emptied, got %+v", got)
	}
	if !store.deletesCleared["aaaa1111"] {
		t.Error("delete marker should be cleared")
	}
}

func TestSyncWorker_MirrorFailure(t *testing.T) {
	ctx := context.Background()
	store := newFakeSyncStore()
	store.lines["aaaa1111"] = []core.Record{rec("aaaa1111", "12.00")}

	w := NewSyncWorker(store, failingMirror{}, 10)
	if err := w.HandleEvent(ctx, amqp.NewExpenseEvent("aaaa1111", amqp.OpUpsert)); err == nil {
		t.Fatal("expected error so the message is requeued")
	}
	if !store.syncErrors["aaaa1111"] || store.synced["aaaa1111"] {
		t.Error("expense should be marked with sync error only")
	}

	if err := w.HandleEvent(ctx, amqp.NewExpenseEvent("aaaa1111", amqp.OpDelete)); err == nil {
		t.Fatal("expected delete error")
	}
	if store.deletesCleared["aaaa1111"] {
		t.Error("delete marker must stay when the mirror failed")
	}
}

func TestSyncWorker_ProcessPending(t *testing.T) {
	ctx := context.Background()
	store := newFakeSyncStore()
	store.lines["aaaa1111"] = []core.Record{rec("aaaa1111", "3.00"), rec("aaaa1111", "4.00")}
	store.lines["bbbb2222"] = []core.Record{rec("bbbb2222", "5.00")}
	store.pending = []string{"aaaa1111", "bbbb2222"}
	store.deletes = []string{"cccc3333"}

	mirror := memory.New(core.Taxonomy{})
	mirror.ReplaceExpense(ctx, "cccc3333", []core.Record{rec("cccc3333", "9.00")})

	w := NewSyncWorker(store, mirror, 0)
	if w.batchSize != 10 {
		t.Errorf("expected default batch size 10, got %d", w.batchSize)
	}
	if err := w.StartupSyncCheck(ctx); err != nil {
		t.Fatalf("StartupSyncCheck: %v", err)
	}

	all, _ := mirror.ListRecords(ctx)
	if len(all) != 3 {
		t.Fatalf("expected 3 mirrored lines, got %+v", all)
	}
	for _, r := range all {
		if r.ExpenseID == "cccc3333" {
			t.Error("deleted expense should be gone from the mirror")
		}
	}
	if !store.synced["aaaa1111"] || !store.synced["bbbb2222"] || !store.deletesCleared["cccc3333"] {
		t.Errorf("unexpected sync state: synced=%v cleared=%v", store.synced, store.deletesCleared)
	}
}
