package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"spendlens/internal/amqp"
	"spendlens/internal/core"
	"spendlens/internal/sheets/memory"
)

type publishedEvent struct {
	id string
	op amqp.Op
}

type fakePublisher struct {
	events []publishedEvent
	err    error
}

func (f *fakePublisher) PublishExpenseEvent(_ context.Context, id string, op amqp.Op) error {
	f.events = append(f.events, publishedEvent{id, op})
	return f.err
}

type countingInvalidator struct{ purges int }

func (c *countingInvalidator) Purge() { c.purges++ }

func newTestExpenseService(t *testing.T) (*ExpenseService, *memory.Store, *fakePublisher, *countingInvalidator) {
	t.Helper()
	repo := memory.New(core.Taxonomy{
		Stores: []core.Store{{Name: "Coop", DefaultCategory: "Groceries", DefaultSubCategory: "Food"}},
	})
	pub := &fakePublisher{}
	inv := &countingInvalidator{}
	svc := NewExpenseService(repo, pub, inv, Settings{})
	svc.now = func() time.Time { return time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC) }
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("%08x", n)
	}
	return svc, repo, pub, inv
}

func validInput() ExpenseInput {
	return ExpenseInput{
		Date:   "2024-03-05",
		Person: " Alice ",
		Store:  "Migros",
		Total:  "30,00",
		Lines: []LineInput{
			{Category: "Groceries", SubCategory: "Food", Amount: "20.00"},
			{Category: "Household", Amount: "10"},
		},
	}
}

func TestExpenseService_Create(t *testing.T) {
	ctx := context.Background()
	svc, repo, pub, inv := newTestExpenseService(t)

	e, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if e.ID != "00000001" {
		t.Errorf("expected id 00000001, got %s", e.ID)
	}
	if e.CreatedAt != "2024-03-05 14:30:00" {
		t.Errorf("expected created_at 2024-03-05 14:30:00, got %s", e.CreatedAt)
	}

	recs, _ := repo.ExpenseRecords(ctx, e.ID)
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	r := recs[0]
	if r.Date != "05.03.2024" || r.Person != "Alice" || r.Total != "30.00" || r.Amount != "20.00" {
		t.Errorf("unexpected record: %+v", r)
	}
	if recs[1].Amount != "10.00" {
		t.Errorf("expected amount rendered 10.00, got %s", recs[1].Amount)
	}

	if len(pub.events) != 1 || pub.events[0] != (publishedEvent{e.ID, amqp.OpUpsert}) {
		t.Errorf("expected one upsert event, got %+v", pub.events)
	}
	if inv.purges != 1 {
		t.Errorf("expected cache purge, got %d", inv.purges)
	}
}

func TestExpenseService_CreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ExpenseInput)
		want   error
	}{
		{"bad date", func(in *ExpenseInput) { in.Date = "31.02.2024" }, core.ErrInvalidDate},
		{"bad total", func(in *ExpenseInput) { in.Total = "abc" }, core.ErrInvalidTotal},
		{"zero total", func(in *ExpenseInput) { in.Total = "0" }, core.ErrInvalidTotal},
		{"no lines", func(in *ExpenseInput) { in.Lines = nil }, core.ErrNoLines},
		{"bad line amount", func(in *ExpenseInput) { in.Lines[1].Amount = "x" }, core.ErrInvalidAmount},
		{"negative line", func(in *ExpenseInput) { in.Lines[1].Amount = "-10" }, core.ErrInvalidAmount},
		{"blank category", func(in *ExpenseInput) { in.Lines[0].Category = " " }, core.ErrEmptyCategory},
		{"mismatch by a cent", func(in *ExpenseInput) { in.Lines[1].Amount = "9.99" }, core.ErrBreakdownMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, pub, _ := newTestExpenseService(t)
			in := validInput()
			tt.mutate(&in)

			_, err := svc.Create(context.Background(), in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if recs, _ := repo.ListRecords(context.Background()); len(recs) != 0 {
				t.Errorf("nothing should be stored, got %d records", len(recs))
			}
			if len(pub.events) != 0 {
				t.Errorf("no event should be published, got %+v", pub.events)
			}
		})
	}
}

func TestExpenseService_StoreDefaults(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, _ := newTestExpenseService(t)

	in := ExpenseInput{
		Date:  "05.03.2024",
		Store: "Coop",
		Total: "12.00",
		Lines: []LineInput{{Amount: "12.00"}},
	}
	e, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	recs, _ := repo.ExpenseRecords(ctx, e.ID)
	if recs[0].Category != "Groceries" || recs[0].SubCategory != "Food" {
		t.Errorf("expected store defaults applied, got %+v", recs[0])
	}
}

func TestExpenseService_UpdatePreservesCreatedAt(t *testing.T) {
	ctx := context.Background()
	svc, repo, pub, _ := newTestExpenseService(t)

	e, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	svc.now = func() time.Time { return time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC) }
	in := validInput()
	in.Total = "45.00"
	in.Lines = []LineInput{{Category: "Transport", Amount: "45"}}
	if _, err := svc.Update(ctx, e.ID, in); err != nil {
		t.Fatalf("Update: %v", err)
	}

	recs, _ := repo.ExpenseRecords(ctx, e.ID)
	if len(recs) != 1 || recs[0].Category != "Transport" || recs[0].Total != "45.00" {
		t.Fatalf("expected replaced lines, got %+v", recs)
	}
	if recs[0].CreatedAt != "2024-03-05 14:30:00" {
		t.Errorf("created_at should be preserved, got %s", recs[0].CreatedAt)
	}
	if len(pub.events) != 2 || pub.events[1].op != amqp.OpUpsert {
		t.Errorf("expected a second upsert event, got %+v", pub.events)
	}

	if _, err := svc.Update(ctx, "missing1", in); !errors.Is(err, core.ErrExpenseNotFound) {
		t.Errorf("expected ErrExpenseNotFound, got %v", err)
	}
}

func TestExpenseService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, repo, pub, _ := newTestExpenseService(t)

	e, _ := svc.Create(ctx, validInput())
	if err := svc.Delete(ctx, e.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if recs, _ := repo.ListRecords(ctx); len(recs) != 0 {
		t.Errorf("expected no records, got %d", len(recs))
	}
	if last := pub.events[len(pub.events)-1]; last.op != amqp.OpDelete {
		t.Errorf("expected delete event, got %+v", last)
	}

	if err := svc.Delete(ctx, e.ID); !errors.Is(err, core.ErrExpenseNotFound) {
		t.Errorf("expected ErrExpenseNotFound on second delete, got %v", err)
	}
	if _, err := svc.Get(ctx, e.ID); !errors.Is(err, core.ErrExpenseNotFound) {
		t.Errorf("expected ErrExpenseNotFound from Get, got %v", err)
	}
}

func TestExpenseService_PublishFailureKeepsWrite(t *testing.T) {
	ctx := context.Background()
	svc, repo, pub, _ := newTestExpenseService(t)
	pub.err = errors.New("broker down")

	e, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create should succeed when publishing fails: %v", err)
	}
	if recs, _ := repo.ExpenseRecords(ctx, e.ID); len(recs) != 2 {
		t.Errorf("expected stored records, got %d", len(recs))
	}
}

func TestExpenseService_IDCollisionRetries(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestExpenseService(t)
	svc.newID = func() string { return "deadbeef" }

	if _, err := svc.Create(ctx, validInput()); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if _, err := svc.Create(ctx, validInput()); err == nil {
		t.Fatal("expected error when every generated id is taken")
	}
}

func TestNewExpenseID(t *testing.T) {
	id := newExpenseID()
	if len(id) != 8 {
		t.Fatalf("expected 8 characters, got %q", id)
	}
	for _, c := range id {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			t.Fatalf("expected hex id, got %q", id)
		}
	}
}

func TestExpenseService_Taxonomy(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestExpenseService(t)

	if err := svc.AddPerson(ctx, core.Person{Name: "Bob"}); err != nil {
		t.Fatalf("AddPerson: %v", err)
	}
	if err := svc.AddPerson(ctx, core.Person{Name: ""}); !errors.Is(err, core.ErrEmptyName) {
		t.Errorf("expected ErrEmptyName, got %v", err)
	}
	if err := svc.AddCategory(ctx, core.Category{Name: "Leisure", SubCategories: []string{"Cinema"}}); err != nil {
		t.Fatalf("AddCategory: %v", err)
	}
	if err := svc.AddStore(ctx, core.Store{Name: "Cinema City", DefaultCategory: "Leisure"}); err != nil {
		t.Fatalf("AddStore: %v", err)
	}

	tax, err := svc.Taxonomy(ctx)
	if err != nil {
		t.Fatalf("Taxonomy: %v", err)
	}
	if len(tax.People) != 1 || len(tax.Categories) != 1 || len(tax.Stores) != 2 {
		t.Errorf("unexpected taxonomy: %+v", tax)
	}
}
