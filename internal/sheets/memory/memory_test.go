package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"spendlens/internal/core"
)

func TestMemoryStoreReplaceAndDelete(t *testing.T) {
	ctx := context.Background()
	s := New(core.Taxonomy{})

	first := []core.Record{
		{ExpenseID: "a", Amount: "1.00"},
		{ExpenseID: "a", Amount: "2.00"},
	}
	if err := s.ReplaceExpense(ctx, "a", first); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := s.ReplaceExpense(ctx, "b", []core.Record{{ExpenseID: "b", Amount: "5.00"}}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := s.ReplaceExpense(ctx, "a", []core.Record{{ExpenseID: "a", Amount: "3.00"}}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	all, _ := s.ListRecords(ctx)
	if len(all) != 2 {
		t.Fatalf("expected 2 records, got %d", len(all))
	}
	lines, _ := s.ExpenseRecords(ctx, "a")
	if len(lines) != 1 || lines[0].Amount != "3.00" {
		t.Fatalf("unexpected lines for a: %v", lines)
	}

	n, err := s.DeleteExpense(ctx, "b")
	if err != nil || n != 1 {
		t.Fatalf("expected 1 deleted, got %d (%v)", n, err)
	}
	if n, _ := s.DeleteExpense(ctx, "missing"); n != 0 {
		t.Fatalf("expected 0 deleted, got %d", n)
	}
}

func TestMemoryStoreTaxonomy(t *testing.T) {
	ctx := context.Background()
	s := New(core.Taxonomy{People: []core.Person{{Name: "Anna"}, {Name: "Anna"}}})

	if err := s.AddPerson(ctx, core.Person{Name: " "}); err != core.ErrEmptyName {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	_ = s.AddStore(ctx, core.Store{Name: "Coop"})
	_ = s.AddStore(ctx, core.Store{Name: "Coop", DefaultCategory: "Groceries"})
	_ = s.AddCategory(ctx, core.Category{Name: "Groceries", SubCategories: []string{"Food"}})
	_ = s.AddCategory(ctx, core.Category{Name: "Groceries", SubCategories: []string{"Drinks", "Food"}})

	tax, err := s.Taxonomy(ctx)
	if err != nil {
		t.Fatalf("taxonomy: %v", err)
	}
	if len(tax.People) != 1 {
		t.Fatalf("expected 1 person, got %v", tax.People)
	}
	if len(tax.Stores) != 1 || tax.Stores[0].DefaultCategory != "Groceries" {
		t.Fatalf("expected updated store, got %v", tax.Stores)
	}
	if len(tax.Categories) != 1 || len(tax.Categories[0].SubCategories) != 2 {
		t.Fatalf("expected merged subcategories, got %v", tax.Categories)
	}
}

func TestNewFromFilesSeeds(t *testing.T) {
	dir := t.TempDir()
	s := NewFromFiles(dir)
	tax, _ := s.Taxonomy(context.Background())
	if len(tax.Categories) == 0 {
		t.Fatalf("expected defaults when files missing")
	}

	mustWrite := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	mustWrite("seed_people.txt", "# people\nAnna\nLuca\nAnna\n")
	mustWrite("seed_stores.txt", "Esso;Transport;Fuel\nCoop\n")
	mustWrite("seed_categories.txt", "Groceries > Food\nGroceries > Drinks\nRent\n\n")

	s = NewFromFiles(dir)
	tax, _ = s.Taxonomy(context.Background())
	if len(tax.People) != 2 {
		t.Fatalf("unexpected people: %v", tax.People)
	}
	if len(tax.Stores) != 2 || tax.Stores[0].DefaultSubCategory != "Fuel" {
		t.Fatalf("unexpected stores: %v", tax.Stores)
	}
	if len(tax.Categories) != 2 || tax.Categories[0].Name != "Groceries" || len(tax.Categories[0].SubCategories) != 2 {
		t.Fatalf("unexpected categories: %v", tax.Categories)
	}
}
