package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"spendlens/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// fakeSheets serves the three values endpoints the client uses.
type fakeSheets struct {
	mu     sync.Mutex
	values [][]interface{}
	writes int
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":clear"):
		f.values = nil
		w.Write([]byte(`{}`))
	case r.Method == http.MethodPut:
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.values = vr.Values
		f.writes++
		w.Write([]byte(`{}`))
	case r.Method == http.MethodGet:
		json.NewEncoder(w).Encode(map[string]any{
			"range":          "Expenses!A1:I",
			"majorDimension": "ROWS",
			"values":         f.values,
		})
	default:
		http.NotFound(w, r)
	}
}

func newFakeClient(t *testing.T) (*Client, *fakeSheets) {
	t.Helper()
	fake := &fakeSheets{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := newClient(context.Background(), Config{SpreadsheetID: "sheet-id"},
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("newClient: %v", err)
	}
	return c, fake
}

func line(id, category, amount string) core.Record {
	return core.Record{
		Date: "05.01.2024", Person: "Alice", Store: "Coop", Total: "30.00",
		Category: category, SubCategory: "Food", Amount: amount,
		ExpenseID: id, CreatedAt: "2024-01-05 10:00:00",
	}
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("expected missing GOOGLE_SPREADSHEET_ID, got %v", err)
	}
}

func TestLoadCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	b, err := loadCredentials(context.Background(), Config{CredentialsJSON: `{"type":"service_account"}`})
	if err != nil || !strings.Contains(string(b), "service_account") {
		t.Fatalf("expected inline credentials, got %q, %v", b, err)
	}

	_, err = loadCredentials(context.Background(), Config{CredentialsFile: "/does/not/exist.json"})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected read error, got %v", err)
	}

	_, err = loadCredentials(context.Background(), Config{})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected missing credentials error, got %v", err)
	}
}

func TestClient_ReplaceAndDelete(t *testing.T) {
	ctx := context.Background()
	c, fake := newFakeClient(t)

	if err := c.ReplaceExpense(ctx, "aaaa1111", []core.Record{line("aaaa1111", "Groceries", "20.00"), line("aaaa1111", "Household", "10.00")}); err != nil {
		t.Fatalf("ReplaceExpense: %v", err)
	}
	if err := c.ReplaceExpense(ctx, "bbbb2222", []core.Record{line("bbbb2222", "Transport", "5.00")}); err != nil {
		t.Fatalf("ReplaceExpense: %v", err)
	}
	if len(fake.values) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d rows", len(fake.values))
	}

	// Replacing moves the expense to the end with its new lines.
	if err := c.ReplaceExpense(ctx, "aaaa1111", []core.Record{line("aaaa1111", "Groceries", "30.00")}); err != nil {
		t.Fatalf("ReplaceExpense: %v", err)
	}
	all, err := c.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(all) != 2 || all[0].ExpenseID != "bbbb2222" || all[1].Amount != "30.00" {
		t.Fatalf("unexpected records after replace: %+v", all)
	}

	recs, err := c.ExpenseRecords(ctx, "aaaa1111")
	if err != nil || len(recs) != 1 {
		t.Fatalf("expected one line for aaaa1111, got %v, %v", recs, err)
	}

	writes := fake.writes
	n, err := c.DeleteExpense(ctx, "missing")
	if err != nil || n != 0 {
		t.Fatalf("expected no-op delete, got %d, %v", n, err)
	}
	if fake.writes != writes {
		t.Error("deleting an unknown expense should not rewrite the sheet")
	}

	n, err = c.DeleteExpense(ctx, "bbbb2222")
	if err != nil || n != 1 {
		t.Fatalf("expected 1 line removed, got %d, %v", n, err)
	}
	all, _ = c.ListRecords(ctx)
	if len(all) != 1 || all[0].ExpenseID != "aaaa1111" {
		t.Fatalf("unexpected records after delete: %+v", all)
	}
}

func TestClient_NilService(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	if _, err := c.ListRecords(context.Background()); err == nil {
		t.Fatal("expected error with nil service")
	}
}
