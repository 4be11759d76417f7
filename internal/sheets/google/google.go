package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"spendlens/internal/core"
	ports "spendlens/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client mirrors expense lines into one sheet of a spreadsheet. Every
// write reads the whole sheet, edits it in memory and writes it back, so
// writes through one Client are serialized.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string

	mu sync.Mutex
}

var (
	_ ports.RecordWriter   = (*Client)(nil)
	_ ports.RecordLister   = (*Client)(nil)
	_ ports.ExpenseDeleter = (*Client)(nil)
)

type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := loadCredentials(ctx, cfg)
	if err != nil {
		return nil, err
	}
	opts = append([]goption.ClientOption{
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, opts...)
	return newClient(ctx, cfg, opts...)
}

func newClient(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = "Expenses"
	}
	slog.InfoContext(ctx, "Google Sheets service created",
		"spreadsheet_id", cfg.SpreadsheetID,
		"sheet", sheet)
	return &Client{svc: svc, spreadsheetID: cfg.SpreadsheetID, sheetName: sheet}, nil
}

// loadCredentials prefers inline JSON, then a file, then
// GOOGLE_APPLICATION_CREDENTIALS.
func loadCredentials(ctx context.Context, cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.CredentialsJSON)
	file := strings.TrimSpace(cfg.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		return []byte(inline), nil
	case file != "":
		slog.InfoContext(ctx, "Reading service account credentials", "path", file)
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func (c *Client) fullRange() string {
	return fmt.Sprintf("%s!A:%s", c.sheetName, lastColumn)
}

func (c *Client) readAll(ctx context.Context) ([]core.Record, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := c.fullRange()
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return parseRows(resp.Values)
}

func (c *Client) writeAll(ctx context.Context, recs []core.Record) error {
	rng := c.fullRange()
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	start := fmt.Sprintf("%s!A1", c.sheetName)
	vr := &gsheet.ValueRange{Values: buildRows(recs)}
	// RAW keeps dates and amounts as the exact strings stored locally.
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, start, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", start, err)
	}
	return nil
}

func withoutExpense(recs []core.Record, expenseID string) ([]core.Record, int) {
	kept := recs[:0:0]
	for _, r := range recs {
		if r.ExpenseID == expenseID {
			continue
		}
		kept = append(kept, r)
	}
	return kept, len(recs) - len(kept)
}

// ReplaceExpense implements ports.RecordWriter
func (c *Client) ReplaceExpense(ctx context.Context, expenseID string, recs []core.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	all, err := c.readAll(ctx)
	if err != nil {
		return err
	}
	all, _ = withoutExpense(all, expenseID)
	all = append(all, recs...)
	if err := c.writeAll(ctx, all); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Expense mirrored to Google Sheets",
		"expense_id", expenseID,
		"lines", len(recs),
		"sheet", c.sheetName)
	return nil
}

// DeleteExpense implements ports.ExpenseDeleter
func (c *Client) DeleteExpense(ctx context.Context, expenseID string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	all, err := c.readAll(ctx)
	if err != nil {
		return 0, err
	}
	kept, removed := withoutExpense(all, expenseID)
	if removed == 0 {
		return 0, nil
	}
	if err := c.writeAll(ctx, kept); err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "Expense removed from Google Sheets",
		"expense_id", expenseID,
		"lines", removed)
	return removed, nil
}

// ListRecords implements ports.RecordLister
func (c *Client) ListRecords(ctx context.Context) ([]core.Record, error) {
	return c.readAll(ctx)
}

func (c *Client) ExpenseRecords(ctx context.Context, expenseID string) ([]core.Record, error) {
	all, err := c.readAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []core.Record
	for _, r := range all {
		if r.ExpenseID == expenseID {
			out = append(out, r)
		}
	}
	return out, nil
}
