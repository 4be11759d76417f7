package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"spendlens/internal/config"
	"spendlens/internal/core"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite with path", Config{Type: SQLiteBackend, SQLiteDBPath: "data/x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"sqlite in memory", Config{Type: SQLiteBackend, SQLiteDBPath: ":memory:"}, true},
		{"unknown type", Config{Type: "sheets"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "csv"}); err == nil {
		t.Error("expected error for unknown backend")
	}
	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "a.db", SeedDir: "seed"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "a.db" || cfg.SeedDir != "seed" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func writeSeeds(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"seed_people.txt":     "Alice\nBob\n",
		"seed_stores.txt":     "Coop;Groceries;Food\n",
		"seed_categories.txt": "Groceries > Food\nTransport\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestCreateMemoryBackend(t *testing.T) {
	ctx := context.Background()
	res, err := NewFactory(nil).CreateBackend(ctx, Config{Type: MemoryBackend, SeedDir: writeSeeds(t)})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	if res.Readiness != nil {
		t.Error("memory backend should have no readiness check")
	}
	if err := res.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}

	tax, err := res.Repository.Taxonomy(ctx)
	if err != nil {
		t.Fatalf("Taxonomy: %v", err)
	}
	if len(tax.People) != 2 || len(tax.Stores) != 1 || len(tax.Categories) != 2 {
		t.Errorf("unexpected taxonomy %+v", tax)
	}
}

func TestCreateSQLiteBackendSeedsOnce(t *testing.T) {
	ctx := context.Background()
	seeds := writeSeeds(t)
	cfg := Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "db", "spendlens.db"),
		SeedDir:      seeds,
	}

	res, err := NewFactory(nil).CreateBackend(ctx, cfg)
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	if res.Readiness == nil {
		t.Fatal("sqlite backend should report readiness")
	}
	if err := res.Readiness.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
	if err := res.Repository.AddPerson(ctx, core.Person{Name: "Carol"}); err != nil {
		t.Fatalf("AddPerson: %v", err)
	}
	if err := res.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopening must not reseed a populated taxonomy.
	if err := os.WriteFile(filepath.Join(seeds, "seed_people.txt"), []byte("Dave\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err = NewFactory(nil).CreateBackend(ctx, cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer res.Close()

	tax, err := res.Repository.Taxonomy(ctx)
	if err != nil {
		t.Fatalf("Taxonomy: %v", err)
	}
	names := map[string]bool{}
	for _, p := range tax.People {
		names[p.Name] = true
	}
	if !names["Alice"] || !names["Bob"] || !names["Carol"] || names["Dave"] {
		t.Errorf("unexpected people %+v", tax.People)
	}
}
