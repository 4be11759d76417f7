package backend

import (
	"context"
	"fmt"
	"log/slog"

	"spendlens/internal/core"
	"spendlens/internal/sheets"
	"spendlens/internal/sheets/memory"
	"spendlens/internal/storage"
)

type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend opens the backend named by config.Type.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	if err := f.seedTaxonomyIfEmpty(ctx, repo, config.SeedDir); err != nil {
		repo.Close()
		return nil, err
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &BackendResult{
		Repository: repo,
		Readiness:  repo,
		Cleanup:    repo.Close,
	}, nil
}

// seedTaxonomyIfEmpty copies the seed files into a fresh database.
func (f *DefaultFactory) seedTaxonomyIfEmpty(ctx context.Context, repo *storage.SQLiteRepository, seedDir string) error {
	tax, err := repo.Taxonomy(ctx)
	if err != nil {
		return fmt.Errorf("read taxonomy: %w", err)
	}
	if len(tax.People)+len(tax.Stores)+len(tax.Categories) > 0 {
		return nil
	}

	seed, err := memory.NewFromFiles(seedDir).Taxonomy(ctx)
	if err != nil {
		return fmt.Errorf("read seed taxonomy: %w", err)
	}
	if err := copyTaxonomy(ctx, repo, seed); err != nil {
		return fmt.Errorf("seed taxonomy: %w", err)
	}
	f.logger.InfoContext(ctx, "Seeded empty taxonomy",
		"seed_dir", seedDir,
		"people", len(seed.People),
		"stores", len(seed.Stores),
		"categories", len(seed.Categories))
	return nil
}

// copyTaxonomy adds categories before stores so store defaults refer to
// known categories.
func copyTaxonomy(ctx context.Context, w sheets.TaxonomyWriter, tax core.Taxonomy) error {
	for _, p := range tax.People {
		if err := w.AddPerson(ctx, p); err != nil {
			return err
		}
	}
	for _, c := range tax.Categories {
		if err := w.AddCategory(ctx, c); err != nil {
			return err
		}
	}
	for _, s := range tax.Stores {
		if err := w.AddStore(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) *BackendResult {
	dir := config.SeedDir
	if dir == "" {
		dir = "."
	}
	store := memory.NewFromFiles(dir)
	f.logger.Info("Initialized memory backend", "seed_dir", dir)
	return &BackendResult{Repository: store}
}
