package backend

import (
	"context"

	"spendlens/internal/services"
)

// Pinger reports whether a backend is usable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CleanupFunc releases the resources held by a backend.
type CleanupFunc func() error

// BackendResult is an opened backend.
type BackendResult struct {
	Repository services.Repository
	// Readiness is nil for backends that are always ready.
	Readiness Pinger
	Cleanup   CleanupFunc
}

// Close runs Cleanup if set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type BackendType

	// SQLiteDBPath is required by the sqlite backend.
	SQLiteDBPath string

	// SeedDir holds the seed_*.txt taxonomy files. The memory backend
	// always reads them; the sqlite backend only when its taxonomy is
	// empty.
	SeedDir string
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
