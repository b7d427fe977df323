package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/vladimiradmaev/macro-diary/internal/config"
	"github.com/vladimiradmaev/macro-diary/internal/domain"
)

// ErrCorrupt is returned by Load when stored data cannot be decoded
var ErrCorrupt = errors.New("stored diary is corrupt")

// LogRepository persists daily logs between runs
type LogRepository interface {
	// Load returns every stored log. A missing store is empty, not an error.
	Load(ctx context.Context) (domain.Snapshot, error)
	// Save persists snapshot after date was changed
	Save(ctx context.Context, snapshot domain.Snapshot, date string) error
	Close() error
}

// New opens the repository selected by cfg.Driver
func New(cfg *config.Config) (LogRepository, error) {
	switch cfg.Storage.Driver {
	case config.DriverFile, "":
		return NewFileRepository(cfg.Storage.Path), nil
	case config.DriverSQLite:
		return NewSQLiteRepository(cfg.Storage.Path)
	case config.DriverPostgres:
		return NewPostgresRepository(cfg.DB)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
