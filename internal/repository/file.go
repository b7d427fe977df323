package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vladimiradmaev/macro-diary/internal/domain"
	"github.com/vladimiradmaev/macro-diary/internal/logger"
)

// FileRepository keeps the whole diary in one JSON document
type FileRepository struct {
	path string
	mu   sync.Mutex
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

func (r *FileRepository) Load(ctx context.Context) (domain.Snapshot, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.path, err)
	}
	if len(data) == 0 {
		return domain.Snapshot{}, nil
	}

	var logs domain.Snapshot
	if err := json.Unmarshal(data, &logs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, r.quarantine(err))
	}
	if logs == nil {
		logs = domain.Snapshot{}
	}
	return logs, nil
}

// Save rewrites the document through a temporary file so a crash never
// leaves a half-written diary behind.
func (r *FileRepository) Save(ctx context.Context, snapshot domain.Snapshot, date string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode diary: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write diary: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write diary: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", r.path, err)
	}
	return nil
}

// quarantine moves an unreadable document aside so the next Save does not
// overwrite it
func (r *FileRepository) quarantine(cause error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	aside := fmt.Sprintf("%s.corrupt-%s", r.path, time.Now().Format("20060102-150405"))
	if err := os.Rename(r.path, aside); err != nil {
		return fmt.Errorf("%v; failed to move %s aside: %w", cause, r.path, err)
	}
	logger.Warn("Moved unreadable diary aside", "path", r.path, "moved_to", aside)
	return fmt.Errorf("%v; moved to %s", cause, aside)
}

func (r *FileRepository) Close() error { return nil }
