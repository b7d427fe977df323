package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vladimiradmaev/macro-diary/internal/domain"
)

// SQLiteRepository stores one row per day
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo := &SQLiteRepository{db: db}
	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS daily_logs (
        date TEXT PRIMARY KEY,
        payload TEXT NOT NULL,
        updated_at DATETIME NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_daily_logs_updated_at ON daily_logs(updated_at);
    `
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Load(ctx context.Context) (domain.Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT date, payload FROM daily_logs`)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily logs: %w", err)
	}
	defer rows.Close()

	logs := domain.Snapshot{}
	for rows.Next() {
		var date, payload string
		if err := rows.Scan(&date, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan daily log: %w", err)
		}
		var log domain.DailyLog
		if err := json.Unmarshal([]byte(payload), &log); err != nil {
			return nil, fmt.Errorf("%w: log %s: %v", ErrCorrupt, date, err)
		}
		logs[date] = log
	}
	return logs, rows.Err()
}

// Save upserts only the changed day
func (r *SQLiteRepository) Save(ctx context.Context, snapshot domain.Snapshot, date string) error {
	log, ok := snapshot[date]
	if !ok {
		_, err := r.db.ExecContext(ctx, `DELETE FROM daily_logs WHERE date = ?`, date)
		return err
	}
	payload, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("failed to encode log %s: %w", date, err)
	}

	query := `
        INSERT INTO daily_logs (date, payload, updated_at)
        VALUES (?, ?, ?)
        ON CONFLICT(date) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
    `
	if _, err := r.db.ExecContext(ctx, query, date, string(payload), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save log %s: %w", date, err)
	}
	return nil
}
