package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vladimiradmaev/macro-diary/internal/config"
	"github.com/vladimiradmaev/macro-diary/internal/database"
	"github.com/vladimiradmaev/macro-diary/internal/domain"
)

// PostgresRepository stores one JSON row per day through gorm
type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgresRepository(cfg config.DBConfig) (*PostgresRepository, error) {
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		return nil, err
	}
	return &PostgresRepository{db: db}, nil
}

// NewPostgresRepositoryWithDB wraps an already migrated connection
func NewPostgresRepositoryWithDB(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Load(ctx context.Context) (domain.Snapshot, error) {
	var records []database.DailyLogRecord
	if err := r.db.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load daily logs: %w", err)
	}

	logs := make(domain.Snapshot, len(records))
	for _, rec := range records {
		var log domain.DailyLog
		if err := json.Unmarshal(rec.Payload, &log); err != nil {
			return nil, fmt.Errorf("%w: log %s: %v", ErrCorrupt, rec.Date, err)
		}
		logs[rec.Date] = log
	}
	return logs, nil
}

func (r *PostgresRepository) Save(ctx context.Context, snapshot domain.Snapshot, date string) error {
	db := r.db.WithContext(ctx)
	log, ok := snapshot[date]
	if !ok {
		return db.Delete(&database.DailyLogRecord{}, "date = ?", date).Error
	}
	payload, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("failed to encode log %s: %w", date, err)
	}

	rec := database.DailyLogRecord{Date: date, Payload: payload}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to save log %s: %w", date, err)
	}
	return nil
}

func (r *PostgresRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
