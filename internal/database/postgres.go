package database

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/vladimiradmaev/macro-diary/internal/config"
	"github.com/vladimiradmaev/macro-diary/internal/database/migrations"
	"github.com/vladimiradmaev/macro-diary/internal/logger"
)

// DailyLogRecord is the row of one daily log. The log itself is kept as JSON.
type DailyLogRecord struct {
	Date      string         `gorm:"primaryKey;size:10"`
	Payload   datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time
}

func (DailyLogRecord) TableName() string {
	return "daily_logs"
}

// Migrations returns the registry of the diary schema
func Migrations() (*migrations.Registry, error) {
	reg := migrations.NewRegistry()
	reg.Register("001_create_daily_logs", func(db *gorm.DB) error {
		return db.AutoMigrate(&DailyLogRecord{})
	}, func(db *gorm.DB) error {
		return db.Migrator().DropTable(&DailyLogRecord{})
	})
	if err := reg.LoadSQL(migrations.SQLFiles, "sql"); err != nil {
		return nil, err
	}
	return reg, nil
}

// NewPostgresDB connects to postgres and brings the schema up to date
func NewPostgresDB(cfg config.DBConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	reg, err := Migrations()
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	if err := reg.Run(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Database connection established and migrations completed", "host", cfg.Host, "db", cfg.DBName)
	return db, nil
}
