package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/user/retro-tv-go/internal/config"
	"github.com/user/retro-tv-go/internal/model"
)

// MySQLStore implements Store interface using MySQL database
type MySQLStore struct {
	db *gorm.DB
}

// NewMySQLStore creates a new MySQL store instance
func NewMySQLStore(cfg *config.DBConfig) (*MySQLStore, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(mysql.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxConns)
	sqlDB.SetMaxIdleConns(cfg.MaxConns / 2)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Auto migrate tables
	if err := db.AutoMigrate(&model.PlayEvent{}, &model.SubmissionRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &MySQLStore{db: db}, nil
}

// RecordPlay persists one issued playback plan
func (s *MySQLStore) RecordPlay(ctx context.Context, event *model.PlayEvent) error {
	result := s.db.WithContext(ctx).Create(event)
	if result.Error != nil {
		return fmt.Errorf("failed to record play: %w", result.Error)
	}
	return nil
}

// RecentPlays retrieves the most recently issued plans, newest first
func (s *MySQLStore) RecentPlays(ctx context.Context, limit int) ([]*model.PlayEvent, error) {
	var events []*model.PlayEvent
	result := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&events)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get recent plays: %w", result.Error)
	}
	return events, nil
}

// CountPlays returns the total number of recorded plays
func (s *MySQLStore) CountPlays(ctx context.Context) (int64, error) {
	var count int64
	result := s.db.WithContext(ctx).Model(&model.PlayEvent{}).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count plays: %w", result.Error)
	}
	return count, nil
}

// RecordSubmission persists one viewer submission attempt
func (s *MySQLStore) RecordSubmission(ctx context.Context, rec *model.SubmissionRecord) error {
	result := s.db.WithContext(ctx).Create(rec)
	if result.Error != nil {
		return fmt.Errorf("failed to record submission: %w", result.Error)
	}
	return nil
}

// Ping checks database connectivity
func (s *MySQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection pool
func (s *MySQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}
