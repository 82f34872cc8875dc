package repository

import (
	"context"
	"time"

	"leetscore/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// PostgresRepository stores batch-run audit rows
type PostgresRepository struct {
	db *gorm.DB
}

// NewPostgresRepository creates a new Postgres repository
func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

// OpenPostgres opens a pooled connection sized for the audit workers
func OpenPostgres(ctx context.Context, dsn string, workers int) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// one connection per audit worker plus a little headroom for health checks
	sqlDB.SetMaxOpenConns(workers + 2)
	sqlDB.SetMaxIdleConns(workers)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(2 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// InsertBatchRun appends one audit row
func (r *PostgresRepository) InsertBatchRun(ctx context.Context, run *models.BatchRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// RecentBatchRuns returns the newest audit rows first
func (r *PostgresRepository) RecentBatchRuns(ctx context.Context, limit int) ([]models.BatchRun, error) {
	var runs []models.BatchRun
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate runs database migrations
func (r *PostgresRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&models.BatchRun{})
}
