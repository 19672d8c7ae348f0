// Package audit is an append-only operation-history store, independent
// of the JSON registry which remains the fleet manager's source of
// truth. It answers "what happened to this service and when",
// not "what is this service's current state".
//
// Backed by gorm and an embedded sqlite file, narrowed to sqlite only:
// a fleet manager runs on a single host, so a networked database has
// nothing to serve here.
package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Operation is one row of lifecycle history: a single install, start,
// stop, upgrade or remove call against one service.
type Operation struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement"`
	CorrelationID string `gorm:"index;size:36"` // ties the row to the invocation's log lines
	ServiceName   string `gorm:"index;not null;size:255"`
	Kind          string `gorm:"index;not null;size:32"` // add, start, stop, upgrade, remove
	Outcome       string `gorm:"not null;size:16"`       // ok, error
	Detail        string `gorm:"type:text"`
	CreatedAt     int64  `gorm:"index;not null"` // unix millis, supplied by the caller
}

// TableName pins the table name rather than relying on gorm's
// pluralization of "Operation".
func (Operation) TableName() string {
	return "operations"
}

// Store is the sqlite-backed audit log. A nil *Store is valid and
// treats every method as a no-op, so audit logging can be disabled
// via config without branching at every call site.
type Store struct {
	db *gorm.DB
}

// Config is audit.Store's sole input: a file path, since the store is
// always sqlite — there is no multi-backend knob for a second engine
// here.
type Config struct {
	// Path is the sqlite database file. Created, along with its parent
	// directory, if it does not exist.
	Path string
}

// Open creates (or opens) the sqlite-backed audit database at
// cfg.Path and migrates the operations table.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("audit: path is required")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("audit: create database directory: %w", err)
	}

	dsn := cfg.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("audit: connect to database: %w", err)
	}

	if err := db.AutoMigrate(&Operation{}); err != nil {
		return nil, fmt.Errorf("audit: migrate schema: %w", err)
	}

	return &Store{db: db}, nil
}

// DB returns the underlying gorm handle, for tests and ad-hoc queries.
func (s *Store) DB() *gorm.DB {
	if s == nil {
		return nil
	}
	return s.db
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Record appends one operation row. A nil Store silently drops the
// record, so callers can hold a possibly-nil *Store without guarding
// every call site on whether auditing is enabled.
func (s *Store) Record(ctx context.Context, op Operation) error {
	if s == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(&op).Error
}

// ListByService returns every recorded operation for serviceName,
// newest first.
func (s *Store) ListByService(ctx context.Context, serviceName string) ([]Operation, error) {
	if s == nil {
		return nil, nil
	}
	var ops []Operation
	err := s.db.WithContext(ctx).
		Where("service_name = ?", serviceName).
		Order("created_at DESC").
		Find(&ops).Error
	return ops, err
}

// Recent returns the most recent limit operations across every
// service, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Operation, error) {
	if s == nil {
		return nil, nil
	}
	var ops []Operation
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&ops).Error
	return ops, err
}
