// Package datastore opens and migrates the tagging database.
package datastore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/canonicaltags/ctags/internal/datastore/entities"
	"github.com/canonicaltags/ctags/internal/logger"
)

// Manager defines the interface for database lifecycle operations.
type Manager interface {
	// Initialize creates or updates the schema.
	Initialize() error
	// DB returns the underlying GORM database.
	DB() *gorm.DB
	// Path returns the database location (file path for SQLite, host:port/db for MySQL).
	Path() string
	// Close closes the database connection.
	Close() error
	// Exists reports whether the schema has been created.
	Exists() bool
	// IsMySQL returns true if this is a MySQL manager.
	IsMySQL() bool
	// TablePrefix returns the prefix applied to every table name.
	TablePrefix() string
}

// Config holds SQLite configuration.
type Config struct {
	// Path is the database file. ":memory:" opens a private in-memory database.
	Path string
	// TablePrefix is prepended to every table name.
	TablePrefix string
	// Logger receives SQL traces. Nil silences GORM.
	Logger logger.Logger
	// SlowThreshold marks statements logged at WARN. Zero disables the check.
	SlowThreshold time.Duration
}

// SQLiteManager handles a SQLite tagging database.
type SQLiteManager struct {
	db          *gorm.DB
	dbPath      string
	tablePrefix string
}

// sqlitePragmas are applied through the DSN. _txlock=immediate takes the
// write lock at BEGIN so concurrent read-modify-write transactions serialize
// instead of failing to upgrade their lock.
const sqlitePragmas = "_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON&_txlock=immediate"

// NewSQLiteManager opens (creating if needed) the SQLite database at cfg.Path.
func NewSQLiteManager(cfg Config) (*SQLiteManager, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	memory := cfg.Path == ":memory:"
	dsn := fmt.Sprintf("%s?%s", cfg.Path, sqlitePragmas)
	if memory {
		dsn = "file::memory:?_foreign_keys=ON"
	} else if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig(cfg.TablePrefix, cfg.Logger, cfg.SlowThreshold))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}
	if memory {
		// every pooled connection would otherwise get its own empty database
		sqlDB.SetMaxOpenConns(1)
	}

	return &SQLiteManager{
		db:          db,
		dbPath:      cfg.Path,
		tablePrefix: cfg.TablePrefix,
	}, nil
}

// gormConfig builds the shared GORM configuration for both backends.
func gormConfig(prefix string, log logger.Logger, slow time.Duration) *gorm.Config {
	cfg := &gorm.Config{
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{TablePrefix: prefix},
	}
	if log != nil {
		cfg.Logger = logger.NewGormLoggerAdapter(log, slow)
	} else {
		cfg.Logger = silentLogger()
	}
	return cfg
}

func silentLogger() gormlogger.Interface {
	return gormlogger.Default.LogMode(gormlogger.Silent)
}

// Initialize runs GORM auto-migrations for all tagging entities.
func (m *SQLiteManager) Initialize() error {
	if err := m.db.AutoMigrate(entities.All()...); err != nil {
		return fmt.Errorf("failed to migrate tagging schema: %w", err)
	}
	return nil
}

// DB returns the underlying GORM database.
func (m *SQLiteManager) DB() *gorm.DB {
	return m.db
}

// Path returns the database file path.
func (m *SQLiteManager) Path() string {
	return m.dbPath
}

// Close closes the database connection.
func (m *SQLiteManager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	return sqlDB.Close()
}

// Delete closes and removes the database file together with its WAL and SHM files.
func (m *SQLiteManager) Delete() error {
	if err := m.Close(); err != nil {
		return fmt.Errorf("failed to close database before deletion: %w", err)
	}
	if m.dbPath == ":memory:" {
		return nil
	}

	if err := os.Remove(m.dbPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete database file: %w", err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(m.dbPath + suffix)
	}

	return nil
}

// Exists reports whether the tags table has been created.
func (m *SQLiteManager) Exists() bool {
	return m.db.Migrator().HasTable(&entities.Tag{})
}

// IsMySQL returns false for SQLite manager.
func (m *SQLiteManager) IsMySQL() bool {
	return false
}

// TablePrefix returns the configured table prefix.
func (m *SQLiteManager) TablePrefix() string {
	return m.tablePrefix
}

// Open builds a manager for the given backend name.
func Open(backend string, sqliteCfg Config, mysqlCfg *MySQLConfig) (Manager, error) {
	switch strings.ToLower(backend) {
	case "", "sqlite":
		return NewSQLiteManager(sqliteCfg)
	case "mysql":
		if mysqlCfg == nil {
			return nil, fmt.Errorf("mysql configuration is required")
		}
		return NewMySQLManager(mysqlCfg)
	default:
		return nil, fmt.Errorf("unsupported database type %q", backend)
	}
}
