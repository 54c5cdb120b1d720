package datastore

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/canonicaltags/ctags/internal/datastore/entities"
	"github.com/canonicaltags/ctags/internal/logger"
)

// MySQLConfig holds MySQL configuration.
type MySQLConfig struct {
	Host          string
	Port          string
	Username      string
	Password      string
	Database      string
	TablePrefix   string
	Logger        logger.Logger
	SlowThreshold time.Duration
}

// DSN returns the go-sql-driver connection string.
func (c *MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database)
}

// MySQLManager handles a MySQL tagging database. Table prefixes let the
// tagging tables coexist with host application tables in one schema.
type MySQLManager struct {
	db          *gorm.DB
	location    string
	tablePrefix string
}

// NewMySQLManager opens a connection pool to the configured MySQL server.
func NewMySQLManager(cfg *MySQLConfig) (*MySQLManager, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), gormConfig(cfg.TablePrefix, cfg.Logger, cfg.SlowThreshold))
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &MySQLManager{
		db:          db,
		location:    fmt.Sprintf("%s:%s/%s", cfg.Host, cfg.Port, cfg.Database),
		tablePrefix: cfg.TablePrefix,
	}, nil
}

// Initialize runs GORM auto-migrations for all tagging entities.
func (m *MySQLManager) Initialize() error {
	if err := m.db.Set("gorm:table_options", "ENGINE=InnoDB DEFAULT CHARSET=utf8mb4").
		AutoMigrate(entities.All()...); err != nil {
		return fmt.Errorf("failed to migrate tagging schema: %w", err)
	}
	return nil
}

// DB returns the underlying GORM database.
func (m *MySQLManager) DB() *gorm.DB {
	return m.db
}

// Path returns host:port/database for display.
func (m *MySQLManager) Path() string {
	return m.location
}

// Close closes the connection pool.
func (m *MySQLManager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	return sqlDB.Close()
}

// Exists reports whether the tags table has been created.
func (m *MySQLManager) Exists() bool {
	return m.db.Migrator().HasTable(&entities.Tag{})
}

// IsMySQL returns true for MySQL manager.
func (m *MySQLManager) IsMySQL() bool {
	return true
}

// TablePrefix returns the configured table prefix.
func (m *MySQLManager) TablePrefix() string {
	return m.tablePrefix
}
