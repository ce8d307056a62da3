package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"estatehub/server/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

type Database struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewDatabase(dbPath string, logger *logrus.Logger) (*Database, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on&_busy_timeout=5000"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return New(db, logger), nil
}

// New wraps an open gorm connection
func New(db *gorm.DB, logger *logrus.Logger) *Database {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return &Database{db: db, logger: logger}
}

// NewTestDB opens a private in-memory database
func NewTestDB() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// MigrateSchema creates or updates every table
func MigrateSchema(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Property{},
		&models.Project{},
		&models.BlogPost{},
		&models.Inquiry{},
		&models.KeyValue{},
		&models.TelegramConfig{},
	)
}

func (d *Database) RunMigrations() error {
	if err := MigrateSchema(d.db); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	// Listings entered with coordinates never need geocoding
	err := d.db.Model(&models.Property{}).
		Where("latitude IS NOT NULL AND longitude IS NOT NULL AND geocoding_attempted = ?", false).
		Update("geocoding_attempted", true).Error
	if err != nil {
		return fmt.Errorf("failed to mark existing coordinates as attempted: %w", err)
	}

	err = d.db.Exec(`CREATE INDEX IF NOT EXISTS idx_properties_coordinates ON properties(latitude, longitude)`).Error
	if err != nil {
		return fmt.Errorf("failed to create coordinates index: %w", err)
	}

	return nil
}

func (d *Database) GetDB() *gorm.DB {
	return d.db
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// duplicate maps unique constraint violations to ErrDuplicate
func duplicate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicate
	}
	return err
}
