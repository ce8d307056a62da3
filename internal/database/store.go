package database

import (
	"errors"
	"fmt"
	"time"

	"estatehub/server/config"
	"estatehub/server/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Get implements the visitor key-value store
func (d *Database) Get(key string) (string, bool, error) {
	var kv models.KeyValue
	err := d.db.Where(&models.KeyValue{Key: key}).First(&kv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read key: %w", err)
	}
	return kv.Value, true, nil
}

func (d *Database) Set(key, value string) error {
	kv := models.KeyValue{Key: key, Value: value, UpdatedAt: time.Now()}
	err := d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&kv).Error
	if err != nil {
		return fmt.Errorf("failed to write key: %w", err)
	}
	return nil
}

// GetTelegramConfig returns the stored bot configuration, or nil when none was saved
func (d *Database) GetTelegramConfig() (*models.TelegramConfig, error) {
	var cfg models.TelegramConfig
	err := d.db.Order("id").First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get telegram config: %w", err)
	}
	return &cfg, nil
}

// UpdateTelegramConfig replaces the single stored bot configuration
func (d *Database) UpdateTelegramConfig(req *models.TelegramConfigRequest) (*models.TelegramConfig, error) {
	existing, err := d.GetTelegramConfig()
	if err != nil {
		return nil, err
	}

	cfg := &models.TelegramConfig{ID: 1}
	if existing != nil {
		cfg = existing
	}
	cfg.IsEnabled = req.IsEnabled
	cfg.BotToken = req.BotToken
	cfg.ChatID = req.ChatID
	cfg.Kinds = req.Kinds

	if err := d.db.Save(cfg).Error; err != nil {
		return nil, fmt.Errorf("failed to update telegram config: %w", err)
	}
	return cfg, nil
}

// Seed loads the catalog into an empty database. Populated tables are left alone.
func (d *Database) Seed(catalog *config.Catalog) error {
	if catalog.Size() == 0 {
		return nil
	}

	return d.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Property{}).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count properties: %w", err)
		}
		if count == 0 && len(catalog.Properties) > 0 {
			batch := make([]*models.Property, len(catalog.Properties))
			for i := range catalog.Properties {
				batch[i] = &catalog.Properties[i]
			}
			if err := UpsertProperties(tx, batch); err != nil {
				return fmt.Errorf("failed to seed properties: %w", err)
			}
		}

		if err := tx.Model(&models.Project{}).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count projects: %w", err)
		}
		if count == 0 {
			for i := range catalog.Projects {
				p := &catalog.Projects[i]
				if p.ID == "" {
					p.ID = uuid.NewString()
				}
				if p.Slug == "" {
					p.Slug = config.NormalizeCity(p.Title)
				}
				if err := tx.Create(p).Error; err != nil {
					return fmt.Errorf("failed to seed project %s: %w", p.Slug, err)
				}
			}
		}

		if err := tx.Model(&models.BlogPost{}).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count blog posts: %w", err)
		}
		if count == 0 {
			for i := range catalog.BlogPosts {
				post := &catalog.BlogPosts[i]
				if post.ID == "" {
					post.ID = uuid.NewString()
				}
				if post.Slug == "" {
					post.Slug = config.NormalizeCity(post.Title)
				}
				if err := tx.Create(post).Error; err != nil {
					return fmt.Errorf("failed to seed blog post %s: %w", post.Slug, err)
				}
			}
		}

		d.logger.WithField("records", catalog.Size()).Info("Seeded catalog")
		return nil
	})
}
