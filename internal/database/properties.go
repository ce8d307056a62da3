package database

import (
	"fmt"
	"sort"
	"strings"

	"estatehub/server/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Geocoder resolves a listing's area to coordinates
type Geocoder interface {
	GeocodeLocation(location, city string) (float64, float64, error)
}

const geocodeBatchSize = 10

// ListProperties returns listings matching filter, featured first then newest
func (d *Database) ListProperties(filter models.PropertyFilter) ([]models.Property, error) {
	query := d.db.Model(&models.Property{})
	if city := strings.TrimSpace(filter.City); city != "" {
		query = query.Where("LOWER(city) = LOWER(?)", city)
	}
	if propertyType := strings.TrimSpace(filter.PropertyType); propertyType != "" {
		query = query.Where("LOWER(property_type) = LOWER(?)", propertyType)
	}
	if filter.Featured != nil {
		query = query.Where("featured = ?", *filter.Featured)
	}

	properties := []models.Property{}
	if err := query.Order("featured DESC").Order("created_at DESC").Order("id").Find(&properties).Error; err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return properties, nil
}

func (d *Database) GetAllProperties() ([]models.Property, error) {
	return d.ListProperties(models.PropertyFilter{})
}

func (d *Database) GetProperty(id string) (*models.Property, error) {
	var property models.Property
	if err := d.db.First(&property, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &property, nil
}

func (d *Database) CreateProperty(property *models.Property) error {
	if property.ID == "" {
		property.ID = uuid.NewString()
	}
	if err := d.db.Create(property).Error; err != nil {
		return fmt.Errorf("failed to create property: %w", err)
	}
	return nil
}

func (d *Database) UpdateProperty(property *models.Property) error {
	if err := d.db.Save(property).Error; err != nil {
		return fmt.Errorf("failed to update property: %w", err)
	}
	return nil
}

func (d *Database) DeleteProperty(id string) error {
	result := d.db.Delete(&models.Property{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete property: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertProperties inserts listings or overwrites the stored copy with the same id
func UpsertProperties(tx *gorm.DB, properties []*models.Property) error {
	if len(properties) == 0 {
		return nil
	}
	for _, p := range properties {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&properties).Error
}

func (d *Database) UpsertProperties(properties []*models.Property) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := UpsertProperties(tx, properties); err != nil {
			return fmt.Errorf("failed to upsert properties: %w", err)
		}
		return nil
	})
}

// GetDistinctCities returns the non-empty cities present in the listings, sorted
func (d *Database) GetDistinctCities() ([]string, error) {
	var cities []string
	err := d.db.Model(&models.Property{}).
		Where("city IS NOT NULL AND city != ''").
		Distinct().
		Pluck("city", &cities).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query cities: %w", err)
	}
	sort.Strings(cities)
	return cities, nil
}

// GetGeocodedProperties returns listings that have coordinates, optionally in one city
func (d *Database) GetGeocodedProperties(city string) ([]models.Property, error) {
	query := d.db.Where("latitude IS NOT NULL AND longitude IS NOT NULL")
	if city = strings.TrimSpace(city); city != "" {
		query = query.Where("LOWER(city) = LOWER(?)", city)
	}

	properties := []models.Property{}
	if err := query.Order("id").Find(&properties).Error; err != nil {
		return nil, fmt.Errorf("failed to query geocoded properties: %w", err)
	}
	return properties, nil
}

// UpdateMissingCoordinates geocodes listings without coordinates in batches.
// Failed lookups are marked attempted so they are not retried on every run.
func (d *Database) UpdateMissingCoordinates(geocoder Geocoder) error {
	pending := d.db.Model(&models.Property{}).
		Where("(latitude IS NULL OR longitude IS NULL) AND geocoding_attempted = ?", false).
		Where("(location != '' OR city != '')")

	var totalCount int64
	if err := pending.Session(&gorm.Session{}).Count(&totalCount).Error; err != nil {
		return fmt.Errorf("failed to count properties: %w", err)
	}
	if totalCount == 0 {
		d.logger.Info("No properties need geocoding")
		return nil
	}

	d.logger.WithField("count", totalCount).Info("Found properties that need geocoding")

	var processed, failed int
	for int64(processed+failed) < totalCount {
		var batch []models.Property
		if err := pending.Session(&gorm.Session{}).Limit(geocodeBatchSize).Find(&batch).Error; err != nil {
			return fmt.Errorf("failed to query properties: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		err := d.db.Transaction(func(tx *gorm.DB) error {
			for _, p := range batch {
				lat, lon, err := geocoder.GeocodeLocation(p.Location, p.City)
				if err != nil {
					d.logger.WithError(err).WithFields(logrus.Fields{
						"property_id": p.ID,
						"location":    p.Location,
						"city":        p.City,
					}).Warn("Failed to geocode property")

					if err := tx.Model(&models.Property{}).Where("id = ?", p.ID).
						Update("geocoding_attempted", true).Error; err != nil {
						return fmt.Errorf("failed to mark geocoding attempt: %w", err)
					}
					failed++
					continue
				}

				err = tx.Model(&models.Property{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
					"latitude":            lat,
					"longitude":           lon,
					"geocoding_attempted": true,
				}).Error
				if err != nil {
					return fmt.Errorf("failed to update coordinates: %w", err)
				}
				processed++
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	d.logger.WithFields(logrus.Fields{
		"processed": processed,
		"failed":    failed,
		"total":     totalCount,
	}).Info("Geocoding completed")
	return nil
}
