package database

import (
	"fmt"
	"time"

	"estatehub/server/internal/models"

	"github.com/google/uuid"
)

const recentInquiryCount = 5

// InquiryFilter narrows the admin inquiry list; empty fields are ignored
type InquiryFilter struct {
	Kind   models.InquiryKind   `form:"kind" binding:"omitempty,oneof=contact demo service"`
	Status models.InquiryStatus `form:"status" binding:"omitempty,oneof=new contacted closed"`
}

func (d *Database) CreateInquiry(inquiry *models.Inquiry) error {
	if inquiry.ID == "" {
		inquiry.ID = uuid.NewString()
	}
	if inquiry.Status == "" {
		inquiry.Status = models.InquiryStatusNew
	}
	if err := d.db.Create(inquiry).Error; err != nil {
		return fmt.Errorf("failed to create inquiry: %w", err)
	}
	return nil
}

func (d *Database) ListInquiries(filter InquiryFilter) ([]models.Inquiry, error) {
	query := d.db.Model(&models.Inquiry{})
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	inquiries := []models.Inquiry{}
	if err := query.Order("created_at DESC").Find(&inquiries).Error; err != nil {
		return nil, fmt.Errorf("failed to list inquiries: %w", err)
	}
	return inquiries, nil
}

// GetInquiriesSince returns inquiries received at or after since, oldest first
func (d *Database) GetInquiriesSince(since time.Time) ([]models.Inquiry, error) {
	inquiries := []models.Inquiry{}
	if err := d.db.Where("created_at >= ?", since).Order("created_at").Find(&inquiries).Error; err != nil {
		return nil, fmt.Errorf("failed to query inquiries: %w", err)
	}
	return inquiries, nil
}

func (d *Database) UpdateInquiryStatus(id string, status models.InquiryStatus) (*models.Inquiry, error) {
	var inquiry models.Inquiry
	if err := d.db.First(&inquiry, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}

	inquiry.Status = status
	if err := d.db.Save(&inquiry).Error; err != nil {
		return nil, fmt.Errorf("failed to update inquiry: %w", err)
	}
	return &inquiry, nil
}

// CountInquiriesByDay counts inquiries per calendar day (YYYY-MM-DD, UTC) since from
func (d *Database) CountInquiriesByDay(from time.Time) (map[string]int64, error) {
	var rows []struct {
		Day   string
		Count int64
	}
	err := d.db.Model(&models.Inquiry{}).
		Select("strftime('%Y-%m-%d', created_at) AS day, COUNT(*) AS count").
		Where("created_at >= ?", from).
		Group("day").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count inquiries by day: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Day] = r.Count
	}
	return counts, nil
}

// GetDashboardStats gathers the counters shown on the admin dashboard
func (d *Database) GetDashboardStats() (*models.DashboardStats, error) {
	stats := &models.DashboardStats{
		InquiriesByKind:   map[string]int64{},
		InquiriesByStatus: map[string]int64{},
		RecentInquiries:   []models.Inquiry{},
	}

	counts := []struct {
		target *int64
		model  interface{}
		where  string
		args   []interface{}
	}{
		{&stats.TotalProperties, &models.Property{}, "", nil},
		{&stats.FeaturedProperties, &models.Property{}, "featured = ?", []interface{}{true}},
		{&stats.TotalProjects, &models.Project{}, "", nil},
		{&stats.PublishedPosts, &models.BlogPost{}, "published = ?", []interface{}{true}},
		{&stats.DraftPosts, &models.BlogPost{}, "published = ?", []interface{}{false}},
	}
	for _, c := range counts {
		query := d.db.Model(c.model)
		if c.where != "" {
			query = query.Where(c.where, c.args...)
		}
		if err := query.Count(c.target).Error; err != nil {
			return nil, fmt.Errorf("failed to count dashboard stats: %w", err)
		}
	}

	if err := d.groupInquiries("kind", stats.InquiriesByKind); err != nil {
		return nil, err
	}
	if err := d.groupInquiries("status", stats.InquiriesByStatus); err != nil {
		return nil, err
	}

	if err := d.db.Order("created_at DESC").Limit(recentInquiryCount).Find(&stats.RecentInquiries).Error; err != nil {
		return nil, fmt.Errorf("failed to query recent inquiries: %w", err)
	}
	return stats, nil
}

func (d *Database) groupInquiries(column string, into map[string]int64) error {
	var rows []struct {
		Grp   string
		Count int64
	}
	err := d.db.Model(&models.Inquiry{}).
		Select(column + " AS grp, COUNT(*) AS count").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to group inquiries by %s: %w", column, err)
	}
	for _, r := range rows {
		into[r.Grp] = r.Count
	}
	return nil
}
