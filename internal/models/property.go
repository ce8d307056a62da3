package models

import (
	"time"

	"gorm.io/datatypes"
)

type Property struct {
	ID                 string                      `gorm:"primaryKey;type:text" json:"id"`
	Title              string                      `gorm:"not null" json:"title"`
	Description        string                      `json:"description"`
	Location           string                      `gorm:"index" json:"location"`
	City               string                      `gorm:"index" json:"city"`
	Price              string                      `json:"price"`
	PropertyType       string                      `gorm:"index" json:"property_type"`
	Bedrooms           *int                        `json:"bedrooms"`
	Bathrooms          *int                        `json:"bathrooms"`
	PropertySize       string                      `json:"property_size"`
	Images             datatypes.JSONSlice[string] `json:"images"`
	Features           datatypes.JSONSlice[string] `json:"features"`
	Featured           bool                        `gorm:"index" json:"featured"`
	Latitude           *float64                    `json:"latitude"`
	Longitude          *float64                    `json:"longitude"`
	GeocodingAttempted bool                        `gorm:"default:false" json:"-"`
	CreatedAt          time.Time                   `json:"created_at"`
	UpdatedAt          time.Time                   `json:"updated_at"`
}

// PropertyFilter narrows property listings; empty fields are ignored
type PropertyFilter struct {
	City         string `form:"city"`
	PropertyType string `form:"type"`
	Featured     *bool  `form:"featured"`
}

// Project is a portfolio entry (immersive tours, renders, site visits)
type Project struct {
	ID          string                      `gorm:"primaryKey;type:text" json:"id"`
	Slug        string                      `gorm:"uniqueIndex;not null" json:"slug"`
	Title       string                      `gorm:"not null" json:"title"`
	Client      string                      `json:"client"`
	Category    string                      `gorm:"index" json:"category"`
	Description string                      `json:"description"`
	Location    string                      `json:"location"`
	Year        int                         `json:"year"`
	Images      datatypes.JSONSlice[string] `json:"images"`
	Featured    bool                        `json:"featured"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

type BlogPost struct {
	ID          string                      `gorm:"primaryKey;type:text" json:"id"`
	Slug        string                      `gorm:"uniqueIndex;not null" json:"slug"`
	Title       string                      `gorm:"not null" json:"title"`
	Excerpt     string                      `json:"excerpt"`
	Content     string                      `json:"content"`
	Author      string                      `json:"author"`
	CoverImage  string                      `json:"cover_image"`
	Tags        datatypes.JSONSlice[string] `json:"tags"`
	Published   bool                        `gorm:"index" json:"published"`
	PublishedAt *time.Time                  `json:"published_at"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

// KeyValue backs the visitor key-value store (liked properties)
type KeyValue struct {
	Key       string    `gorm:"primaryKey;type:text"`
	Value     string    `gorm:"type:text"`
	UpdatedAt time.Time `json:"updated_at"`
}

type DashboardStats struct {
	TotalProperties    int64            `json:"total_properties"`
	FeaturedProperties int64            `json:"featured_properties"`
	TotalProjects      int64            `json:"total_projects"`
	PublishedPosts     int64            `json:"published_posts"`
	DraftPosts         int64            `json:"draft_posts"`
	InquiriesByKind    map[string]int64 `json:"inquiries_by_kind"`
	InquiriesByStatus  map[string]int64 `json:"inquiries_by_status"`
	RecentInquiries    []Inquiry        `json:"recent_inquiries"`
}

// PropertyRequest is the admin body for creating or replacing a listing
type PropertyRequest struct {
	Title        string   `json:"title" binding:"required,max=200"`
	Description  string   `json:"description" binding:"omitempty,max=10000"`
	Location     string   `json:"location" binding:"required,max=120"`
	City         string   `json:"city" binding:"required,max=120"`
	Price        string   `json:"price" binding:"required,price"`
	PropertyType string   `json:"property_type" binding:"required,max=60"`
	Bedrooms     *int     `json:"bedrooms" binding:"omitempty,min=0,max=50"`
	Bathrooms    *int     `json:"bathrooms" binding:"omitempty,min=0,max=50"`
	PropertySize string   `json:"property_size" binding:"omitempty,max=60"`
	Images       []string `json:"images" binding:"omitempty,max=40,dive,max=2048"`
	Features     []string `json:"features" binding:"omitempty,max=60,dive,max=200"`
	Featured     bool     `json:"featured"`
}

// Apply copies the request onto p, leaving identity and bookkeeping fields alone
func (r *PropertyRequest) Apply(p *Property) {
	locationChanged := p.Location != r.Location || p.City != r.City

	p.Title = r.Title
	p.Description = r.Description
	p.Location = r.Location
	p.City = r.City
	p.Price = r.Price
	p.PropertyType = r.PropertyType
	p.Bedrooms = r.Bedrooms
	p.Bathrooms = r.Bathrooms
	p.PropertySize = r.PropertySize
	p.Images = datatypes.JSONSlice[string](r.Images)
	p.Features = datatypes.JSONSlice[string](r.Features)
	p.Featured = r.Featured

	if locationChanged {
		p.Latitude = nil
		p.Longitude = nil
		p.GeocodingAttempted = false
	}
}

type ProjectRequest struct {
	Slug        string   `json:"slug" binding:"omitempty,max=120"`
	Title       string   `json:"title" binding:"required,max=200"`
	Client      string   `json:"client" binding:"omitempty,max=200"`
	Category    string   `json:"category" binding:"required,max=60"`
	Description string   `json:"description" binding:"omitempty,max=10000"`
	Location    string   `json:"location" binding:"omitempty,max=120"`
	Year        int      `json:"year" binding:"omitempty,min=1990,max=2100"`
	Images      []string `json:"images" binding:"omitempty,max=40,dive,max=2048"`
	Featured    bool     `json:"featured"`
}

func (r *ProjectRequest) Apply(p *Project) {
	p.Slug = r.Slug
	p.Title = r.Title
	p.Client = r.Client
	p.Category = r.Category
	p.Description = r.Description
	p.Location = r.Location
	p.Year = r.Year
	p.Images = datatypes.JSONSlice[string](r.Images)
	p.Featured = r.Featured
}

type BlogPostRequest struct {
	Slug       string   `json:"slug" binding:"omitempty,max=120"`
	Title      string   `json:"title" binding:"required,max=200"`
	Excerpt    string   `json:"excerpt" binding:"omitempty,max=500"`
	Content    string   `json:"content" binding:"required"`
	Author     string   `json:"author" binding:"omitempty,max=120"`
	CoverImage string   `json:"cover_image" binding:"omitempty,max=2048"`
	Tags       []string `json:"tags" binding:"omitempty,max=20,dive,max=40"`
	Published  bool     `json:"published"`
}

// Apply copies the request onto post; PublishedAt is set the first time the post goes live
func (r *BlogPostRequest) Apply(post *BlogPost, now time.Time) {
	post.Slug = r.Slug
	post.Title = r.Title
	post.Excerpt = r.Excerpt
	post.Content = r.Content
	post.Author = r.Author
	post.CoverImage = r.CoverImage
	post.Tags = datatypes.JSONSlice[string](r.Tags)
	post.Published = r.Published
	if r.Published && post.PublishedAt == nil {
		post.PublishedAt = &now
	}
}
