package database

import (
	"fmt"
	"strings"

	"estatehub/server/config"
	"estatehub/server/internal/models"

	"github.com/google/uuid"
)

// ListProjects returns portfolio entries, optionally of one category
func (d *Database) ListProjects(category string) ([]models.Project, error) {
	query := d.db.Model(&models.Project{})
	if category = strings.TrimSpace(category); category != "" {
		query = query.Where("LOWER(category) = LOWER(?)", category)
	}

	projects := []models.Project{}
	if err := query.Order("featured DESC").Order("year DESC").Order("slug").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

func (d *Database) GetProjectBySlug(slug string) (*models.Project, error) {
	var project models.Project
	if err := d.db.First(&project, "slug = ?", slug).Error; err != nil {
		return nil, notFound(err)
	}
	return &project, nil
}

func (d *Database) GetProject(id string) (*models.Project, error) {
	var project models.Project
	if err := d.db.First(&project, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &project, nil
}

func (d *Database) CreateProject(project *models.Project) error {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	if project.Slug == "" {
		project.Slug = config.NormalizeCity(project.Title)
	}
	if err := d.db.Create(project).Error; err != nil {
		return fmt.Errorf("failed to create project: %w", duplicate(err))
	}
	return nil
}

func (d *Database) UpdateProject(project *models.Project) error {
	if project.Slug == "" {
		project.Slug = config.NormalizeCity(project.Title)
	}
	if err := d.db.Save(project).Error; err != nil {
		return fmt.Errorf("failed to update project: %w", duplicate(err))
	}
	return nil
}

func (d *Database) DeleteProject(id string) error {
	result := d.db.Delete(&models.Project{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete project: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListBlogPosts returns posts newest first. Drafts are only included when asked for.
func (d *Database) ListBlogPosts(includeDrafts bool) ([]models.BlogPost, error) {
	query := d.db.Model(&models.BlogPost{})
	if !includeDrafts {
		query = query.Where("published = ?", true)
	}

	posts := []models.BlogPost{}
	if err := query.Order("published_at DESC").Order("created_at DESC").Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list blog posts: %w", err)
	}
	return posts, nil
}

// GetPublishedPost returns a published post by slug; drafts are not found
func (d *Database) GetPublishedPost(slug string) (*models.BlogPost, error) {
	var post models.BlogPost
	if err := d.db.First(&post, "slug = ? AND published = ?", slug, true).Error; err != nil {
		return nil, notFound(err)
	}
	return &post, nil
}

func (d *Database) GetBlogPost(id string) (*models.BlogPost, error) {
	var post models.BlogPost
	if err := d.db.First(&post, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &post, nil
}

func (d *Database) CreateBlogPost(post *models.BlogPost) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.Slug == "" {
		post.Slug = config.NormalizeCity(post.Title)
	}
	if err := d.db.Create(post).Error; err != nil {
		return fmt.Errorf("failed to create blog post: %w", duplicate(err))
	}
	return nil
}

func (d *Database) UpdateBlogPost(post *models.BlogPost) error {
	if post.Slug == "" {
		post.Slug = config.NormalizeCity(post.Title)
	}
	if err := d.db.Save(post).Error; err != nil {
		return fmt.Errorf("failed to update blog post: %w", duplicate(err))
	}
	return nil
}

func (d *Database) DeleteBlogPost(id string) error {
	result := d.db.Delete(&models.BlogPost{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete blog post: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
