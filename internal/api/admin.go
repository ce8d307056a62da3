package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"estatehub/server/internal/analytics"
	"estatehub/server/internal/auth"
	"estatehub/server/internal/database"
	"estatehub/server/internal/imagery"
	"estatehub/server/internal/models"

	"github.com/gin-gonic/gin"
)

var errNoCredentials = errors.New("admin login is not configured")

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	if h.credentials == nil || h.jwt == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errNoCredentials.Error()})
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	}

	if err := h.credentials.Verify(req.Username, req.Password); err != nil {
		h.logger.WithField("username", req.Username).Warn("Rejected admin login")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	token, expires, err := h.jwt.GenerateToken(req.Username, auth.RoleAdmin)
	if err != nil {
		h.respondError(c, err, "Failed to create token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": expires.UTC(),
	})
}

func (h *Handler) CreateProperty(c *gin.Context) {
	var req models.PropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	property := &models.Property{}
	req.Apply(property)
	if err := h.db.CreateProperty(property); err != nil {
		h.respondError(c, err, "Failed to create property")
		return
	}
	c.JSON(http.StatusCreated, newPropertyView(*property))
}

func (h *Handler) UpdateProperty(c *gin.Context) {
	var req models.PropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	property, err := h.db.GetProperty(c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to get property")
		return
	}

	req.Apply(property)
	if err := h.db.UpdateProperty(property); err != nil {
		h.respondError(c, err, "Failed to update property")
		return
	}
	c.JSON(http.StatusOK, newPropertyView(*property))
}

func (h *Handler) DeleteProperty(c *gin.Context) {
	if err := h.db.DeleteProperty(c.Param("id")); err != nil {
		h.respondError(c, err, "Failed to delete property")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) CreateProject(c *gin.Context) {
	var req models.ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	project := &models.Project{}
	req.Apply(project)
	if err := h.db.CreateProject(project); err != nil {
		h.respondError(c, err, "Failed to create project")
		return
	}
	c.JSON(http.StatusCreated, project)
}

func (h *Handler) UpdateProject(c *gin.Context) {
	var req models.ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	project, err := h.db.GetProject(c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to get project")
		return
	}

	req.Apply(project)
	if err := h.db.UpdateProject(project); err != nil {
		h.respondError(c, err, "Failed to update project")
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *Handler) DeleteProject(c *gin.Context) {
	if err := h.db.DeleteProject(c.Param("id")); err != nil {
		h.respondError(c, err, "Failed to delete project")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListAllBlogPosts includes drafts
func (h *Handler) ListAllBlogPosts(c *gin.Context) {
	posts, err := h.db.ListBlogPosts(true)
	if err != nil {
		h.respondError(c, err, "Failed to get blog posts")
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *Handler) CreateBlogPost(c *gin.Context) {
	var req models.BlogPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	post := &models.BlogPost{}
	req.Apply(post, h.now())
	if err := h.db.CreateBlogPost(post); err != nil {
		h.respondError(c, err, "Failed to create blog post")
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *Handler) UpdateBlogPost(c *gin.Context) {
	var req models.BlogPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	post, err := h.db.GetBlogPost(c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to get blog post")
		return
	}

	req.Apply(post, h.now())
	if err := h.db.UpdateBlogPost(post); err != nil {
		h.respondError(c, err, "Failed to update blog post")
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *Handler) DeleteBlogPost(c *gin.Context) {
	if err := h.db.DeleteBlogPost(c.Param("id")); err != nil {
		h.respondError(c, err, "Failed to delete blog post")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListInquiries(c *gin.Context) {
	var filter database.InquiryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	inquiries, err := h.db.ListInquiries(filter)
	if err != nil {
		h.respondError(c, err, "Failed to get inquiries")
		return
	}
	c.JSON(http.StatusOK, inquiries)
}

func (h *Handler) UpdateInquiryStatus(c *gin.Context) {
	var req models.InquiryStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	inquiry, err := h.db.UpdateInquiryStatus(c.Param("id"), req.Status)
	if err != nil {
		h.respondError(c, err, "Failed to update inquiry")
		return
	}
	c.JSON(http.StatusOK, inquiry)
}

func (h *Handler) GetDashboard(c *gin.Context) {
	stats, err := h.db.GetDashboardStats()
	if err != nil {
		h.respondError(c, err, "Failed to get dashboard stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetAnalytics(c *gin.Context) {
	days := analytics.DefaultDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive number"})
			return
		}
		days = n
	}

	summary, err := analytics.Build(h.db, days, h.now())
	if err != nil {
		h.respondError(c, err, "Failed to build analytics")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetImageAudit reports how listing, project and blog images currently resolve
func (h *Handler) GetImageAudit(c *gin.Context) {
	properties, err := h.db.GetAllProperties()
	if err != nil {
		h.respondError(c, err, "Failed to get properties")
		return
	}
	projects, err := h.db.ListProjects("")
	if err != nil {
		h.respondError(c, err, "Failed to get projects")
		return
	}

	galleries := make([][]string, 0, len(properties)+len(projects))
	for _, p := range properties {
		galleries = append(galleries, p.Images)
	}
	for _, p := range projects {
		galleries = append(galleries, p.Images)
	}

	report := imagery.AuditGalleries(galleries)
	c.JSON(http.StatusOK, gin.H{
		"report":         report,
		"fallback_share": report.FallbackShare(),
	})
}

// GetTelegramConfig returns the current Telegram configuration with the bot token masked
func (h *Handler) GetTelegramConfig(c *gin.Context) {
	config, err := h.db.GetTelegramConfig()
	if err != nil {
		h.respondError(c, err, "Failed to get Telegram config")
		return
	}

	if config == nil {
		c.JSON(http.StatusOK, gin.H{
			"is_enabled": false,
			"chat_id":    "",
			"bot_token":  "",
			"kinds":      []string{},
		})
		return
	}

	config.BotToken = maskToken(config.BotToken)
	c.JSON(http.StatusOK, config)
}

func maskToken(token string) string {
	if len(token) <= 4 {
		return "••••"
	}
	return "••••" + token[len(token)-4:]
}

// UpdateTelegramConfig saves the configuration after a test message went through
func (h *Handler) UpdateTelegramConfig(c *gin.Context) {
	var request models.TelegramConfigRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	if len(request.BotToken) < 20 || !strings.Contains(request.BotToken, ":") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bot token format. Please check your bot token from @BotFather"})
		return
	}

	if request.IsEnabled {
		probe := &models.TelegramConfig{BotToken: request.BotToken, ChatID: request.ChatID, IsEnabled: true}
		testMessage := "🔔 Test notification from EstateHub\n\nIf you see this message, your Telegram configuration is working correctly!"
		if err := h.telegram.SendWith(probe, testMessage); err != nil {
			h.logger.WithError(err).Error("Failed to send test message")
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	saved, err := h.db.UpdateTelegramConfig(&request)
	if err != nil {
		h.respondError(c, err, "Failed to save configuration to database")
		return
	}
	h.telegram.UpdateConfig(saved)

	c.JSON(http.StatusOK, gin.H{"message": "Telegram configuration updated successfully"})
}

// TestTelegramConfig sends a sample inquiry through the stored configuration
func (h *Handler) TestTelegramConfig(c *gin.Context) {
	if !h.telegram.Enabled() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Telegram is not configured or is disabled"})
		return
	}

	sample := &models.Inquiry{
		ID:      "test",
		Kind:    models.InquiryContact,
		Status:  models.InquiryStatusNew,
		Name:    "Test Visitor",
		Email:   "visitor@example.com",
		Phone:   "+256 700 000000",
		Subject: "Viewing request",
		Message: "Is the Kololo villa still available for a viewing this weekend?",
	}
	if err := h.telegram.SendMessage(h.telegram.FormatInquiry(sample)); err != nil {
		h.logger.WithError(err).Error("Failed to send test notification")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Test notification sent successfully"})
}

func (h *Handler) UpdateCoordinates(c *gin.Context) {
	if h.geocoder == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Geocoding is disabled"})
		return
	}

	if err := h.db.UpdateMissingCoordinates(h.geocoder); err != nil {
		h.respondError(c, err, "Failed to update coordinates")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "Coordinates updated"})
}
