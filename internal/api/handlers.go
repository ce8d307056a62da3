package api

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"estatehub/server/config"
	"estatehub/server/internal/auth"
	"estatehub/server/internal/database"
	"estatehub/server/internal/geometry"
	"estatehub/server/internal/imagery"
	"estatehub/server/internal/metrics"
	"estatehub/server/internal/models"
	"estatehub/server/internal/queue"
	"estatehub/server/internal/recommend"
	"estatehub/server/internal/telegram"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Dependencies are the services the handlers call into. Geocoder may be nil.
type Dependencies struct {
	DB          *database.Database
	Scorer      *recommend.Scorer
	Advisor     *recommend.Advisor
	Telegram    *telegram.Service
	Queue       *queue.InquiryQueue
	Geocoder    database.Geocoder
	JWT         *auth.JWTManager
	Credentials *auth.Credentials
	MaxLimit    int
	Now         func() time.Time
}

type Handler struct {
	db          *database.Database
	logger      *logrus.Logger
	scorer      *recommend.Scorer
	advisor     *recommend.Advisor
	telegram    *telegram.Service
	queue       *queue.InquiryQueue
	geocoder    database.Geocoder
	jwt         *auth.JWTManager
	credentials *auth.Credentials
	maxLimit    int
	now         func() time.Time
}

// PropertyView is a listing with its gallery resolved to renderable assets
type PropertyView struct {
	models.Property
	ResolvedImages []imagery.Asset `json:"resolved_images"`
	PrimaryImage   imagery.Asset   `json:"primary_image"`
}

func NewHandler(deps Dependencies, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if deps.Scorer == nil {
		deps.Scorer = recommend.NewScorer(recommend.DefaultLimit, deps.Now)
	}
	if deps.Advisor == nil {
		deps.Advisor = recommend.NewAdvisor(recommend.AdvisorConfig{}, deps.Scorer, logger)
	}
	if deps.Telegram == nil {
		deps.Telegram = telegram.NewService(logger)
	}
	if deps.MaxLimit <= 0 {
		deps.MaxLimit = 24
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return &Handler{
		db:          deps.DB,
		logger:      logger,
		scorer:      deps.Scorer,
		advisor:     deps.Advisor,
		telegram:    deps.Telegram,
		queue:       deps.Queue,
		geocoder:    deps.Geocoder,
		jwt:         deps.JWT,
		credentials: deps.Credentials,
		maxLimit:    deps.MaxLimit,
		now:         deps.Now,
	}
}

func newPropertyView(p models.Property) PropertyView {
	return PropertyView{
		Property:       p,
		ResolvedImages: imagery.ResolveAll(p.Images),
		PrimaryImage:   imagery.Primary(p.Images),
	}
}

// respondError maps store errors to a status; anything unexpected is logged and reported as 500
func (h *Handler) respondError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": message + ": not found"})
	case errors.Is(err, database.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": message + ": slug already in use"})
	default:
		h.logger.WithError(err).Error(message)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   h.now().UTC(),
	})
}

func (h *Handler) ListProperties(c *gin.Context) {
	var filter models.PropertyFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	properties, err := h.db.ListProperties(filter)
	if err != nil {
		h.respondError(c, err, "Failed to get properties")
		return
	}

	views := make([]PropertyView, 0, len(properties))
	for _, p := range properties {
		views = append(views, newPropertyView(p))
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) GetProperty(c *gin.Context) {
	property, err := h.db.GetProperty(c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to get property")
		return
	}
	c.JSON(http.StatusOK, newPropertyView(*property))
}

// GetRecommendations scores the catalog against one listing and the visitor's signals
func (h *Handler) GetRecommendations(c *gin.Context) {
	var prefs recommend.Preferences
	if err := c.ShouldBindQuery(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid preferences"})
		return
	}

	limit, ok := h.parseLimit(c.Query("limit"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive number"})
		return
	}

	current, err := h.db.GetProperty(c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to get property")
		return
	}

	catalog, err := h.db.GetAllProperties()
	if err != nil {
		h.respondError(c, err, "Failed to get properties")
		return
	}

	liked, err := h.likedSet(c)
	if err != nil {
		h.respondError(c, err, "Failed to load liked properties")
		return
	}

	recs := h.scorer.ScoreTop(*current, catalog, prefs, liked, limit)
	metrics.RecommendationsServed.WithLabelValues("similar").Inc()

	c.JSON(http.StatusOK, gin.H{
		"property_id":     current.ID,
		"recommendations": recs,
	})
}

// likedSet combines the liked query list with the stored list of the visitor, if any
func (h *Handler) likedSet(c *gin.Context) (recommend.LikedSet, error) {
	var ids []string
	for _, id := range strings.Split(c.Query("liked"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	if visitor := strings.TrimSpace(c.Query("visitor")); visitor != "" {
		stored, err := recommend.LoadLiked(h.db, visitor)
		if err != nil {
			return nil, err
		}
		ids = append(ids, stored...)
	}
	return recommend.NewLikedSet(ids...), nil
}

// parseLimit returns 0 (scorer default) for an empty value and caps at the configured maximum
func (h *Handler) parseLimit(raw string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, false
	}
	return min(limit, h.maxLimit), true
}

func (h *Handler) AIRecommendations(c *gin.Context) {
	var req recommend.AdvisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	req.Limit = min(req.Limit, h.maxLimit)

	catalog, err := h.db.GetAllProperties()
	if err != nil {
		h.respondError(c, err, "Failed to get properties")
		return
	}

	result := h.advisor.Recommend(c.Request.Context(), req, catalog)
	metrics.RecommendationsServed.WithLabelValues(result.Source).Inc()
	c.JSON(http.StatusOK, result)
}

func (h *Handler) ResolveImage(c *gin.Context) {
	ref := c.Query("ref")
	asset, rule := imagery.ResolveWithRule(ref)
	metrics.ImageResolutions.WithLabelValues(string(rule)).Inc()

	c.JSON(http.StatusOK, gin.H{
		"ref":   ref,
		"rule":  rule,
		"asset": asset,
	})
}

// GetPropertyMap returns geocoded listings as points plus one outline per location
func (h *Handler) GetPropertyMap(c *gin.Context) {
	properties, err := h.db.GetGeocodedProperties(c.Query("city"))
	if err != nil {
		h.respondError(c, err, "Failed to get geocoded properties")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"listings": geometry.ListingFeatures(properties),
		"areas":    geometry.AreaFeatures(properties),
	})
}

func (h *Handler) ListCities(c *gin.Context) {
	names, err := config.GetCityNames(h.db)
	if err != nil {
		h.respondError(c, err, "Failed to get cities")
		return
	}

	cities := make([]*config.City, 0, len(names))
	for _, name := range names {
		cities = append(cities, config.GetCityConfig(name))
	}
	c.JSON(http.StatusOK, cities)
}

func (h *Handler) GetCity(c *gin.Context) {
	name := c.Param("name")
	properties, err := h.db.ListProperties(models.PropertyFilter{City: name})
	if err != nil {
		h.respondError(c, err, "Failed to get city properties")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"city":           config.GetCityConfig(name),
		"supported":      config.GetCityByName(name) != nil,
		"property_count": len(properties),
	})
}

func (h *Handler) ListProjects(c *gin.Context) {
	projects, err := h.db.ListProjects(c.Query("category"))
	if err != nil {
		h.respondError(c, err, "Failed to get projects")
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (h *Handler) GetProject(c *gin.Context) {
	project, err := h.db.GetProjectBySlug(c.Param("slug"))
	if err != nil {
		h.respondError(c, err, "Failed to get project")
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *Handler) ListBlogPosts(c *gin.Context) {
	posts, err := h.db.ListBlogPosts(false)
	if err != nil {
		h.respondError(c, err, "Failed to get blog posts")
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *Handler) GetBlogPost(c *gin.Context) {
	post, err := h.db.GetPublishedPost(c.Param("slug"))
	if err != nil {
		h.respondError(c, err, "Failed to get blog post")
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *Handler) SubmitContact(c *gin.Context) {
	var req models.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	h.createInquiry(c, &models.Inquiry{
		Kind:    models.InquiryContact,
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Subject: req.Subject,
		Message: req.Message,
	})
}

func (h *Handler) SubmitDemoBooking(c *gin.Context) {
	var req models.DemoBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	h.createInquiry(c, &models.Inquiry{
		Kind:          models.InquiryDemo,
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		Company:       req.Company,
		Service:       req.Service,
		PreferredDate: req.PreferredDate,
		Message:       req.Message,
	})
}

func (h *Handler) SubmitServiceBooking(c *gin.Context) {
	var req models.ServiceBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	if req.PropertyID != "" {
		if _, err := h.db.GetProperty(req.PropertyID); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown property_id"})
				return
			}
			h.respondError(c, err, "Failed to get property")
			return
		}
	}

	h.createInquiry(c, &models.Inquiry{
		Kind:          models.InquiryService,
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		Service:       req.Service,
		PropertyID:    req.PropertyID,
		PreferredDate: req.PreferredDate,
		Message:       req.Message,
	})
}

// createInquiry stores the inquiry and queues its notification. A full queue does not fail the request.
func (h *Handler) createInquiry(c *gin.Context, inquiry *models.Inquiry) {
	if err := h.db.CreateInquiry(inquiry); err != nil {
		h.respondError(c, err, "Failed to save inquiry")
		return
	}

	if h.queue != nil {
		if err := h.queue.Push(inquiry); err != nil {
			h.logger.WithError(err).WithField("inquiry_id", inquiry.ID).Warn("Inquiry notification not queued")
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":      inquiry.ID,
		"message": "Thank you, we will get back to you shortly",
	})
}

func (h *Handler) GetLikes(c *gin.Context) {
	ids, err := recommend.LoadLiked(h.db, c.Param("visitor"))
	if err != nil {
		h.respondError(c, err, "Failed to load liked properties")
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked_ids": ids})
}

func (h *Handler) ToggleLike(c *gin.Context) {
	propertyID := c.Param("propertyId")
	if _, err := h.db.GetProperty(propertyID); err != nil {
		h.respondError(c, err, "Failed to get property")
		return
	}

	liked, ids, err := recommend.ToggleLiked(h.db, c.Param("visitor"), propertyID)
	if err != nil {
		h.respondError(c, err, "Failed to update liked properties")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"liked":     liked,
		"liked_ids": ids,
	})
}
