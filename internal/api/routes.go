package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"estatehub/server/internal/auth"
	"estatehub/server/internal/metrics"
	"estatehub/server/internal/recommend"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding rules used by the request models
func RegisterValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("price", validPrice)
		}
	})
}

// validPrice accepts price strings that contain a number, like "$150,000" or "UGX 450,000,000"
func validPrice(fl validator.FieldLevel) bool {
	_, ok := recommend.ParsePrice(fl.Field().String())
	return ok
}

// validationMessage turns binding errors into a short message naming the failing fields
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request body"
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed on '%s'", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return "Invalid request: " + strings.Join(parts, ", ")
}

// RouterOptions configures cross-cutting router behaviour
type RouterOptions struct {
	AllowedOrigins []string
	AssetsDir      string
}

// NewRouter builds the gin engine with every public and admin route
func NewRouter(handler *Handler, opts RouterOptions) *gin.Engine {
	RegisterValidators()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestMetrics())

	corsConfig := cors.DefaultConfig()
	if len(opts.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = opts.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	if opts.AssetsDir != "" {
		router.Static("/assets", opts.AssetsDir)
	}
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	SetupRoutes(router, handler)
	return router
}

func SetupRoutes(router *gin.Engine, handler *Handler) {
	api := router.Group("/api")
	{
		api.GET("/health", handler.Health)

		api.GET("/properties", handler.ListProperties)
		api.GET("/properties/map", handler.GetPropertyMap)
		api.GET("/properties/:id", handler.GetProperty)
		api.GET("/properties/:id/recommendations", handler.GetRecommendations)
		api.POST("/recommendations/ai", handler.AIRecommendations)
		api.GET("/images/resolve", handler.ResolveImage)

		api.GET("/cities", handler.ListCities)
		api.GET("/cities/:name", handler.GetCity)

		api.GET("/projects", handler.ListProjects)
		api.GET("/projects/:slug", handler.GetProject)
		api.GET("/blog", handler.ListBlogPosts)
		api.GET("/blog/:slug", handler.GetBlogPost)

		api.POST("/contact", handler.SubmitContact)
		api.POST("/demo-bookings", handler.SubmitDemoBooking)
		api.POST("/service-bookings", handler.SubmitServiceBooking)

		api.GET("/likes/:visitor", handler.GetLikes)
		api.POST("/likes/:visitor/:propertyId", handler.ToggleLike)

		api.POST("/admin/login", handler.Login)
	}

	admin := router.Group("/api/admin")
	if handler.jwt != nil {
		admin.Use(auth.RequireAdmin(handler.jwt))
	} else {
		admin.Use(func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": errNoCredentials.Error()})
		})
	}
	{
		admin.POST("/properties", handler.CreateProperty)
		admin.PUT("/properties/:id", handler.UpdateProperty)
		admin.DELETE("/properties/:id", handler.DeleteProperty)

		admin.POST("/projects", handler.CreateProject)
		admin.PUT("/projects/:id", handler.UpdateProject)
		admin.DELETE("/projects/:id", handler.DeleteProject)

		admin.GET("/blog", handler.ListAllBlogPosts)
		admin.POST("/blog", handler.CreateBlogPost)
		admin.PUT("/blog/:id", handler.UpdateBlogPost)
		admin.DELETE("/blog/:id", handler.DeleteBlogPost)

		admin.GET("/inquiries", handler.ListInquiries)
		admin.PATCH("/inquiries/:id", handler.UpdateInquiryStatus)

		admin.GET("/dashboard", handler.GetDashboard)
		admin.GET("/analytics", handler.GetAnalytics)
		admin.GET("/image-audit", handler.GetImageAudit)

		admin.GET("/telegram", handler.GetTelegramConfig)
		admin.PUT("/telegram", handler.UpdateTelegramConfig)
		admin.POST("/telegram/test", handler.TestTelegramConfig)

		admin.POST("/update-coordinates", handler.UpdateCoordinates)
	}
}

// requestMetrics records request counts and latency per matched route
func requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
