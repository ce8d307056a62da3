package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"estatehub/server/config"
	"estatehub/server/internal/api"
	"estatehub/server/internal/auth"
	"estatehub/server/internal/database"
	"estatehub/server/internal/geocoding"
	"estatehub/server/internal/processor"
	"estatehub/server/internal/queue"
	"estatehub/server/internal/recommend"
	"estatehub/server/internal/scheduler"
	"estatehub/server/internal/telegram"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	logger.Infof("Using database at: %s", cfg.Server.DatabasePath)
	db, err := database.NewDatabase(cfg.Server.DatabasePath, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	catalog, err := config.LoadCatalog(cfg.Server.CatalogPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load catalog")
	}
	if err := db.Seed(catalog); err != nil {
		logger.WithError(err).Fatal("Failed to seed database")
	}

	// Telegram notifications
	telegramService := telegram.NewService(logger)
	telegramService.SetDatabase(db)
	if tgConfig, err := db.GetTelegramConfig(); err != nil {
		logger.WithError(err).Error("Failed to load Telegram config")
	} else if tgConfig != nil {
		telegramService.UpdateConfig(tgConfig)
	}

	inquiryQueue := queue.NewInquiryQueue(cfg.Notifications.QueueSize, logger)
	notificationProcessor := processor.NewNotificationProcessor(telegramService, inquiryQueue, cfg, logger)
	notificationProcessor.Start()
	inquiryQueue.Start()

	var geocoder database.Geocoder
	if cfg.Geocoding.Enabled {
		cacheDir := cfg.Geocoding.CacheDir
		if cacheDir == "" {
			cacheDir = filepath.Join(os.TempDir(), "estatehub", "geocode_cache")
		}
		geocoder = geocoding.NewGeocoder(logger, geocoding.Options{
			Country:      cfg.Geocoding.Country,
			CountryCodes: cfg.Geocoding.CountryCodes,
			CacheDir:     cacheDir,
		})
	}

	scorer := recommend.NewScorer(cfg.Recommendations.DefaultLimit, nil)
	advisor := recommend.NewAdvisor(recommend.AdvisorConfig{
		APIKey:    cfg.AI.APIKey,
		BaseURL:   cfg.AI.BaseURL,
		Model:     cfg.AI.Model,
		Timeout:   cfg.AI.Timeout,
		RateLimit: cfg.AI.RateLimit,
		RateBurst: cfg.AI.RateBurst,
	}, scorer, logger)
	if !advisor.Enabled() {
		logger.Info("OPENAI_API_KEY not set, AI recommendations use the scorer")
	}

	jwtManager, err := auth.NewJWTManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize JWT manager")
	}
	var credentials *auth.Credentials
	if creds, err := auth.NewCredentials(cfg.Admin.Username, cfg.Admin.PasswordHash, cfg.Admin.Password); err != nil {
		logger.WithError(err).Warn("Admin login disabled")
	} else {
		credentials = creds
	}

	jobScheduler := scheduler.NewScheduler(db, geocoder, telegramService, scheduler.Options{
		ImageAuditInterval: cfg.Scheduler.ImageAuditInterval,
		DigestHour:         cfg.Notifications.DigestHour,
	}, logger)
	jobScheduler.Start()

	gin.SetMode(gin.ReleaseMode)
	handler := api.NewHandler(api.Dependencies{
		DB:          db,
		Scorer:      scorer,
		Advisor:     advisor,
		Telegram:    telegramService,
		Queue:       inquiryQueue,
		Geocoder:    geocoder,
		JWT:         jwtManager,
		Credentials: credentials,
		MaxLimit:    cfg.Recommendations.MaxLimit,
	}, logger)
	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AssetsDir:      cfg.Server.AssetsDir,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	jobScheduler.Stop()
	notificationProcessor.Stop()
	if err := inquiryQueue.Close(); err != nil {
		logger.WithError(err).Error("Failed to close inquiry queue")
	}
	logger.Info("Server exited")
}
