// backend/cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ecosearch/backend/internal/aggregate"
	"github.com/ecosearch/backend/internal/api/handlers"
	"github.com/ecosearch/backend/internal/config"
	"github.com/ecosearch/backend/internal/database"
	"github.com/ecosearch/backend/internal/enrich"
	"github.com/ecosearch/backend/internal/health"
	"github.com/ecosearch/backend/internal/llm"
	"github.com/ecosearch/backend/internal/middleware"
	"github.com/ecosearch/backend/internal/repository"
	"github.com/ecosearch/backend/internal/search"
	"github.com/ecosearch/backend/internal/searxng"
	"github.com/ecosearch/backend/internal/services"
	"github.com/ecosearch/backend/internal/sources"
	"github.com/ecosearch/backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional in production
	_ = godotenv.Load()

	utils.InitLogger()
	logger := utils.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if err := cfg.ValidateGroq(); err != nil {
		logger.WithError(err).Fatal("Invalid completion provider configuration")
	}

	// Database and cache
	dbManager, err := database.NewManager(&database.Config{
		DatabaseURL: cfg.Database.URL,
		RedisURL:    cfg.Redis.URL,
		LogLevel:    os.Getenv("LOG_LEVEL"),
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer dbManager.Close()

	if err := dbManager.Migrate(); err != nil {
		logger.WithError(err).Fatal("Failed to run migrations")
	}

	repoManager := repository.NewRepositoryManager(dbManager.DB)
	cache := database.NewCache(dbManager.Redis, logger)

	// Evidence pipeline
	searxClient := searxng.NewClient(cfg.SearxNG.Engines, cfg.Timeouts.Fetch, logger)
	pool := search.NewPool(cfg.SearxNG.Instances, searxClient, nil, logger)

	specialized := []sources.Fetcher{
		sources.NewWikipediaClient(cfg.Timeouts.Fetch, logger),
		sources.NewGitHubClient(cfg.Timeouts.Fetch, logger),
		sources.NewHackerNewsClient(cfg.Timeouts.Fetch, logger),
		sources.NewOpenLibraryClient(cfg.Timeouts.Fetch, logger),
	}

	merger := aggregate.NewMerger(pool, specialized, aggregate.Limits{
		MaxWebSources:     cfg.Limits.MaxWebSources,
		MaxPerSpecialized: cfg.Limits.MaxPerSpecialized,
		MaxImages:         cfg.Limits.MaxImages,
		MaxVideos:         cfg.Limits.MaxVideos,
		MinContentLength:  cfg.Limits.MinContentLength,
	}, logger)

	var enricher services.Enricher
	if cfg.Enrich.Enabled {
		enricher = enrich.New(cfg.Enrich.MinChars, cfg.Enrich.MaxPageBytes, cfg.Timeouts.Fetch, logger)
	}

	completer := llm.NewGroqClient(cfg.Groq.APIKey, cfg.Groq.BaseURL, llm.Options{
		Model:       cfg.Groq.Model,
		MaxTokens:   cfg.Groq.MaxTokens,
		Temperature: float32(cfg.Groq.Temperature),
		TopP:        float32(cfg.Groq.TopP),
		Timeout:     cfg.Timeouts.Completion,
	}, logger)

	answerService := services.NewAnswerService(merger, completer, enricher, logger)

	// HTTP layer
	searchHandler := handlers.NewSearchHandler(answerService, repoManager, cache, cfg.Cache.AnswerTTL, logger)
	healthChecker := health.NewHealthChecker(dbManager, repoManager.SystemHealth, logger, cfg.Groq.BaseURL, cfg.SearxNG.Instances)
	healthHandler := handlers.NewHealthHandler(healthChecker, logger)

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS())

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.PerMinute)

	router.GET("/health", healthHandler.HandleHealth)
	router.GET("/health/live", healthHandler.HandleLiveness)

	api := router.Group("/api")
	api.Use(rateLimiter.RateLimit())
	{
		api.POST("/search", searchHandler.HandleSearch)
		api.GET("/history", searchHandler.HandleHistory)
		api.POST("/feedback", searchHandler.HandleFeedback)
		api.GET("/suggestions", searchHandler.HandleSuggestions)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Forced shutdown")
	}
}
