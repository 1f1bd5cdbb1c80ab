package main

import (
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/servana/reviews-api/internal/api"
	"github.com/servana/reviews-api/internal/database"
	"github.com/servana/reviews-api/internal/logger"
	"github.com/servana/reviews-api/internal/middleware"
	"github.com/servana/reviews-api/pkg/config"
)

func main() {
	// Load environment variables
	_ = godotenv.Load()

	// Initialize configuration and logging
	cfg := config.New()
	log := logger.New(cfg.Environment)

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database", err)
	}
	defer db.Close()

	// Run migrations
	if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal("Failed to run migrations", err)
	}

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	r := gin.New()

	if err := r.SetTrustedProxies(cfg.GetTrustedProxies()); err != nil {
		log.Fatal("Failed to set trusted proxies", err)
	}

	// Add middleware
	r.Use(middleware.RequestLoggingMiddleware(log))
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.CORSMiddleware(cfg))
	r.Use(middleware.InputValidationMiddleware(cfg))

	if cfg.EnableRateLimit {
		r.Use(middleware.RateLimitingMiddleware())
	}

	r.Use(gin.Recovery())

	// Setup API routes
	if err := api.SetupRoutes(r, db, cfg, log); err != nil {
		log.Fatal("Failed to setup API routes", err)
	}

	log.Info("Server starting", "port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server", err)
	}
}
