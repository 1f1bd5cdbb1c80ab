package api

import (
	"github.com/gin-gonic/gin"

	"github.com/servana/reviews-api/internal/database"
	"github.com/servana/reviews-api/internal/logger"
	"github.com/servana/reviews-api/internal/services"
	"github.com/servana/reviews-api/pkg/config"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, db *database.DB, cfg *config.Config, log logger.Logger) error {
	// Create centralized services
	svcs := services.NewServices(db.DB, log)

	// Create handlers with service injection
	reviewHandler := NewReviewHandler(svcs.Review)
	healthHandler := NewHealthHandler(db)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthHandler.GetHealth)

		// Review endpoints
		v1.GET("/reviews/eligibility", reviewHandler.CheckEligibility)
		v1.POST("/reviews", reviewHandler.CreateReview)

		// Provider reputation endpoints
		v1.GET("/providers/:serviceProviderId/reviews", reviewHandler.GetProviderReviews)
	}

	return nil
}
