package services

import (
	"database/sql"

	"github.com/servana/reviews-api/internal/logger"
	"github.com/servana/reviews-api/internal/models"
	"github.com/servana/reviews-api/internal/repository"
)

// Services contains all application services
type Services struct {
	Review ReviewService
}

// ReviewService defines the interface for review business logic
type ReviewService interface {
	// CheckEligibility is the advisory pre-flight check for whether a
	// customer may review an engagement. The write path re-derives the
	// same rules; callers must not treat a positive answer as a lock.
	CheckEligibility(engagementID int64) (*EligibilityResult, error)

	// CreateReview validates and atomically persists a review, updating
	// the provider's aggregate rating in the same transaction.
	CreateReview(input CreateReviewInput) (*models.ProviderReview, error)

	// GetProviderReviews returns one page of reviews newest-first plus
	// the provider's unfiltered rating summary and grade.
	GetProviderReviews(query ProviderReviewsQuery) (*models.ProviderReviewPage, error)
}

// EligibilityResult is the outcome of an eligibility check. Reason is
// empty when Eligible is true.
type EligibilityResult struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
}

// CreateReviewInput carries the create-review request. EngagementID and
// Rating are pointers so that absent fields are distinguishable from
// zero values.
type CreateReviewInput struct {
	EngagementID *int64
	Rating       *int
	Review       *string
}

// ProviderReviewsQuery carries the listing request parameters
type ProviderReviewsQuery struct {
	ServiceProviderID int64
	Limit             int
	Offset            int
	MinRating         *int
	ServiceType       *string
}

// NewServices creates a new Services instance with all dependencies
func NewServices(db *sql.DB, log logger.Logger) *Services {
	repos := repository.NewRepositories(db)

	return &Services{
		Review: newReviewService(repos, log),
	}
}

// NewReviewService creates a standalone review service
func NewReviewService(repos *repository.Repositories, log logger.Logger) ReviewService {
	return newReviewService(repos, log)
}
