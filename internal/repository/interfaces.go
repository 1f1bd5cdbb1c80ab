package repository

import (
	"errors"

	"github.com/servana/reviews-api/internal/models"
)

// Sentinel errors returned by repositories
var (
	// ErrNotFound indicates the requested row does not exist
	ErrNotFound = errors.New("not found")
	// ErrDuplicateReview indicates the unique constraint on
	// provider_reviews.engagement_id rejected an insert
	ErrDuplicateReview = errors.New("review already exists for engagement")
)

// EngagementRepository defines the interface for engagement data access.
// Engagements are read-only from this service's perspective.
type EngagementRepository interface {
	GetByID(id int64) (*models.Engagement, error)
	// GetStatus returns the engagement joined with the status of today's
	// service day, if one exists.
	GetStatus(id int64) (*models.EngagementStatus, error)
	// HasCompletedServiceDay reports whether any service day for the
	// engagement has status COMPLETED.
	HasCompletedServiceDay(engagementID int64) (bool, error)
}

// ReviewRepository defines the interface for provider review data access
type ReviewRepository interface {
	Create(review *models.ProviderReview) error
	ExistsForEngagement(engagementID int64) (bool, error)
	List(filters ReviewFilters) ([]models.ProviderReview, error)
	// GetProviderSummary aggregates the provider's full review set,
	// ignoring any listing filters.
	GetProviderSummary(providerID int64) (*models.ProviderRatingSummary, error)
	// RecomputeProviderRating overwrites the provider's stored aggregate
	// with the mean of all its review ratings and returns the new value.
	RecomputeProviderRating(providerID int64) (float64, error)
}

// TransactionManager defines the interface for database transaction management
type TransactionManager interface {
	WithTransaction(fn func(repos *Repositories) error) error
}

// Repositories groups all repository interfaces
type Repositories struct {
	Engagement EngagementRepository
	Review     ReviewRepository
	Tx         TransactionManager
}

// ReviewFilters defines filters and pagination for listing reviews.
// ServiceProviderID is required; the optional predicates are AND-combined.
type ReviewFilters struct {
	ServiceProviderID int64
	MinRating         *int
	ServiceType       *string
	Limit             int
	Offset            int
}
