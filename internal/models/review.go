package models

import (
	"time"

	"github.com/google/uuid"
)

// Rating bounds for a provider review
const (
	MinRating = 1
	MaxRating = 5
)

// Provider grades derived from the aggregate review set
const (
	GradeNew              = "New"
	GradeExcellent        = "Excellent"
	GradeVeryGood         = "Very Good"
	GradeAverage          = "Average"
	GradeNeedsImprovement = "Needs Improvement"
)

// ProviderReview is an immutable record of a customer's rating of a
// provider for one engagement. Exactly one review may exist per
// engagement; the database enforces this with a unique constraint.
type ProviderReview struct {
	ID                uuid.UUID `json:"id" db:"id"`
	CustomerID        int64     `json:"customer_id" db:"customer_id"`
	ServiceProviderID int64     `json:"service_provider_id" db:"service_provider_id"`
	EngagementID      int64     `json:"engagement_id" db:"engagement_id"`
	ServiceType       string    `json:"service_type" db:"service_type"`
	Rating            int       `json:"rating" db:"rating"`
	Review            *string   `json:"review" db:"review"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// ReviewListItem is the listing projection of a review. CreatedAt is
// serialized as epoch seconds.
type ReviewListItem struct {
	ReviewID    string  `json:"review_id"`
	Rating      int     `json:"rating"`
	Review      *string `json:"review"`
	ServiceType string  `json:"service_type"`
	CreatedAt   int64   `json:"created_at"`
}

// RatingDistribution counts reviews at each star level.
type RatingDistribution struct {
	Five  int `json:"5"`
	Four  int `json:"4"`
	Three int `json:"3"`
	Two   int `json:"2"`
	One   int `json:"1"`
}

// ProviderRatingSummary aggregates a provider's full review set. It is
// always computed over the unfiltered, unpaginated set of reviews.
type ProviderRatingSummary struct {
	Total         int                `json:"total"`
	AverageRating float64            `json:"avg_rating"`
	Distribution  RatingDistribution `json:"distribution"`
	LowRatings    int                `json:"low_ratings"`
}

// ProviderProfile is the summary block returned alongside a review page.
type ProviderProfile struct {
	ID           int64              `json:"id"`
	Rating       float64            `json:"rating"`
	ReviewCount  int                `json:"review_count"`
	Grade        string             `json:"grade"`
	Distribution RatingDistribution `json:"distribution"`
}

// ProviderReviewPage is one page of reviews plus the unfiltered summary.
type ProviderReviewPage struct {
	Provider ProviderProfile  `json:"provider"`
	Count    int              `json:"count"`
	Reviews  []ReviewListItem `json:"reviews"`
}
