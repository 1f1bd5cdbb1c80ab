package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"

	"github.com/servana/reviews-api/internal/models"
)

// pqUniqueViolation is the Postgres error code for unique constraint violations
const pqUniqueViolation = "23505"

// reviewRepository implements ReviewRepository
type reviewRepository struct {
	db dbExecutor
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db dbExecutor) ReviewRepository {
	return &reviewRepository{db: db}
}

// Create inserts a new provider review. The unique constraint on
// engagement_id is the authoritative duplicate guard; a violation is
// surfaced as ErrDuplicateReview so callers can report it as a policy
// rejection rather than a system fault.
func (r *reviewRepository) Create(review *models.ProviderReview) error {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO provider_reviews (
			id, customer_id, service_provider_id, engagement_id,
			service_type, rating, review, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	_, err := r.db.Exec(query,
		review.ID, review.CustomerID, review.ServiceProviderID,
		review.EngagementID, review.ServiceType, review.Rating,
		review.Review, review.CreatedAt,
	)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return ErrDuplicateReview
		}
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

// ExistsForEngagement reports whether a review exists for the engagement
func (r *reviewRepository) ExistsForEngagement(engagementID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM provider_reviews WHERE engagement_id = $1
		)
	`

	var exists bool
	err := r.db.QueryRow(query, engagementID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check review existence: %w", err)
	}

	return exists, nil
}

// List retrieves a page of a provider's reviews newest-first. Optional
// predicates are AND-combined; pagination applies only to this listing,
// never to the provider summary.
func (r *reviewRepository) List(filters ReviewFilters) ([]models.ProviderReview, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "customer_id", "service_provider_id", "engagement_id",
		"service_type", "rating", "review", "created_at")
	sb.From("provider_reviews")

	conds := []string{sb.Equal("service_provider_id", filters.ServiceProviderID)}
	if filters.MinRating != nil {
		conds = append(conds, sb.GreaterEqualThan("rating", *filters.MinRating))
	}
	if filters.ServiceType != nil {
		conds = append(conds, sb.Equal("service_type", *filters.ServiceType))
	}
	sb.Where(conds...)
	sb.OrderBy("created_at DESC")
	sb.Limit(filters.Limit)
	sb.Offset(filters.Offset)

	query, args := sb.Build()
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.ProviderReview
	for rows.Next() {
		var review models.ProviderReview
		if err := rows.Scan(
			&review.ID, &review.CustomerID, &review.ServiceProviderID,
			&review.EngagementID, &review.ServiceType, &review.Rating,
			&review.Review, &review.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reviews: %w", err)
	}

	return reviews, nil
}

// GetProviderSummary aggregates the provider's full review set in one
// pass: total, rounded mean, per-star distribution and low-rating count
func (r *reviewRepository) GetProviderSummary(providerID int64) (*models.ProviderRatingSummary, error) {
	query := `
		SELECT
			COUNT(*)::int                                         AS total,
			COALESCE(ROUND(AVG(rating)::numeric, 1), 0)           AS avg_rating,
			COUNT(*) FILTER (WHERE rating = 5)::int               AS r5,
			COUNT(*) FILTER (WHERE rating = 4)::int               AS r4,
			COUNT(*) FILTER (WHERE rating = 3)::int               AS r3,
			COUNT(*) FILTER (WHERE rating = 2)::int               AS r2,
			COUNT(*) FILTER (WHERE rating = 1)::int               AS r1,
			COUNT(*) FILTER (WHERE rating <= 2)::int              AS low_ratings
		FROM provider_reviews
		WHERE service_provider_id = $1
	`

	summary := &models.ProviderRatingSummary{}
	err := r.db.QueryRow(query, providerID).Scan(
		&summary.Total, &summary.AverageRating,
		&summary.Distribution.Five, &summary.Distribution.Four,
		&summary.Distribution.Three, &summary.Distribution.Two,
		&summary.Distribution.One, &summary.LowRatings,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get provider summary: %w", err)
	}

	return summary, nil
}

// RecomputeProviderRating overwrites the stored aggregate with the mean
// of all the provider's review ratings as of the current snapshot. Run
// inside the same transaction as the insert it accounts for.
func (r *reviewRepository) RecomputeProviderRating(providerID int64) (float64, error) {
	query := `
		UPDATE service_providers
		SET rating = (
			SELECT COALESCE(AVG(rating)::double precision, 0)
			FROM provider_reviews
			WHERE service_provider_id = $1
		),
		updated_at = NOW()
		WHERE id = $1
		RETURNING rating
	`

	var rating float64
	err := r.db.QueryRow(query, providerID).Scan(&rating)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to recompute provider rating: %w", err)
	}

	return rating, nil
}
