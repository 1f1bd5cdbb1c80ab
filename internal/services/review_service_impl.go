package services

import (
	stderrors "errors"
	"fmt"

	"github.com/servana/reviews-api/internal/errors"
	"github.com/servana/reviews-api/internal/logger"
	"github.com/servana/reviews-api/internal/models"
	"github.com/servana/reviews-api/internal/repository"
)

// Pagination defaults for review listings
const (
	defaultPageLimit = 10
	maxPageLimit     = 50
)

// reviewServiceImpl implements ReviewService
type reviewServiceImpl struct {
	repos  *repository.Repositories
	logger logger.Logger
}

// newReviewService creates a new review service implementation
func newReviewService(repos *repository.Repositories, log logger.Logger) ReviewService {
	return &reviewServiceImpl{
		repos:  repos,
		logger: log,
	}
}

// CheckEligibility evaluates whether the engagement may currently be
// reviewed. Read-only; an unknown engagement is an outcome here, not an
// error, mirroring the advisory nature of the check.
func (s *reviewServiceImpl) CheckEligibility(engagementID int64) (*EligibilityResult, error) {
	status, err := s.repos.Engagement.GetStatus(engagementID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return &EligibilityResult{Eligible: false, Reason: errors.ErrCodeEngagementNotFound}, nil
		}
		s.logger.Error("Failed to load engagement status", err, "engagement_id", engagementID)
		return nil, errors.ServerError("failed to load engagement status", err).WithOperation("CheckEligibility")
	}

	reviewExists, err := s.repos.Review.ExistsForEngagement(engagementID)
	if err != nil {
		s.logger.Error("Failed to check review existence", err, "engagement_id", engagementID)
		return nil, errors.ServerError("failed to check review existence", err).WithOperation("CheckEligibility")
	}

	return EvaluateEligibility(status, reviewExists), nil
}

// CreateReview runs the validation chain and, if it passes, inserts the
// review and recomputes the provider's aggregate rating in a single
// transaction. The duplicate pre-check is a fast path only: the unique
// constraint on engagement_id decides races, and its violation is
// reported as REVIEW_ALREADY_EXISTS exactly like the pre-check.
func (s *reviewServiceImpl) CreateReview(input CreateReviewInput) (*models.ProviderReview, error) {
	if input.EngagementID == nil || input.Rating == nil {
		return nil, errors.MissingRequiredFields("engagementId and rating are required")
	}

	rating := *input.Rating
	if rating < models.MinRating || rating > models.MaxRating {
		return nil, errors.InvalidRating(fmt.Sprintf("rating must be between %d and %d", models.MinRating, models.MaxRating))
	}

	engagementID := *input.EngagementID
	engagement, err := s.repos.Engagement.GetByID(engagementID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.EngagementNotFound("engagement does not exist")
		}
		s.logger.Error("Failed to load engagement", err, "engagement_id", engagementID)
		return nil, errors.ServerError("failed to load engagement", err).WithOperation("CreateReview")
	}

	if engagement.ServiceProviderID == nil {
		return nil, errors.ProviderNotAssigned("engagement has no assigned provider")
	}

	if err := s.checkCompletion(engagement); err != nil {
		return nil, err
	}

	exists, err := s.repos.Review.ExistsForEngagement(engagementID)
	if err != nil {
		s.logger.Error("Failed to check review existence", err, "engagement_id", engagementID)
		return nil, errors.ServerError("failed to check review existence", err).WithOperation("CreateReview")
	}
	if exists {
		return nil, errors.ReviewAlreadyExists("a review already exists for this engagement")
	}

	review := &models.ProviderReview{
		CustomerID:        engagement.CustomerID,
		ServiceProviderID: *engagement.ServiceProviderID,
		EngagementID:      engagementID,
		ServiceType:       engagement.BookingType,
		Rating:            rating,
		Review:            input.Review,
	}

	err = s.repos.Tx.WithTransaction(func(txRepos *repository.Repositories) error {
		if err := txRepos.Review.Create(review); err != nil {
			return err
		}

		newRating, err := txRepos.Review.RecomputeProviderRating(review.ServiceProviderID)
		if err != nil {
			return err
		}

		s.logger.Info("Provider rating recomputed",
			"service_provider_id", review.ServiceProviderID,
			"rating", newRating,
		)
		return nil
	})

	if err != nil {
		// Lost the race with a concurrent review for the same engagement
		if stderrors.Is(err, repository.ErrDuplicateReview) {
			return nil, errors.ReviewAlreadyExists("a review already exists for this engagement")
		}
		s.logger.Error("Review transaction failed", err, "engagement_id", engagementID)
		return nil, errors.ServerError("failed to create review", err).WithOperation("CreateReview")
	}

	return review, nil
}

// checkCompletion applies the booking-type completion rules at write time
func (s *reviewServiceImpl) checkCompletion(engagement *models.Engagement) error {
	if engagement.IsOnDemand() {
		completed, err := s.repos.Engagement.HasCompletedServiceDay(engagement.EngagementID)
		if err != nil {
			s.logger.Error("Failed to check completed service days", err, "engagement_id", engagement.EngagementID)
			return errors.ServerError("failed to check completed service days", err).WithOperation("CreateReview")
		}
		if !completed {
			return errors.ServiceNotCompleted("no completed service day on record")
		}
		return nil
	}

	// SHORT_TERM / MONTHLY contracts must have run to completion
	if engagement.Active {
		return errors.EngagementNotCompleted("engagement is still active")
	}
	return nil
}

// GetProviderReviews returns one filtered, paginated page of reviews and
// the provider's summary. The summary always covers the full review set
// so that filtered listings still show the provider's true reputation.
func (s *reviewServiceImpl) GetProviderReviews(query ProviderReviewsQuery) (*models.ProviderReviewPage, error) {
	if query.ServiceProviderID <= 0 {
		return nil, errors.NewAppError(errors.ErrCodeInvalidServiceProviderID, "service provider id must be a positive integer", nil)
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}

	reviews, err := s.repos.Review.List(repository.ReviewFilters{
		ServiceProviderID: query.ServiceProviderID,
		MinRating:         query.MinRating,
		ServiceType:       query.ServiceType,
		Limit:             limit,
		Offset:            offset,
	})
	if err != nil {
		s.logger.Error("Failed to list reviews", err, "service_provider_id", query.ServiceProviderID)
		return nil, errors.ServerError("failed to list reviews", err).WithOperation("GetProviderReviews")
	}

	summary, err := s.repos.Review.GetProviderSummary(query.ServiceProviderID)
	if err != nil {
		s.logger.Error("Failed to get provider summary", err, "service_provider_id", query.ServiceProviderID)
		return nil, errors.ServerError("failed to get provider summary", err).WithOperation("GetProviderReviews")
	}

	items := make([]models.ReviewListItem, len(reviews))
	for i, review := range reviews {
		items[i] = models.ReviewListItem{
			ReviewID:    review.ID.String(),
			Rating:      review.Rating,
			Review:      review.Review,
			ServiceType: review.ServiceType,
			CreatedAt:   review.CreatedAt.Unix(),
		}
	}

	return &models.ProviderReviewPage{
		Provider: models.ProviderProfile{
			ID:           query.ServiceProviderID,
			Rating:       summary.AverageRating,
			ReviewCount:  summary.Total,
			Grade:        GradeProvider(summary.AverageRating, summary.Total, summary.LowRatings),
			Distribution: summary.Distribution,
		},
		Count:   len(items),
		Reviews: items,
	}, nil
}
