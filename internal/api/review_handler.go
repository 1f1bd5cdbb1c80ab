package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/servana/reviews-api/internal/errors"
	"github.com/servana/reviews-api/internal/services"
)

// ReviewHandler handles review eligibility, creation and listing
type ReviewHandler struct {
	reviewService services.ReviewService
}

// NewReviewHandler creates a new review handler with service injection
func NewReviewHandler(reviewService services.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
	}
}

// createReviewRequest is the POST /reviews body. Pointer fields let the
// service distinguish absent values from zero values.
type createReviewRequest struct {
	EngagementID *int64  `json:"engagementId"`
	Rating       *int    `json:"rating"`
	Review       *string `json:"review"`
}

// CheckEligibility answers whether the engagement may currently be
// reviewed. Policy rejections are 200s with eligible=false; only a
// missing or malformed engagementId is a client error.
func (h *ReviewHandler) CheckEligibility(c *gin.Context) {
	raw := c.Query("engagementId")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"eligible": false,
			"reason":   errors.ErrCodeMissingEngagementID,
		})
		return
	}

	engagementID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"eligible": false,
			"reason":   errors.ErrCodeMissingEngagementID,
		})
		return
	}

	result, err := h.reviewService.CheckEligibility(engagementID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"eligible": false,
			"reason":   errors.ErrCodeServerError,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateReview persists a new review and updates the provider aggregate
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	var req createReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"reason":  errors.ErrCodeMissingRequiredFields,
		})
		return
	}

	review, err := h.reviewService.CreateReview(services.CreateReviewInput{
		EngagementID: req.EngagementID,
		Rating:       req.Rating,
		Review:       req.Review,
	})
	if err != nil {
		reason := errors.ReasonCode(err)
		c.JSON(statusForReason(reason), gin.H{
			"success": false,
			"reason":  reason,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"message":   "REVIEW_CREATED_SUCCESSFULLY",
		"review_id": review.ID.String(),
	})
}

// GetProviderReviews returns one page of a provider's reviews plus the
// unfiltered summary and grade
func (h *ReviewHandler) GetProviderReviews(c *gin.Context) {
	providerID, err := strconv.ParseInt(c.Param("serviceProviderId"), 10, 64)
	if err != nil || providerID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"reason":  errors.ErrCodeInvalidServiceProviderID,
		})
		return
	}

	query := services.ProviderReviewsQuery{
		ServiceProviderID: providerID,
		Limit:             intQuery(c, "limit", 0),
		Offset:            intQuery(c, "offset", 0),
	}

	if raw := c.Query("minRating"); raw != "" {
		if minRating, err := strconv.Atoi(raw); err == nil {
			query.MinRating = &minRating
		}
	}
	if serviceType := c.Query("serviceType"); serviceType != "" {
		query.ServiceType = &serviceType
	}

	page, err := h.reviewService.GetProviderReviews(query)
	if err != nil {
		reason := errors.ReasonCode(err)
		c.JSON(statusForReason(reason), gin.H{
			"success": false,
			"reason":  reason,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"provider": page.Provider,
		"count":    page.Count,
		"reviews":  page.Reviews,
	})
}

// statusForReason maps reason codes to HTTP statuses. Policy codes are
// client errors; everything else is the generic server failure.
func statusForReason(reason string) int {
	switch reason {
	case errors.ErrCodeEngagementNotFound:
		return http.StatusNotFound
	case errors.ErrCodeReviewAlreadyExists:
		return http.StatusConflict
	case errors.ErrCodeMissingRequiredFields,
		errors.ErrCodeInvalidRating,
		errors.ErrCodeProviderNotAssigned,
		errors.ErrCodeServiceNotCompleted,
		errors.ErrCodeEngagementNotCompleted,
		errors.ErrCodeInvalidServiceProviderID,
		errors.ErrCodeMissingEngagementID:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// intQuery parses an integer query parameter, falling back on absence or
// garbage
func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
