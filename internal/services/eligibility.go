package services

import (
	"github.com/servana/reviews-api/internal/errors"
	"github.com/servana/reviews-api/internal/models"
)

// EvaluateEligibility applies the review-eligibility policy table to an
// engagement's current state. Rules are evaluated in order and the first
// match wins:
//
//  1. ON_DEMAND without an assigned provider      -> PROVIDER_NOT_ASSIGNED
//  2. ON_DEMAND without today's day COMPLETED     -> ENGAGEMENT_NOT_COMPLETED
//  3. SHORT_TERM/MONTHLY still active             -> ENGAGEMENT_NOT_COMPLETED
//  4. review already on record                    -> REVIEW_ALREADY_EXISTS
//  5. otherwise                                   -> eligible
//
// The function is pure; both the eligibility endpoint and the write path
// feed it freshly read state.
func EvaluateEligibility(status *models.EngagementStatus, reviewExists bool) *EligibilityResult {
	if status.BookingType == models.BookingTypeOnDemand {
		if status.AssignmentStatus != models.AssignmentStatusAssigned {
			return &EligibilityResult{Eligible: false, Reason: errors.ErrCodeProviderNotAssigned}
		}
		if !status.TodayCompleted() {
			return &EligibilityResult{Eligible: false, Reason: errors.ErrCodeEngagementNotCompleted}
		}
	} else {
		if status.Active {
			return &EligibilityResult{Eligible: false, Reason: errors.ErrCodeEngagementNotCompleted}
		}
	}

	if reviewExists {
		return &EligibilityResult{Eligible: false, Reason: errors.ErrCodeReviewAlreadyExists}
	}

	return &EligibilityResult{Eligible: true}
}
