package services

import (
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/servana/reviews-api/internal/errors"
	"github.com/servana/reviews-api/internal/logger"
	"github.com/servana/reviews-api/internal/models"
	"github.com/servana/reviews-api/internal/repository"
)

// MockEngagementRepository implements EngagementRepository for testing
type MockEngagementRepository struct {
	engagements map[int64]*models.Engagement
	statuses    map[int64]*models.EngagementStatus
	completed   map[int64]bool
	failWith    error
}

func NewMockEngagementRepository() *MockEngagementRepository {
	return &MockEngagementRepository{
		engagements: make(map[int64]*models.Engagement),
		statuses:    make(map[int64]*models.EngagementStatus),
		completed:   make(map[int64]bool),
	}
}

func (m *MockEngagementRepository) GetByID(id int64) (*models.Engagement, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	engagement, ok := m.engagements[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return engagement, nil
}

func (m *MockEngagementRepository) GetStatus(id int64) (*models.EngagementStatus, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	status, ok := m.statuses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return status, nil
}

func (m *MockEngagementRepository) HasCompletedServiceDay(engagementID int64) (bool, error) {
	if m.failWith != nil {
		return false, m.failWith
	}
	return m.completed[engagementID], nil
}

// MockReviewRepository implements ReviewRepository for testing. It keeps
// ratings per provider so the recompute returns a real mean.
type MockReviewRepository struct {
	byEngagement map[int64]*models.ProviderReview
	summaries    map[int64]*models.ProviderRatingSummary
	listResult   []models.ProviderReview
	lastFilters  repository.ReviewFilters
	aggregates   map[int64]float64
	recomputes   int
	createErr    error
	failWith     error
}

func NewMockReviewRepository() *MockReviewRepository {
	return &MockReviewRepository{
		byEngagement: make(map[int64]*models.ProviderReview),
		summaries:    make(map[int64]*models.ProviderRatingSummary),
		aggregates:   make(map[int64]float64),
	}
}

func (m *MockReviewRepository) Create(review *models.ProviderReview) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.byEngagement[review.EngagementID]; exists {
		return repository.ErrDuplicateReview
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now()
	}
	m.byEngagement[review.EngagementID] = review
	return nil
}

func (m *MockReviewRepository) ExistsForEngagement(engagementID int64) (bool, error) {
	if m.failWith != nil {
		return false, m.failWith
	}
	_, exists := m.byEngagement[engagementID]
	return exists, nil
}

func (m *MockReviewRepository) List(filters repository.ReviewFilters) ([]models.ProviderReview, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	m.lastFilters = filters
	return m.listResult, nil
}

func (m *MockReviewRepository) GetProviderSummary(providerID int64) (*models.ProviderRatingSummary, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	if summary, ok := m.summaries[providerID]; ok {
		return summary, nil
	}
	return &models.ProviderRatingSummary{}, nil
}

func (m *MockReviewRepository) RecomputeProviderRating(providerID int64) (float64, error) {
	m.recomputes++
	var sum, count float64
	for _, review := range m.byEngagement {
		if review.ServiceProviderID == providerID {
			sum += float64(review.Rating)
			count++
		}
	}
	rating := 0.0
	if count > 0 {
		rating = sum / count
	}
	m.aggregates[providerID] = rating
	return rating, nil
}

// mockTransactionManager runs the function against the same repositories,
// imitating the real manager's wrap-on-failure behavior
type mockTransactionManager struct {
	repos    *repository.Repositories
	beginErr error
}

func (m *mockTransactionManager) WithTransaction(fn func(repos *repository.Repositories) error) error {
	if m.beginErr != nil {
		return m.beginErr
	}
	if err := fn(m.repos); err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

func newTestService() (ReviewService, *MockEngagementRepository, *MockReviewRepository) {
	engagementRepo := NewMockEngagementRepository()
	reviewRepo := NewMockReviewRepository()

	repos := &repository.Repositories{
		Engagement: engagementRepo,
		Review:     reviewRepo,
	}
	repos.Tx = &mockTransactionManager{repos: repos}

	return NewReviewService(repos, logger.NewNop()), engagementRepo, reviewRepo
}

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }

func assignedEngagement(id, providerID int64) *models.Engagement {
	return &models.Engagement{
		EngagementID:      id,
		BookingType:       models.BookingTypeOnDemand,
		Active:            true,
		AssignmentStatus:  models.AssignmentStatusAssigned,
		CustomerID:        7,
		ServiceProviderID: &providerID,
		ServiceType:       "CLEANING",
	}
}

func TestCheckEligibilityEngagementNotFound(t *testing.T) {
	svc, _, _ := newTestService()

	result, err := svc.CheckEligibility(42)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Eligible {
		t.Error("Expected ineligible for unknown engagement")
	}
	if result.Reason != errors.ErrCodeEngagementNotFound {
		t.Errorf("Expected ENGAGEMENT_NOT_FOUND, got %s", result.Reason)
	}
}

func TestCheckEligibilityEligible(t *testing.T) {
	svc, engagementRepo, _ := newTestService()

	today := models.ServiceDayStatusCompleted
	engagementRepo.statuses[1] = &models.EngagementStatus{
		EngagementID:     1,
		BookingType:      models.BookingTypeOnDemand,
		AssignmentStatus: models.AssignmentStatusAssigned,
		TodayStatus:      &today,
	}

	result, err := svc.CheckEligibility(1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !result.Eligible {
		t.Errorf("Expected eligible, got reason %s", result.Reason)
	}
}

func TestCheckEligibilityExistingReview(t *testing.T) {
	svc, engagementRepo, reviewRepo := newTestService()

	engagementRepo.statuses[1] = &models.EngagementStatus{
		EngagementID: 1,
		BookingType:  models.BookingTypeMonthly,
		Active:       false,
	}
	reviewRepo.byEngagement[1] = &models.ProviderReview{EngagementID: 1}

	result, err := svc.CheckEligibility(1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Reason != errors.ErrCodeReviewAlreadyExists {
		t.Errorf("Expected REVIEW_ALREADY_EXISTS, got %s", result.Reason)
	}
}

func TestCheckEligibilityStoreFailure(t *testing.T) {
	svc, engagementRepo, _ := newTestService()
	engagementRepo.failWith = stderrors.New("connection refused")

	_, err := svc.CheckEligibility(1)
	if err == nil {
		t.Fatal("Expected error for store failure")
	}
	if errors.ReasonCode(err) != errors.ErrCodeServerError {
		t.Errorf("Expected SERVER_ERROR, got %s", errors.ReasonCode(err))
	}
}

func TestCreateReviewMissingFields(t *testing.T) {
	svc, _, _ := newTestService()

	tests := []struct {
		name  string
		input CreateReviewInput
	}{
		{"missing both", CreateReviewInput{}},
		{"missing rating", CreateReviewInput{EngagementID: int64Ptr(1)}},
		{"missing engagement", CreateReviewInput{Rating: intPtr(5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateReview(tt.input)
			if errors.ReasonCode(err) != errors.ErrCodeMissingRequiredFields {
				t.Errorf("Expected MISSING_REQUIRED_FIELDS, got %v", err)
			}
		})
	}
}

func TestCreateReviewInvalidRating(t *testing.T) {
	svc, _, reviewRepo := newTestService()

	for _, rating := range []int{0, 6, -1, 100} {
		_, err := svc.CreateReview(CreateReviewInput{
			EngagementID: int64Ptr(1),
			Rating:       intPtr(rating),
		})
		if errors.ReasonCode(err) != errors.ErrCodeInvalidRating {
			t.Errorf("Rating %d: expected INVALID_RATING, got %v", rating, err)
		}
	}

	if len(reviewRepo.byEngagement) != 0 {
		t.Error("Expected no reviews persisted for invalid ratings")
	}
}

func TestCreateReviewEngagementNotFound(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.CreateReview(CreateReviewInput{
		EngagementID: int64Ptr(99),
		Rating:       intPtr(5),
	})
	if errors.ReasonCode(err) != errors.ErrCodeEngagementNotFound {
		t.Errorf("Expected ENGAGEMENT_NOT_FOUND, got %v", err)
	}
}

func TestCreateReviewProviderNotAssigned(t *testing.T) {
	svc, engagementRepo, _ := newTestService()

	engagementRepo.engagements[1] = &models.Engagement{
		EngagementID: 1,
		BookingType:  models.BookingTypeOnDemand,
		CustomerID:   7,
	}

	_, err := svc.CreateReview(CreateReviewInput{
		EngagementID: int64Ptr(1),
		Rating:       intPtr(5),
	})
	if errors.ReasonCode(err) != errors.ErrCodeProviderNotAssigned {
		t.Errorf("Expected PROVIDER_NOT_ASSIGNED, got %v", err)
	}
}

func TestCreateReviewOnDemandNotCompleted(t *testing.T) {
	svc, engagementRepo, _ := newTestService()

	engagementRepo.engagements[1] = assignedEngagement(1, 10)
	// no completed service day on record

	_, err := svc.CreateReview(CreateReviewInput{
		EngagementID: int64Ptr(1),
		Rating:       intPtr(5),
	})
	if errors.ReasonCode(err) != errors.ErrCodeServiceNotCompleted {
		t.Errorf("Expected SERVICE_NOT_COMPLETED, got %v", err)
	}
}

func TestCreateReviewContractStillActive(t *testing.T) {
	svc, engagementRepo, _ := newTestService()

	providerID := int64(10)
	engagementRepo.engagements[1] = &models.Engagement{
		EngagementID:      1,
		BookingType:       models.BookingTypeMonthly,
		Active:            true,
		CustomerID:        7,
		ServiceProviderID: &providerID,
	}

	_, err := svc.CreateReview(CreateReviewInput{
		EngagementID: int64Ptr(1),
		Rating:       intPtr(4),
	})
	if errors.ReasonCode(err) != errors.ErrCodeEngagementNotCompleted {
		t.Errorf("Expected ENGAGEMENT_NOT_COMPLETED, got %v", err)
	}
}

func TestCreateReviewSuccess(t *testing.T) {
	svc, engagementRepo, reviewRepo := newTestService()

	engagementRepo.engagements[1] = assignedEngagement(1, 10)
	engagementRepo.completed[1] = true

	comment := "great work"
	review, err := svc.CreateReview(CreateReviewInput{
		EngagementID: int64Ptr(1),
		Rating:       intPtr(5),
		Review:       &comment,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if review.ServiceProviderID != 10 {
		t.Errorf("Expected provider 10, got %d", review.ServiceProviderID)
	}
	if review.CustomerID != 7 {
		t.Errorf("Expected customer 7, got %d", review.CustomerID)
	}
	if review.ServiceType != models.BookingTypeOnDemand {
		t.Errorf("Expected service type from booking type, got %s", review.ServiceType)
	}
	if reviewRepo.recomputes != 1 {
		t.Errorf("Expected exactly one aggregate recompute, got %d", reviewRepo.recomputes)
	}
	if got := reviewRepo.aggregates[10]; got != 5.0 {
		t.Errorf("Expected aggregate 5.0 after first review, got %f", got)
	}
}

func TestCreateReviewAggregateIsMean(t *testing.T) {
	svc, engagementRepo, reviewRepo := newTestService()

	// Seed two earlier reviews for provider 10
	reviewRepo.byEngagement[100] = &models.ProviderReview{EngagementID: 100, ServiceProviderID: 10, Rating: 5}
	reviewRepo.byEngagement[101] = &models.ProviderReview{EngagementID: 101, ServiceProviderID: 10, Rating: 4}

	engagementRepo.engagements[1] = assignedEngagement(1, 10)
	engagementRepo.completed[1] = true

	if _, err := svc.CreateReview(CreateReviewInput{
		EngagementID: int64Ptr(1),
		Rating:       intPtr(3),
	}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got := reviewRepo.aggregates[10]; got != 4.0 {
		t.Errorf("Expected aggregate mean 4.0, got %f", got)
	}
}

func TestCreateReviewDuplicatePreCheck(t *testing.T) {
	svc, engagementRepo, reviewRepo := newTestService()

	engagementRepo.engagements[1] = assignedEngagement(1, 10)
	engagementRepo.completed[1] = true
	reviewRepo.byEngagement[1] = &models.ProviderReview{EngagementID: 1, ServiceProviderID: 10, Rating: 4}

	_, err := svc.CreateReview(CreateReviewInput{
		EngagementID: int64Ptr(1),
		Rating:       intPtr(5),
	})
	if errors.ReasonCode(err) != errors.ErrCodeReviewAlreadyExists {
		t.Errorf("Expected REVIEW_ALREADY_EXISTS, got %v", err)
	}
	if reviewRepo.recomputes != 0 {
		t.Error("Expected no aggregate recompute on duplicate rejection")
	}
}

func TestCreateReviewDuplicateRace(t *testing.T) {
	// The pre-check passes but a concurrent writer wins the insert; the
	// unique-constraint violation must surface as REVIEW_ALREADY_EXISTS
	svc, engagementRepo, reviewRepo := newTestService()

	engagementRepo.engagements[1] = assignedEngagement(1, 10)
	engagementRepo.completed[1] = true
	reviewRepo.createErr = repository.ErrDuplicateReview

	_, err := svc.CreateReview(CreateReviewInput{
		EngagementID: int64Ptr(1),
		Rating:       intPtr(5),
	})
	if errors.ReasonCode(err) != errors.ErrCodeReviewAlreadyExists {
		t.Errorf("Expected REVIEW_ALREADY_EXISTS from constraint violation, got %v", err)
	}
	if reviewRepo.recomputes != 0 {
		t.Error("Expected no aggregate recompute when the insert loses the race")
	}
}

func TestCreateReviewTransactionFailure(t *testing.T) {
	svc, engagementRepo, reviewRepo := newTestService()

	engagementRepo.engagements[1] = assignedEngagement(1, 10)
	engagementRepo.completed[1] = true
	reviewRepo.createErr = stderrors.New("disk full")

	_, err := svc.CreateReview(CreateReviewInput{
		EngagementID: int64Ptr(1),
		Rating:       intPtr(5),
	})
	if err == nil {
		t.Fatal("Expected error for transaction failure")
	}
	if errors.ReasonCode(err) != errors.ErrCodeServerError {
		t.Errorf("Expected SERVER_ERROR, got %s", errors.ReasonCode(err))
	}
}

func TestGetProviderReviewsInvalidProvider(t *testing.T) {
	svc, _, _ := newTestService()

	for _, id := range []int64{0, -5} {
		_, err := svc.GetProviderReviews(ProviderReviewsQuery{ServiceProviderID: id})
		if errors.ReasonCode(err) != errors.ErrCodeInvalidServiceProviderID {
			t.Errorf("Provider %d: expected INVALID_SERVICE_PROVIDER_ID, got %v", id, err)
		}
	}
}

func TestGetProviderReviewsPaginationDefaults(t *testing.T) {
	svc, _, reviewRepo := newTestService()

	if _, err := svc.GetProviderReviews(ProviderReviewsQuery{ServiceProviderID: 10}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if reviewRepo.lastFilters.Limit != 10 {
		t.Errorf("Expected default limit 10, got %d", reviewRepo.lastFilters.Limit)
	}
	if reviewRepo.lastFilters.Offset != 0 {
		t.Errorf("Expected default offset 0, got %d", reviewRepo.lastFilters.Offset)
	}

	// Limit is capped at 50, negative offset falls back to 0
	if _, err := svc.GetProviderReviews(ProviderReviewsQuery{
		ServiceProviderID: 10,
		Limit:             500,
		Offset:            -3,
	}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if reviewRepo.lastFilters.Limit != 50 {
		t.Errorf("Expected limit capped at 50, got %d", reviewRepo.lastFilters.Limit)
	}
	if reviewRepo.lastFilters.Offset != 0 {
		t.Errorf("Expected offset reset to 0, got %d", reviewRepo.lastFilters.Offset)
	}
}

func TestGetProviderReviewsFiltersDoNotTouchSummary(t *testing.T) {
	svc, _, reviewRepo := newTestService()

	created := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	comment := "spotless"
	reviewRepo.listResult = []models.ProviderReview{
		{ServiceProviderID: 10, Rating: 5, Review: &comment, ServiceType: "ON_DEMAND", CreatedAt: created},
	}
	reviewRepo.summaries[10] = &models.ProviderRatingSummary{
		Total:         5,
		AverageRating: 4.2,
		Distribution:  models.RatingDistribution{Five: 2, Four: 2, Two: 1},
		LowRatings:    1,
	}

	minRating := 4
	page, err := svc.GetProviderReviews(ProviderReviewsQuery{
		ServiceProviderID: 10,
		MinRating:         &minRating,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Filter reached the listing query
	if reviewRepo.lastFilters.MinRating == nil || *reviewRepo.lastFilters.MinRating != 4 {
		t.Error("Expected minRating filter to reach the listing query")
	}

	// Summary reflects the full unfiltered set
	if page.Provider.ReviewCount != 5 {
		t.Errorf("Expected unfiltered review count 5, got %d", page.Provider.ReviewCount)
	}
	if page.Provider.Rating != 4.2 {
		t.Errorf("Expected unfiltered rating 4.2, got %f", page.Provider.Rating)
	}
	if page.Provider.Grade != models.GradeVeryGood {
		t.Errorf("Expected grade Very Good, got %s", page.Provider.Grade)
	}

	// Listing serializes created_at as epoch seconds
	if page.Count != 1 || page.Reviews[0].CreatedAt != created.Unix() {
		t.Errorf("Expected epoch seconds %d, got %d", created.Unix(), page.Reviews[0].CreatedAt)
	}
}

func TestGetProviderReviewsEmptyProvider(t *testing.T) {
	svc, _, _ := newTestService()

	page, err := svc.GetProviderReviews(ProviderReviewsQuery{ServiceProviderID: 10})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if page.Provider.ReviewCount != 0 || page.Provider.Rating != 0 {
		t.Error("Expected zeroed summary for provider with no reviews")
	}
	if page.Provider.Grade != models.GradeNew {
		t.Errorf("Expected grade New for provider with no reviews, got %s", page.Provider.Grade)
	}
	if page.Count != 0 {
		t.Errorf("Expected empty page, got %d reviews", page.Count)
	}
}
