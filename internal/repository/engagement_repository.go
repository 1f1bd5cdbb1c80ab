package repository

import (
	"database/sql"
	"fmt"

	"github.com/servana/reviews-api/internal/models"
)

// engagementRepository implements EngagementRepository
type engagementRepository struct {
	db dbExecutor
}

// NewEngagementRepository creates a new engagement repository
func NewEngagementRepository(db dbExecutor) EngagementRepository {
	return &engagementRepository{db: db}
}

// GetByID retrieves an engagement by ID
func (r *engagementRepository) GetByID(id int64) (*models.Engagement, error) {
	query := `
		SELECT engagement_id, booking_type, active, assignment_status,
			   customer_id, service_provider_id, service_type, created_at
		FROM engagements WHERE engagement_id = $1
	`

	engagement := &models.Engagement{}
	err := r.db.QueryRow(query, id).Scan(
		&engagement.EngagementID, &engagement.BookingType, &engagement.Active,
		&engagement.AssignmentStatus, &engagement.CustomerID,
		&engagement.ServiceProviderID, &engagement.ServiceType,
		&engagement.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get engagement: %w", err)
	}

	return engagement, nil
}

// GetStatus retrieves an engagement joined with today's service-day status.
// The join is against the single service_days table; the row for the
// current date, when present, drives the ON_DEMAND completion check.
func (r *engagementRepository) GetStatus(id int64) (*models.EngagementStatus, error) {
	query := `
		SELECT e.engagement_id, e.booking_type, e.active, e.assignment_status,
			   sd.status AS today_status
		FROM engagements e
		LEFT JOIN service_days sd
		  ON sd.engagement_id = e.engagement_id
		 AND sd.service_date = CURRENT_DATE
		WHERE e.engagement_id = $1
		LIMIT 1
	`

	status := &models.EngagementStatus{}
	err := r.db.QueryRow(query, id).Scan(
		&status.EngagementID, &status.BookingType, &status.Active,
		&status.AssignmentStatus, &status.TodayStatus,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get engagement status: %w", err)
	}

	return status, nil
}

// HasCompletedServiceDay reports whether the engagement has at least one
// COMPLETED service day on record
func (r *engagementRepository) HasCompletedServiceDay(engagementID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM service_days
			WHERE engagement_id = $1 AND status = $2
		)
	`

	var exists bool
	err := r.db.QueryRow(query, engagementID, models.ServiceDayStatusCompleted).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check completed service days: %w", err)
	}

	return exists, nil
}
