package models

import (
	"time"
)

// Booking types for an engagement
const (
	BookingTypeOnDemand  = "ON_DEMAND"
	BookingTypeShortTerm = "SHORT_TERM"
	BookingTypeMonthly   = "MONTHLY"
)

// Assignment statuses for an engagement
const (
	AssignmentStatusAssigned   = "ASSIGNED"
	AssignmentStatusUnassigned = "UNASSIGNED"
)

// Service day statuses
const (
	ServiceDayStatusPending   = "PENDING"
	ServiceDayStatusCompleted = "COMPLETED"
	ServiceDayStatusCancelled = "CANCELLED"
)

// Engagement represents a contracted unit of service between a customer
// and a service provider. Booking type never changes after creation;
// ServiceProviderID stays nil until a provider is assigned.
type Engagement struct {
	EngagementID      int64     `json:"engagement_id" db:"engagement_id"`
	BookingType       string    `json:"booking_type" db:"booking_type"`
	Active            bool      `json:"active" db:"active"`
	AssignmentStatus  string    `json:"assignment_status" db:"assignment_status"`
	CustomerID        int64     `json:"customer_id" db:"customer_id"`
	ServiceProviderID *int64    `json:"service_provider_id" db:"service_provider_id"`
	ServiceType       string    `json:"service_type" db:"service_type"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// IsOnDemand reports whether the engagement is day-based work rather than
// a fixed-duration contract.
func (e *Engagement) IsOnDemand() bool {
	return e.BookingType == BookingTypeOnDemand
}

// ServiceDay records whether service was performed on a given date under
// an ON_DEMAND engagement. At most one row exists per (engagement, date).
type ServiceDay struct {
	ID           int64     `json:"id" db:"id"`
	EngagementID int64     `json:"engagement_id" db:"engagement_id"`
	ServiceDate  time.Time `json:"service_date" db:"service_date"`
	Status       string    `json:"status" db:"status"`
}

// EngagementStatus is the joined row the eligibility check evaluates:
// the engagement plus the status of today's service day, if any.
type EngagementStatus struct {
	EngagementID     int64   `json:"engagement_id" db:"engagement_id"`
	BookingType      string  `json:"booking_type" db:"booking_type"`
	Active           bool    `json:"active" db:"active"`
	AssignmentStatus string  `json:"assignment_status" db:"assignment_status"`
	TodayStatus      *string `json:"today_status" db:"today_status"`
}

// TodayCompleted reports whether today's service day exists and is COMPLETED.
func (s *EngagementStatus) TodayCompleted() bool {
	return s.TodayStatus != nil && *s.TodayStatus == ServiceDayStatusCompleted
}
