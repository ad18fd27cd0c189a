// Package store persists the pipeline's records. Two backends exist: a
// Postgres implementation used in production and an in-memory implementation
// used for development and tests. Both enforce the slot capacity invariant
// with an atomic compare-and-increment scoped to a single slot.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/arjun1665/SmartFleet/internal/fleet"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// TelemetryStore persists ingestion artifacts.
type TelemetryStore interface {
	InsertTelemetry(ctx context.Context, ev *fleet.TelemetryEvent) error
	InsertFeatures(ctx context.Context, row *fleet.FeatureRow) error
	InsertAlert(ctx context.Context, alert *fleet.RiskAlert) error
}

// CustomerStore reads and seeds customer records.
type CustomerStore interface {
	GetCustomer(ctx context.Context, id uuid.UUID) (*fleet.Customer, error)
	GetPreferences(ctx context.Context, customerID uuid.UUID) (*fleet.CustomerPreference, error)
	InsertCustomer(ctx context.Context, c *fleet.Customer) error
	InsertPreferences(ctx context.Context, p *fleet.CustomerPreference) error
}

// SlotStore owns ServiceSlot records. TryReserve is the single mutation path
// for the reserved counter: it increments only while reserved < capacity and
// reports whether it won, so concurrent attempts can never overshoot.
type SlotStore interface {
	// ListAvailable returns active slots starting at or after now with free
	// capacity, ordered by (starts_at, id). Empty centerID means all centers.
	ListAvailable(ctx context.Context, now time.Time, centerID string) ([]fleet.ServiceSlot, error)
	TryReserve(ctx context.Context, slotID uuid.UUID) (bool, error)
	InsertSlot(ctx context.Context, s *fleet.ServiceSlot) error
	GetSlot(ctx context.Context, id uuid.UUID) (*fleet.ServiceSlot, error)
}

// BookingStore persists bookings created by the reservation manager.
type BookingStore interface {
	InsertBooking(ctx context.Context, b *fleet.Booking) error
	GetBooking(ctx context.Context, id uuid.UUID) (*fleet.Booking, error)
}

// AuditStore appends security gate decisions.
type AuditStore interface {
	InsertDecision(ctx context.Context, d *fleet.SecurityDecision) error
}

// RCAStore persists root-cause cases.
type RCAStore interface {
	InsertRCACase(ctx context.Context, c *fleet.RCACase) error
}

// FeedbackStore persists customer feedback.
type FeedbackStore interface {
	InsertFeedback(ctx context.Context, f *fleet.Feedback) error
}

// Store aggregates all persistence concerns of the service.
type Store interface {
	TelemetryStore
	CustomerStore
	SlotStore
	BookingStore
	AuditStore
	RCAStore
	FeedbackStore
	Close() error
}
