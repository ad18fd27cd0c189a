// Package booking allocates service slots under the capacity invariant.
// Selection and increment are split so that the increment stays a single
// atomic conditional update in the store: the manager walks candidates in
// deterministic order and the first successful compare-and-increment wins.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/arjun1665/SmartFleet/internal/fleet"
	"github.com/arjun1665/SmartFleet/internal/store"
	"github.com/arjun1665/SmartFleet/pkg/structlog"
)

// ErrNoSlotAvailable means no active slot with free capacity qualified.
var ErrNoSlotAvailable = errors.New("no service slot available")

var reservationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{Namespace: "fleet", Subsystem: "booking", Name: "reservations_total", Help: "Reservation attempts by result."},
	[]string{"result"},
)

func init() {
	_ = prometheus.Register(reservationsTotal)
}

// Reservation is the outcome of a successful slot reservation.
type Reservation struct {
	BookingID uuid.UUID           `json:"booking_id"`
	SlotID    uuid.UUID           `json:"slot_id"`
	CenterID  string              `json:"center_id"`
	StartsAt  time.Time           `json:"starts_at"`
	EndsAt    time.Time           `json:"ends_at"`
	Status    fleet.BookingStatus `json:"status"`
}

// Manager selects and reserves slots.
type Manager struct {
	slots    store.SlotStore
	bookings store.BookingStore
	logger   *structlog.Logger
	now      func() time.Time
}

// NewManager constructs a reservation manager.
func NewManager(slots store.SlotStore, bookings store.BookingStore, logger *structlog.Logger) *Manager {
	return &Manager{slots: slots, bookings: bookings, logger: logger, now: time.Now}
}

// WithClock overrides the time source, for tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Reserve books one slot for the customer/alert pair. Preferred-center slots
// are tried first, then the earliest qualifying slot across all centers.
// Candidates whose capacity fills between listing and increment are skipped,
// not errors; only an empty field yields ErrNoSlotAvailable.
func (m *Manager) Reserve(ctx context.Context, customerID, alertID uuid.UUID, preferredCenter string) (*Reservation, error) {
	now := m.now().UTC()

	slot, err := m.claimFirst(ctx, now, preferredCenter)
	if err != nil {
		return nil, err
	}
	if slot == nil && preferredCenter != "" {
		slot, err = m.claimFirst(ctx, now, "")
		if err != nil {
			return nil, err
		}
	}
	if slot == nil {
		reservationsTotal.WithLabelValues("exhausted").Inc()
		return nil, ErrNoSlotAvailable
	}

	b := &fleet.Booking{
		ID:         uuid.New(),
		CustomerID: customerID,
		AlertID:    alertID,
		SlotID:     slot.ID,
		Status:     fleet.BookingReserved,
		CreatedAt:  now,
	}
	if err := m.bookings.InsertBooking(ctx, b); err != nil {
		reservationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("insert booking: %w", err)
	}

	reservationsTotal.WithLabelValues("reserved").Inc()
	m.logger.WithContext(ctx).Info("slot reserved", structlog.Fields{
		"booking_id": b.ID.String(),
		"slot_id":    slot.ID.String(),
		"center_id":  slot.CenterID,
		"starts_at":  slot.StartsAt.Format(time.RFC3339),
	})

	return &Reservation{
		BookingID: b.ID,
		SlotID:    slot.ID,
		CenterID:  slot.CenterID,
		StartsAt:  slot.StartsAt,
		EndsAt:    slot.EndsAt,
		Status:    b.Status,
	}, nil
}

// claimFirst lists qualifying slots for a center (or all centers when empty)
// and tries to win each in order. A nil slot with nil error means the list
// was exhausted without a win.
func (m *Manager) claimFirst(ctx context.Context, now time.Time, centerID string) (*fleet.ServiceSlot, error) {
	candidates, err := m.slots.ListAvailable(ctx, now, centerID)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	for i := range candidates {
		won, err := m.slots.TryReserve(ctx, candidates[i].ID)
		if err != nil {
			return nil, fmt.Errorf("reserve slot %s: %w", candidates[i].ID, err)
		}
		if won {
			return &candidates[i], nil
		}
	}
	return nil, nil
}
