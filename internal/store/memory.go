package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arjun1665/SmartFleet/internal/fleet"
)

// Memory is an in-process Store for development and tests. Reservation keeps
// the same semantics as the Postgres backend: a per-slot lock scoped to the
// compare-and-increment, so attempts on different slots do not contend.
type Memory struct {
	mu          sync.RWMutex
	customers   map[uuid.UUID]fleet.Customer
	preferences map[uuid.UUID]fleet.CustomerPreference // keyed by customer id
	telemetry   map[uuid.UUID]fleet.TelemetryEvent
	features    map[uuid.UUID]fleet.FeatureRow
	alerts      map[uuid.UUID]fleet.RiskAlert
	slots       map[uuid.UUID]*slotEntry
	bookings    map[uuid.UUID]fleet.Booking
	decisions   []fleet.SecurityDecision
	rcaCases    map[uuid.UUID]fleet.RCACase
	feedback    map[uuid.UUID]fleet.Feedback
}

type slotEntry struct {
	mu   sync.Mutex
	slot fleet.ServiceSlot
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		customers:   make(map[uuid.UUID]fleet.Customer),
		preferences: make(map[uuid.UUID]fleet.CustomerPreference),
		telemetry:   make(map[uuid.UUID]fleet.TelemetryEvent),
		features:    make(map[uuid.UUID]fleet.FeatureRow),
		alerts:      make(map[uuid.UUID]fleet.RiskAlert),
		slots:       make(map[uuid.UUID]*slotEntry),
		bookings:    make(map[uuid.UUID]fleet.Booking),
		rcaCases:    make(map[uuid.UUID]fleet.RCACase),
		feedback:    make(map[uuid.UUID]fleet.Feedback),
	}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) InsertTelemetry(_ context.Context, ev *fleet.TelemetryEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.telemetry[ev.ID] = *ev
	return nil
}

func (m *Memory) InsertFeatures(_ context.Context, row *fleet.FeatureRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.features[row.ID] = *row
	return nil
}

func (m *Memory) InsertAlert(_ context.Context, alert *fleet.RiskAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts[alert.ID] = *alert
	return nil
}

func (m *Memory) GetCustomer(_ context.Context, id uuid.UUID) (*fleet.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.customers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *Memory) GetPreferences(_ context.Context, customerID uuid.UUID) (*fleet.CustomerPreference, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.preferences[customerID]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *Memory) InsertCustomer(_ context.Context, c *fleet.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.customers[c.ID]; !exists {
		m.customers[c.ID] = *c
	}
	return nil
}

func (m *Memory) InsertPreferences(_ context.Context, p *fleet.CustomerPreference) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.preferences[p.CustomerID]; !exists {
		m.preferences[p.CustomerID] = *p
	}
	return nil
}

func (m *Memory) ListAvailable(_ context.Context, now time.Time, centerID string) ([]fleet.ServiceSlot, error) {
	m.mu.RLock()
	entries := make([]*slotEntry, 0, len(m.slots))
	for _, e := range m.slots {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	var out []fleet.ServiceSlot
	for _, e := range entries {
		e.mu.Lock()
		s := e.slot
		e.mu.Unlock()
		if !s.Active || s.StartsAt.Before(now) || s.Reserved >= s.Capacity {
			continue
		}
		if centerID != "" && s.CenterID != centerID {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].StartsAt.Before(out[j].StartsAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if len(out) > candidateLimit {
		out = out[:candidateLimit]
	}
	return out, nil
}

func (m *Memory) TryReserve(_ context.Context, slotID uuid.UUID) (bool, error) {
	m.mu.RLock()
	e, ok := m.slots[slotID]
	m.mu.RUnlock()
	if !ok {
		return false, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.slot.Active || e.slot.Reserved >= e.slot.Capacity {
		return false, nil
	}
	e.slot.Reserved++
	return true, nil
}

func (m *Memory) InsertSlot(_ context.Context, s *fleet.ServiceSlot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// same uniqueness rule as the SQL schema
	for _, e := range m.slots {
		if e.slot.CenterID == s.CenterID && e.slot.StartsAt.Equal(s.StartsAt) && e.slot.EndsAt.Equal(s.EndsAt) {
			return nil
		}
	}
	m.slots[s.ID] = &slotEntry{slot: *s}
	return nil
}

func (m *Memory) GetSlot(_ context.Context, id uuid.UUID) (*fleet.ServiceSlot, error) {
	m.mu.RLock()
	e, ok := m.slots[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.slot
	return &s, nil
}

func (m *Memory) InsertBooking(_ context.Context, b *fleet.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[b.ID] = *b
	return nil
}

func (m *Memory) GetBooking(_ context.Context, id uuid.UUID) (*fleet.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (m *Memory) InsertDecision(_ context.Context, d *fleet.SecurityDecision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions = append(m.decisions, *d)
	return nil
}

func (m *Memory) InsertRCACase(_ context.Context, c *fleet.RCACase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rcaCases[c.ID] = *c
	return nil
}

func (m *Memory) InsertFeedback(_ context.Context, f *fleet.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedback[f.ID] = *f
	return nil
}

// Test and seed helpers. They read snapshots, never live references.

func (m *Memory) Decisions() []fleet.SecurityDecision {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]fleet.SecurityDecision(nil), m.decisions...)
}

func (m *Memory) CountBookings() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bookings)
}

func (m *Memory) CountTelemetry() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.telemetry)
}

func (m *Memory) CountAlerts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.alerts)
}

func (m *Memory) CountFeedback() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.feedback)
}

func (m *Memory) CountCustomers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.customers)
}
