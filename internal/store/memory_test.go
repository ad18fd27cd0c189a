package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/arjun1665/SmartFleet/internal/fleet"
)

var slotClock = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func newSlot(centerID string, offset time.Duration, capacity int) *fleet.ServiceSlot {
	return &fleet.ServiceSlot{
		ID:       uuid.New(),
		CenterID: centerID,
		StartsAt: slotClock.Add(offset),
		EndsAt:   slotClock.Add(offset + time.Hour),
		Capacity: capacity,
		Active:   true,
	}
}

func TestTryReserveStopsAtCapacity(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	s := newSlot("CENTER-001", time.Hour, 3)
	if err := m.InsertSlot(ctx, s); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		won, err := m.TryReserve(ctx, s.ID)
		if err != nil || !won {
			t.Fatalf("attempt %d: won=%v err=%v", i, won, err)
		}
	}
	won, err := m.TryReserve(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if won {
		t.Fatal("reservation beyond capacity must lose")
	}

	got, err := m.GetSlot(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Reserved != 3 {
		t.Errorf("reserved = %d, want 3", got.Reserved)
	}
}

func TestTryReserveConcurrent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	s := newSlot("CENTER-001", time.Hour, 7)
	if err := m.InsertSlot(ctx, s); err != nil {
		t.Fatal(err)
	}

	const attempts = 100
	var wg sync.WaitGroup
	wins := make(chan bool, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := m.TryReserve(ctx, s.ID)
			if err != nil {
				t.Error(err)
				return
			}
			wins <- won
		}()
	}
	wg.Wait()
	close(wins)

	total := 0
	for won := range wins {
		if won {
			total++
		}
	}
	if total != 7 {
		t.Errorf("wins = %d, want exactly the capacity 7", total)
	}
	got, _ := m.GetSlot(ctx, s.ID)
	if got.Reserved != 7 {
		t.Errorf("reserved = %d, want 7", got.Reserved)
	}
}

func TestTryReserveUnknownSlot(t *testing.T) {
	m := NewMemory()
	_, err := m.TryReserve(context.Background(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListAvailableOrderingAndFilters(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	late := newSlot("CENTER-001", 3*time.Hour, 5)
	early := newSlot("CENTER-001", 1*time.Hour, 5)
	other := newSlot("CENTER-002", 2*time.Hour, 5)
	past := newSlot("CENTER-001", -time.Hour, 5)
	inactive := newSlot("CENTER-001", 4*time.Hour, 5)
	inactive.Active = false
	full := newSlot("CENTER-001", 5*time.Hour, 1)
	full.Reserved = 1

	for _, s := range []*fleet.ServiceSlot{late, early, other, past, inactive, full} {
		if err := m.InsertSlot(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	all, err := m.ListAvailable(ctx, slotClock, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d slots, want 3 (past, inactive and full excluded)", len(all))
	}
	if all[0].ID != early.ID || all[1].ID != other.ID || all[2].ID != late.ID {
		t.Error("slots should be ordered by start time")
	}

	centered, err := m.ListAvailable(ctx, slotClock, "CENTER-001")
	if err != nil {
		t.Fatal(err)
	}
	if len(centered) != 2 {
		t.Fatalf("got %d CENTER-001 slots, want 2", len(centered))
	}
	for _, s := range centered {
		if s.CenterID != "CENTER-001" {
			t.Errorf("center filter leaked slot from %s", s.CenterID)
		}
	}
}

func TestListAvailableTieBreaksByID(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	a := newSlot("CENTER-001", time.Hour, 5)
	b := newSlot("CENTER-002", time.Hour, 5)
	for _, s := range []*fleet.ServiceSlot{a, b} {
		if err := m.InsertSlot(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	for i := 0; i < 5; i++ {
		out, err := m.ListAvailable(ctx, slotClock, "")
		if err != nil {
			t.Fatal(err)
		}
		if len(out) != 2 {
			t.Fatalf("got %d slots, want 2", len(out))
		}
		if out[0].ID.String() > out[1].ID.String() {
			t.Fatal("equal start times must tie-break by id")
		}
	}
}

func TestInsertSlotIgnoresDuplicateWindow(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	s := newSlot("CENTER-001", time.Hour, 5)
	if err := m.InsertSlot(ctx, s); err != nil {
		t.Fatal(err)
	}
	dup := newSlot("CENTER-001", time.Hour, 9)
	if err := m.InsertSlot(ctx, dup); err != nil {
		t.Fatal(err)
	}

	out, err := m.ListAvailable(ctx, slotClock, "CENTER-001")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d slots, want 1; duplicate window must be ignored", len(out))
	}
	if out[0].Capacity != 5 {
		t.Error("the first insert wins")
	}
}

func TestSeedDemoIsIdempotent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := SeedDemo(ctx, m, slotClock); err != nil {
		t.Fatal(err)
	}
	if err := SeedDemo(ctx, m, slotClock); err != nil {
		t.Fatal(err)
	}

	if m.CountCustomers() != 1 {
		t.Errorf("customers = %d, want 1", m.CountCustomers())
	}
	slots, err := m.ListAvailable(ctx, slotClock, "CENTER-001")
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 9 {
		t.Errorf("seeded slots = %d, want 9", len(slots))
	}
	c, err := m.GetCustomer(ctx, DemoCustomerID)
	if err != nil {
		t.Fatal(err)
	}
	if c.Name == "" {
		t.Error("seeded customer should have a name")
	}
}

func TestGetCustomerNotFound(t *testing.T) {
	m := NewMemory()
	_, err := m.GetCustomer(context.Background(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
