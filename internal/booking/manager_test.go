package booking

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/arjun1665/SmartFleet/internal/fleet"
	"github.com/arjun1665/SmartFleet/internal/store"
	"github.com/arjun1665/SmartFleet/pkg/structlog"
)

var testClock = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T) (*Manager, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	logger := structlog.New("test", structlog.LevelError, io.Discard)
	m := NewManager(mem, mem, logger).WithClock(func() time.Time { return testClock })
	return m, mem
}

func addSlot(t *testing.T, mem *store.Memory, centerID string, startOffset time.Duration, capacity int) uuid.UUID {
	t.Helper()
	s := &fleet.ServiceSlot{
		ID:       uuid.New(),
		CenterID: centerID,
		StartsAt: testClock.Add(startOffset),
		EndsAt:   testClock.Add(startOffset + time.Hour),
		Capacity: capacity,
		Active:   true,
	}
	if err := mem.InsertSlot(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	return s.ID
}

func TestReserveEarliestSlot(t *testing.T) {
	m, mem := newTestManager(t)
	later := addSlot(t, mem, "CENTER-001", 3*time.Hour, 5)
	earlier := addSlot(t, mem, "CENTER-001", 1*time.Hour, 5)
	_ = later

	res, err := m.Reserve(context.Background(), uuid.New(), uuid.New(), "CENTER-001")
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if res.SlotID != earlier {
		t.Errorf("reserved %s, want the earliest slot %s", res.SlotID, earlier)
	}
	if res.Status != fleet.BookingReserved {
		t.Errorf("status = %v, want reserved", res.Status)
	}
	if mem.CountBookings() != 1 {
		t.Errorf("bookings = %d, want 1", mem.CountBookings())
	}
}

func TestReservePrefersCenter(t *testing.T) {
	m, mem := newTestManager(t)
	addSlot(t, mem, "CENTER-002", 1*time.Hour, 5)
	preferred := addSlot(t, mem, "CENTER-001", 2*time.Hour, 5)

	res, err := m.Reserve(context.Background(), uuid.New(), uuid.New(), "CENTER-001")
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if res.SlotID != preferred {
		t.Errorf("reserved %s, want preferred-center slot %s even when another center is earlier", res.SlotID, preferred)
	}
}

func TestReserveFallsBackAcrossCenters(t *testing.T) {
	m, mem := newTestManager(t)
	other := addSlot(t, mem, "CENTER-002", 1*time.Hour, 1)

	res, err := m.Reserve(context.Background(), uuid.New(), uuid.New(), "CENTER-001")
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if res.SlotID != other {
		t.Errorf("reserved %s, want fallback slot %s", res.SlotID, other)
	}
}

func TestReserveNoSlots(t *testing.T) {
	m, mem := newTestManager(t)
	_, err := m.Reserve(context.Background(), uuid.New(), uuid.New(), "CENTER-001")
	if !errors.Is(err, ErrNoSlotAvailable) {
		t.Fatalf("err = %v, want ErrNoSlotAvailable", err)
	}
	if mem.CountBookings() != 0 {
		t.Errorf("no booking should be written on exhaustion")
	}
}

func TestReserveSkipsFilledSlots(t *testing.T) {
	m, mem := newTestManager(t)
	full := addSlot(t, mem, "CENTER-001", 1*time.Hour, 1)
	open := addSlot(t, mem, "CENTER-001", 2*time.Hour, 1)

	if won, err := mem.TryReserve(context.Background(), full); err != nil || !won {
		t.Fatalf("setup reserve failed: won=%v err=%v", won, err)
	}

	res, err := m.Reserve(context.Background(), uuid.New(), uuid.New(), "CENTER-001")
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if res.SlotID != open {
		t.Errorf("reserved %s, want the slot with remaining capacity %s", res.SlotID, open)
	}
}

// Forty concurrent reservations against a capacity of five must produce
// exactly five bookings; the rest get ErrNoSlotAvailable.
func TestReserveNeverOvershootsCapacity(t *testing.T) {
	m, mem := newTestManager(t)
	slotID := addSlot(t, mem, "CENTER-001", 1*time.Hour, 5)

	const attempts = 40
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		exhausted int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Reserve(context.Background(), uuid.New(), uuid.New(), "CENTER-001")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrNoSlotAvailable):
				exhausted++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 5 {
		t.Errorf("wins = %d, want exactly 5", wins)
	}
	if exhausted != attempts-5 {
		t.Errorf("exhausted = %d, want %d", exhausted, attempts-5)
	}
	slot, err := mem.GetSlot(context.Background(), slotID)
	if err != nil {
		t.Fatal(err)
	}
	if slot.Reserved != slot.Capacity {
		t.Errorf("reserved = %d, capacity = %d; counter must match wins", slot.Reserved, slot.Capacity)
	}
	if mem.CountBookings() != 5 {
		t.Errorf("bookings = %d, want 5", mem.CountBookings())
	}
}

func TestReserveIgnoresPastSlots(t *testing.T) {
	m, mem := newTestManager(t)
	addSlot(t, mem, "CENTER-001", -2*time.Hour, 5)

	_, err := m.Reserve(context.Background(), uuid.New(), uuid.New(), "CENTER-001")
	if !errors.Is(err, ErrNoSlotAvailable) {
		t.Fatalf("err = %v, want ErrNoSlotAvailable for past-only slots", err)
	}
}
