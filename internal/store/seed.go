package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arjun1665/SmartFleet/internal/fleet"
)

// DemoCustomerID is the well-known customer used for local demos.
var DemoCustomerID = uuid.MustParse("11111111-1111-1111-1111-111111111111")

// SeedDemo inserts a demo customer, preferences and a run of CENTER-001
// slots. Inserts are conflict-tolerant so repeated startups are harmless.
func SeedDemo(ctx context.Context, s Store, now time.Time) error {
	if err := s.InsertCustomer(ctx, &fleet.Customer{
		ID:    DemoCustomerID,
		Name:  "Demo Customer",
		Email: "demo@example.com",
		Phone: "+10000000000",
	}); err != nil {
		return fmt.Errorf("seed customer: %w", err)
	}
	if err := s.InsertPreferences(ctx, &fleet.CustomerPreference{
		ID:         uuid.New(),
		CustomerID: DemoCustomerID,
		Language:   "en",
		Channel:    "sms",
		TimeWindow: "9-18",
	}); err != nil {
		return fmt.Errorf("seed preferences: %w", err)
	}

	base := now.UTC().Truncate(time.Hour)
	for i := 1; i < 10; i++ {
		starts := base.Add(time.Duration(i) * time.Hour)
		if err := s.InsertSlot(ctx, &fleet.ServiceSlot{
			ID:       uuid.New(),
			CenterID: "CENTER-001",
			StartsAt: starts,
			EndsAt:   starts.Add(time.Hour),
			Capacity: 5,
			Reserved: 0,
			Active:   true,
		}); err != nil {
			return fmt.Errorf("seed slot %d: %w", i, err)
		}
	}
	return nil
}
