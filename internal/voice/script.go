// Package voice renders customer-facing notification scripts. Rendering is
// pure: no persistence, no I/O.
package voice

import (
	"fmt"
	"strings"
	"time"

	"github.com/arjun1665/SmartFleet/internal/fleet"
)

// CallFacts is the explicit input contract for one rendered script.
type CallFacts struct {
	RiskLevel          fleet.RiskLevel
	PredictedComponent fleet.Component
	BookingCenterID    string
	BookingStartsAt    time.Time
	Language           string
	Channel            string
}

// RenderCallScript produces the confirmation script for a booked slot.
func RenderCallScript(f CallFacts) string {
	return fmt.Sprintf(
		"Hello! This is your service assistant. We detected a %s risk related to %s. "+
			"We reserved a service slot at %s starting %s. Reply YES to confirm or NO to reschedule.",
		strings.ToUpper(string(f.RiskLevel)),
		f.PredictedComponent,
		f.BookingCenterID,
		f.BookingStartsAt.Format(time.RFC3339),
	)
}
