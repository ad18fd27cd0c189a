package voice

import (
	"strings"
	"testing"
	"time"

	"github.com/arjun1665/SmartFleet/internal/fleet"
)

func TestRenderCallScript(t *testing.T) {
	got := RenderCallScript(CallFacts{
		RiskLevel:          fleet.RiskHigh,
		PredictedComponent: fleet.ComponentCooling,
		BookingCenterID:    "CENTER-001",
		BookingStartsAt:    time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	})
	want := "Hello! This is your service assistant. We detected a HIGH risk related to cooling. " +
		"We reserved a service slot at CENTER-001 starting 2026-03-14T10:00:00Z. " +
		"Reply YES to confirm or NO to reschedule."
	if got != want {
		t.Errorf("script:\n got %q\nwant %q", got, want)
	}
}

func TestRenderCallScriptUppercasesLevel(t *testing.T) {
	for _, tc := range []struct {
		level fleet.RiskLevel
		want  string
	}{
		{fleet.RiskLow, "a LOW risk"},
		{fleet.RiskMedium, "a MEDIUM risk"},
		{fleet.RiskHigh, "a HIGH risk"},
		{fleet.RiskCritical, "a CRITICAL risk"},
	} {
		got := RenderCallScript(CallFacts{
			RiskLevel:          tc.level,
			PredictedComponent: fleet.ComponentGeneral,
			BookingCenterID:    "CENTER-001",
			BookingStartsAt:    time.Unix(0, 0).UTC(),
		})
		if !strings.Contains(got, tc.want) {
			t.Errorf("script for %s lacks %q: %q", tc.level, tc.want, got)
		}
	}
}
