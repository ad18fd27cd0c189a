package security

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/arjun1665/SmartFleet/internal/store"
	"github.com/arjun1665/SmartFleet/pkg/structlog"
)

func newTestGate(t *testing.T) (*Gate, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	logger := structlog.New("test", structlog.LevelError, io.Discard)
	return NewGate(mem, nil, logger), mem
}

func TestCheckAllowsWellFormedRequest(t *testing.T) {
	gate, mem := newTestGate(t)
	d := gate.Check(context.Background(), CheckRequest{
		RequestID: "req-abc123",
		Telemetry: map[string]float64{"engine_temp_c": 95},
	})
	if !d.Allowed {
		t.Fatalf("expected allow, got denial: %s", d.Reason)
	}
	if n := len(mem.Decisions()); n != 1 {
		t.Fatalf("got %d audit rows, want 1", n)
	}
}

func TestCheckRequestIDRules(t *testing.T) {
	gate, _ := newTestGate(t)
	cases := []struct {
		name      string
		requestID string
		allowed   bool
	}{
		{"minimum length", "abc123", true},
		{"maximum length", strings.Repeat("a", 64), true},
		{"allowed punctuation", "req-1.2_3", true},
		{"too short", "abc12", false},
		{"too long", strings.Repeat("a", 65), false},
		{"empty", "", false},
		{"space", "req 123", false},
		{"injection characters", "req-123;drop", false},
		{"unicode", "req-123é", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := gate.Check(context.Background(), CheckRequest{RequestID: tc.requestID})
			if d.Allowed != tc.allowed {
				t.Errorf("request_id %q: allowed = %v, want %v", tc.requestID, d.Allowed, tc.allowed)
			}
			if !tc.allowed && d.Reason != ReasonInvalidRequestID {
				t.Errorf("reason = %q, want %q", d.Reason, ReasonInvalidRequestID)
			}
		})
	}
}

func TestCheckTelemetryBounds(t *testing.T) {
	gate, _ := newTestGate(t)

	d := gate.Check(context.Background(), CheckRequest{
		RequestID: "req-abc123",
		Telemetry: map[string]float64{"engine_temp_c": 200.1},
	})
	if d.Allowed {
		t.Fatal("engine_temp_c above 200 should be denied")
	}
	if d.Reason != ReasonTelemetryOutOfBound {
		t.Fatalf("reason = %q, want %q", d.Reason, ReasonTelemetryOutOfBound)
	}

	// exactly at the bound is still plausible telemetry
	d = gate.Check(context.Background(), CheckRequest{
		RequestID: "req-abc123",
		Telemetry: map[string]float64{"engine_temp_c": 200},
	})
	if !d.Allowed {
		t.Fatalf("engine_temp_c at 200 should pass, got: %s", d.Reason)
	}
}

func TestCheckIDValidationPrecedesBounds(t *testing.T) {
	gate, _ := newTestGate(t)
	d := gate.Check(context.Background(), CheckRequest{
		RequestID: "bad id",
		Telemetry: map[string]float64{"engine_temp_c": 400},
	})
	if d.Allowed {
		t.Fatal("expected denial")
	}
	if d.Reason != ReasonInvalidRequestID {
		t.Fatalf("reason = %q, want the request_id violation to win", d.Reason)
	}
}

func TestCheckAuditsEveryDecision(t *testing.T) {
	gate, mem := newTestGate(t)
	ctx := context.Background()

	gate.Check(ctx, CheckRequest{RequestID: "req-abc123"})
	gate.Check(ctx, CheckRequest{RequestID: "bad"})
	gate.Check(ctx, CheckRequest{
		RequestID: "req-abc123",
		Telemetry: map[string]float64{"engine_temp_c": 500},
	})

	rows := mem.Decisions()
	if len(rows) != 3 {
		t.Fatalf("got %d audit rows, want 3", len(rows))
	}
	allowed := 0
	for _, row := range rows {
		if row.Allowed {
			allowed++
		}
	}
	if allowed != 1 {
		t.Errorf("got %d allowed rows, want 1", allowed)
	}
}

func TestCheckRecordsCustomerID(t *testing.T) {
	gate, mem := newTestGate(t)
	ctx := context.Background()

	gate.Check(ctx, CheckRequest{
		RequestID:  "req-abc123",
		CustomerID: store.DemoCustomerID.String(),
		Action:     "orchestrate",
	})
	gate.Check(ctx, CheckRequest{RequestID: "req-abc124", CustomerID: "not-a-uuid"})

	rows := mem.Decisions()
	if len(rows) != 2 {
		t.Fatalf("got %d audit rows, want 2", len(rows))
	}
	if rows[0].CustomerID == nil || *rows[0].CustomerID != store.DemoCustomerID {
		t.Error("parsable customer id should be recorded")
	}
	if rows[1].CustomerID != nil {
		t.Error("unparsable customer id should be recorded as absent, not rejected")
	}
}
