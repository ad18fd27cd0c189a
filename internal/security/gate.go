// Package security implements the request vetting gate. Every check writes
// an append-only SecurityDecision audit row whether the request is allowed
// or denied.
package security

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/arjun1665/SmartFleet/internal/fleet"
	"github.com/arjun1665/SmartFleet/internal/store"
	"github.com/arjun1665/SmartFleet/pkg/ledger"
	"github.com/arjun1665/SmartFleet/pkg/structlog"
)

// requestIDPattern is the full-match rule for inbound request identifiers.
var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9\-_.]{6,64}$`)

// maxEngineTempC is the hard bound on a plausible engine reading; anything
// above it is treated as tampered or corrupt telemetry.
const maxEngineTempC = 200.0

// Denial reasons surfaced to callers.
const (
	ReasonInvalidRequestID    = "invalid request_id"
	ReasonTelemetryOutOfBound = "telemetry out of bounds"
)

// CheckRequest is the gate's input contract.
type CheckRequest struct {
	RequestID  string
	CustomerID string
	Action     string
	Telemetry  map[string]float64
}

// Decision is the gate's verdict. Reason is set only on denial.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Gate validates requests and records the outcome.
type Gate struct {
	audits store.AuditStore
	ledger *ledger.Ledger
	logger *structlog.Logger
	now    func() time.Time
}

// NewGate constructs a gate. The ledger may be nil, in which case only the
// database audit trail is written.
func NewGate(audits store.AuditStore, lg *ledger.Ledger, logger *structlog.Logger) *Gate {
	return &Gate{audits: audits, ledger: lg, logger: logger, now: time.Now}
}

// Check validates the request identifier, then the telemetry bounds; the
// first violation found decides the verdict. An audit record is written for
// every check, and a failure to record never overturns the verdict itself.
func (g *Gate) Check(ctx context.Context, req CheckRequest) Decision {
	decision := Decision{Allowed: true}

	if !requestIDPattern.MatchString(req.RequestID) {
		decision = Decision{Allowed: false, Reason: ReasonInvalidRequestID}
	} else if temp, ok := req.Telemetry["engine_temp_c"]; ok && temp > maxEngineTempC {
		decision = Decision{Allowed: false, Reason: ReasonTelemetryOutOfBound}
	}

	g.record(ctx, req, decision)
	return decision
}

func (g *Gate) record(ctx context.Context, req CheckRequest, decision Decision) {
	// best-effort: an unparsable customer id is recorded as absent
	var customerID *uuid.UUID
	if req.CustomerID != "" {
		if id, err := uuid.Parse(req.CustomerID); err == nil {
			customerID = &id
		}
	}

	action := req.Action
	if action == "" {
		action = "orchestrate"
	}
	keys := make([]string, 0, len(req.Telemetry))
	for k := range req.Telemetry {
		keys = append(keys, k)
	}
	row := &fleet.SecurityDecision{
		ID:         uuid.New(),
		CustomerID: customerID,
		RequestID:  req.RequestID,
		Action:     action,
		Allowed:    decision.Allowed,
		Reason:     decision.Reason,
		Metadata:   map[string]any{"telemetry_keys": keys},
		CreatedAt:  g.now().UTC(),
	}

	if err := g.audits.InsertDecision(ctx, row); err != nil {
		g.logger.WithContext(ctx).Error("security audit insert failed", structlog.Fields{
			"request_id": req.RequestID,
			"error":      err.Error(),
		})
	}
	if g.ledger != nil {
		if err := g.ledger.Append("security.decision", row); err != nil {
			g.logger.WithContext(ctx).Warn("security ledger append failed", structlog.Fields{
				"request_id": req.RequestID,
				"error":      err.Error(),
			})
		}
	}
}
