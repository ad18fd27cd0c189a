// Package orchestrator runs the predictive maintenance pipeline: ingest a
// telemetry sample, build features, score risk, vet the request, reserve a
// service slot, notify the customer, record a root cause case and placeholder
// feedback. Runs are linear and non-idempotent; there is no rollback and no
// retry, and a re-run of the same sample produces a fresh set of records.
package orchestrator

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/arjun1665/SmartFleet/internal/booking"
	"github.com/arjun1665/SmartFleet/internal/features"
	"github.com/arjun1665/SmartFleet/internal/fleet"
	"github.com/arjun1665/SmartFleet/internal/prediction"
	"github.com/arjun1665/SmartFleet/internal/rca"
	"github.com/arjun1665/SmartFleet/internal/security"
	"github.com/arjun1665/SmartFleet/internal/store"
	"github.com/arjun1665/SmartFleet/internal/tasks"
	"github.com/arjun1665/SmartFleet/internal/voice"
	"github.com/arjun1665/SmartFleet/pkg/structlog"
)

// preferredCenter is tried first when reserving a slot; any center with free
// capacity is acceptable as a fallback.
const preferredCenter = "CENTER-001"

const placeholderFeedbackNote = "auto-generated placeholder"

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_orchestrations_total",
			Help: "Orchestration runs by outcome.",
		},
		[]string{"outcome"},
	)
	riskLevelTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_risk_level_total",
			Help: "Risk alerts produced, by level.",
		},
		[]string{"level"},
	)
)

func init() {
	_ = prometheus.Register(runsTotal)
	_ = prometheus.Register(riskLevelTotal)
}

// RunInput is one orchestration request.
type RunInput struct {
	CustomerID uuid.UUID
	Sample     fleet.TelemetrySample
}

// RunResult reports everything the pipeline produced.
type RunResult struct {
	TelemetryEventID   uuid.UUID            `json:"telemetry_event_id"`
	AlertID            uuid.UUID            `json:"alert_id"`
	RiskScore          float64              `json:"risk_score"`
	RiskLevel          fleet.RiskLevel      `json:"risk_level"`
	PredictedComponent fleet.Component      `json:"predicted_component"`
	Degraded           bool                 `json:"degraded,omitempty"`
	SecurityAllowed    bool                 `json:"security_allowed"`
	Booking            *booking.Reservation `json:"booking,omitempty"`
	RCA                *rca.Result          `json:"rca,omitempty"`
	VoiceScript        string               `json:"voice_script,omitempty"`
}

// PredictResult is the scoring-only subset returned by Predict.
type PredictResult struct {
	TelemetryEventID uuid.UUID             `json:"telemetry_event_id"`
	AlertID          uuid.UUID             `json:"alert_id"`
	Prediction       prediction.Prediction `json:"prediction"`
	FeatureVersion   string                `json:"feature_version"`
}

// Orchestrator wires the pipeline stages together.
type Orchestrator struct {
	store       store.Store
	predictor   *prediction.Predictor
	gate        *security.Gate
	booking     *booking.Manager
	rca         *rca.Analyzer
	dispatcher  tasks.Dispatcher
	logger      *structlog.Logger
	modelPath   string
	encoderPath string
	now         func() time.Time
}

// New assembles an orchestrator from its stage components.
func New(
	st store.Store,
	pred *prediction.Predictor,
	gate *security.Gate,
	bm *booking.Manager,
	analyzer *rca.Analyzer,
	dispatcher tasks.Dispatcher,
	logger *structlog.Logger,
	modelPath, encoderPath string,
) *Orchestrator {
	return &Orchestrator{
		store:       st,
		predictor:   pred,
		gate:        gate,
		booking:     bm,
		rca:         analyzer,
		dispatcher:  dispatcher,
		logger:      logger,
		modelPath:   modelPath,
		encoderPath: encoderPath,
		now:         time.Now,
	}
}

// WithClock overrides the clock for tests.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Run executes the full pipeline for one sample. Failures in persistence,
// scoring, the gate or the booking step abort the run; notification and
// feedback failures are logged and swallowed. The audit row written by the
// gate survives a denial.
func (o *Orchestrator) Run(ctx context.Context, in RunInput) (*RunResult, error) {
	log := o.logger.WithContext(ctx)

	if err := validateInput(in); err != nil {
		runsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}
	customer, err := o.loadCustomer(ctx, in.CustomerID)
	if err != nil {
		runsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	event, row, pred, alert, err := o.scoreSample(ctx, in)
	if err != nil {
		runsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	riskLevelTotal.WithLabelValues(string(pred.RiskLevel)).Inc()

	result := &RunResult{
		TelemetryEventID:   event.ID,
		AlertID:            alert.ID,
		RiskScore:          pred.RiskScore,
		RiskLevel:          pred.RiskLevel,
		PredictedComponent: pred.PredictedComponent,
		Degraded:           pred.Degraded,
	}

	decision := o.gate.Check(ctx, security.CheckRequest{
		RequestID:  newRequestID(),
		CustomerID: in.CustomerID.String(),
		Action:     "orchestrate",
		Telemetry:  row.Features,
	})
	result.SecurityAllowed = decision.Allowed
	if !decision.Allowed {
		log.Warn("run blocked by security gate", structlog.Fields{
			"customer_id": in.CustomerID.String(),
			"reason":      decision.Reason,
		})
		runsTotal.WithLabelValues("blocked").Inc()
		return result, &SecurityBlockedError{Reason: decision.Reason}
	}

	reservation, err := o.booking.Reserve(ctx, in.CustomerID, alert.ID, preferredCenter)
	if err != nil {
		if errors.Is(err, booking.ErrNoSlotAvailable) {
			runsTotal.WithLabelValues("no_slot").Inc()
		} else {
			runsTotal.WithLabelValues("error").Inc()
		}
		return result, err
	}
	result.Booking = reservation

	o.notify(ctx, customer, pred, reservation, result)
	o.enqueueRetrain(ctx, pred.RiskLevel)

	rcaResult, err := o.rca.Analyze(ctx, alert.ID, pred.PredictedComponent, row.Features)
	if err != nil {
		runsTotal.WithLabelValues("error").Inc()
		return result, &UpstreamError{Op: "rca analyze", Err: err}
	}
	result.RCA = rcaResult

	o.recordPlaceholderFeedback(ctx, reservation.BookingID)

	runsTotal.WithLabelValues("ok").Inc()
	log.Info("orchestration complete", structlog.Fields{
		"customer_id": in.CustomerID.String(),
		"alert_id":    alert.ID.String(),
		"risk_level":  string(pred.RiskLevel),
		"component":   string(pred.PredictedComponent),
		"booking_id":  reservation.BookingID.String(),
	})
	return result, nil
}

// Predict scores a sample without booking, notification or analysis. The
// telemetry, feature and alert records are still persisted so the scoring
// history stays complete.
func (o *Orchestrator) Predict(ctx context.Context, in RunInput) (*PredictResult, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if _, err := o.loadCustomer(ctx, in.CustomerID); err != nil {
		return nil, err
	}
	event, _, pred, alert, err := o.scoreSample(ctx, in)
	if err != nil {
		return nil, err
	}
	riskLevelTotal.WithLabelValues(string(pred.RiskLevel)).Inc()
	return &PredictResult{
		TelemetryEventID: event.ID,
		AlertID:          alert.ID,
		Prediction:       pred,
		FeatureVersion:   features.Version,
	}, nil
}

func (o *Orchestrator) scoreSample(ctx context.Context, in RunInput) (*fleet.TelemetryEvent, *fleet.FeatureRow, prediction.Prediction, *fleet.RiskAlert, error) {
	var zero prediction.Prediction

	event, err := o.insertEvent(ctx, in)
	if err != nil {
		return nil, nil, zero, nil, err
	}

	fv := features.Build(in.Sample)
	row := &fleet.FeatureRow{
		ID:               uuid.New(),
		TelemetryEventID: event.ID,
		Version:          fv.Version,
		Features:         fv.Values,
		CreatedAt:        o.now().UTC(),
	}
	if err := o.store.InsertFeatures(ctx, row); err != nil {
		return nil, nil, zero, nil, &UpstreamError{Op: "insert features", Err: err}
	}

	pred := o.predictor.Predict(fv)
	alert := &fleet.RiskAlert{
		ID:                 uuid.New(),
		TelemetryEventID:   event.ID,
		RiskScore:          pred.RiskScore,
		RiskLevel:          pred.RiskLevel,
		PredictedComponent: pred.PredictedComponent,
		CreatedAt:          o.now().UTC(),
	}
	if err := o.store.InsertAlert(ctx, alert); err != nil {
		return nil, nil, zero, nil, &UpstreamError{Op: "insert alert", Err: err}
	}
	return event, row, pred, alert, nil
}

func (o *Orchestrator) insertEvent(ctx context.Context, in RunInput) (*fleet.TelemetryEvent, error) {
	sample := in.Sample
	if sample.Timestamp.IsZero() {
		sample.Timestamp = o.now().UTC()
	}
	event := &fleet.TelemetryEvent{
		ID:         uuid.New(),
		CustomerID: in.CustomerID,
		VehicleID:  sample.VehicleID,
		Timestamp:  sample.Timestamp,
		Payload:    sample,
		CreatedAt:  o.now().UTC(),
	}
	if err := o.store.InsertTelemetry(ctx, event); err != nil {
		return nil, &UpstreamError{Op: "insert telemetry", Err: err}
	}
	return event, nil
}

func (o *Orchestrator) loadCustomer(ctx context.Context, id uuid.UUID) (*fleet.Customer, error) {
	customer, err := o.store.GetCustomer(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &ValidationError{Field: "customer_id", Msg: "unknown customer"}
		}
		return nil, &UpstreamError{Op: "load customer", Err: err}
	}
	return customer, nil
}

// notify renders the call script and hands it to the dispatcher. A dispatch
// failure never changes the run outcome.
func (o *Orchestrator) notify(ctx context.Context, customer *fleet.Customer, pred prediction.Prediction, res *booking.Reservation, result *RunResult) {
	log := o.logger.WithContext(ctx)

	prefs := o.preferencesOrDefault(ctx, customer.ID)
	script := voice.RenderCallScript(voice.CallFacts{
		RiskLevel:          pred.RiskLevel,
		PredictedComponent: pred.PredictedComponent,
		BookingCenterID:    res.CenterID,
		BookingStartsAt:    res.StartsAt,
		Language:           prefs.Language,
		Channel:            prefs.Channel,
	})
	result.VoiceScript = script

	destination := customer.Phone
	if destination == "" {
		destination = customer.Email
	}
	if destination == "" {
		log.Warn("customer has no contact destination, notification skipped", structlog.Fields{
			"customer_id": customer.ID.String(),
		})
		return
	}

	if err := o.dispatcher.SendNotification(ctx, prefs.Channel, destination, script); err != nil {
		var de *tasks.DispatchError
		if errors.As(err, &de) {
			log.Warn("notification dispatch failed", structlog.Fields{
				"customer_id": customer.ID.String(),
				"error":       err.Error(),
			})
			return
		}
		log.Error("notification dispatch failed unexpectedly", structlog.Fields{
			"customer_id": customer.ID.String(),
			"error":       err.Error(),
		})
	}
}

// enqueueRetrain asks for a model refresh on elevated risk. Fire and forget.
func (o *Orchestrator) enqueueRetrain(ctx context.Context, level fleet.RiskLevel) {
	if level != fleet.RiskHigh && level != fleet.RiskCritical {
		return
	}
	if err := o.dispatcher.RetrainModel(ctx, o.modelPath, o.encoderPath); err != nil {
		o.logger.WithContext(ctx).Warn("retrain enqueue failed", structlog.Fields{
			"error": err.Error(),
		})
	}
}

func (o *Orchestrator) recordPlaceholderFeedback(ctx context.Context, bookingID uuid.UUID) {
	fb := &fleet.Feedback{
		ID:              uuid.New(),
		BookingID:       bookingID,
		CSAT:            5,
		TechnicianNotes: placeholderFeedbackNote,
		CreatedAt:       o.now().UTC(),
	}
	if err := o.store.InsertFeedback(ctx, fb); err != nil {
		o.logger.WithContext(ctx).Warn("placeholder feedback insert failed", structlog.Fields{
			"booking_id": bookingID.String(),
			"error":      err.Error(),
		})
	}
}

func validateInput(in RunInput) error {
	if in.CustomerID == uuid.Nil {
		return &ValidationError{Field: "customer_id", Msg: "required"}
	}
	if in.Sample.VehicleID == "" {
		return &ValidationError{Field: "vehicle_id", Msg: "required"}
	}
	return nil
}

func newRequestID() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "req-" + uuid.New().String()[:12]
	}
	return "req-" + hex.EncodeToString(buf)
}

func (o *Orchestrator) preferencesOrDefault(ctx context.Context, customerID uuid.UUID) *fleet.CustomerPreference {
	prefs, err := o.store.GetPreferences(ctx, customerID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			o.logger.WithContext(ctx).Warn("preference lookup failed", structlog.Fields{
				"customer_id": customerID.String(),
				"error":       err.Error(),
			})
		}
		return &fleet.CustomerPreference{CustomerID: customerID, Language: "en", Channel: "sms"}
	}
	return prefs
}
