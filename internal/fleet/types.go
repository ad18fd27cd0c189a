// Package fleet holds the data contracts shared across the predictive
// maintenance pipeline. Records are written once by their owning component
// and never mutated afterwards; the single exception is ServiceSlot.reserved,
// which is owned exclusively by the booking store.
package fleet

import (
	"time"

	"github.com/google/uuid"
)

// RiskLevel is the four-band discretization of a continuous risk probability.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Component identifies the vehicle subsystem predicted to fail.
type Component string

const (
	ComponentCooling     Component = "cooling"
	ComponentBearing     Component = "bearing"
	ComponentLubrication Component = "lubrication"
	ComponentElectrical  Component = "electrical"
	ComponentGeneral     Component = "general"
)

// BookingStatus tracks the lifecycle of a service booking.
type BookingStatus string

const (
	BookingReserved  BookingStatus = "reserved"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// TelemetrySample is one raw reading from a vehicle. Immutable once ingested.
type TelemetrySample struct {
	VehicleID      string    `json:"vehicle_id"`
	Timestamp      time.Time `json:"timestamp"`
	SpeedKPH       float64   `json:"speed_kph"`
	EngineTempC    float64   `json:"engine_temp_c"`
	VibrationRMS   float64   `json:"vibration_rms"`
	OilPressureKPA float64   `json:"oil_pressure_kpa"`
	BatteryV       float64   `json:"battery_v"`
	OdometerKM     float64   `json:"odometer_km"`
	AmbientTempC   float64   `json:"ambient_temp_c"`
}

// TelemetryEvent is a persisted TelemetrySample tied to a customer.
type TelemetryEvent struct {
	ID         uuid.UUID       `json:"id"`
	CustomerID uuid.UUID       `json:"customer_id"`
	VehicleID  string          `json:"vehicle_id"`
	Timestamp  time.Time       `json:"timestamp"`
	Payload    TelemetrySample `json:"payload"`
	CreatedAt  time.Time       `json:"created_at"`
}

// FeatureVector is a versioned named feature set derived deterministically
// from one TelemetrySample. The name set and computation must stay identical
// between prediction and training or predictions silently degrade.
type FeatureVector struct {
	Version string             `json:"version"`
	Values  map[string]float64 `json:"values"`
}

// FeatureRow is a persisted FeatureVector linked to its telemetry event.
type FeatureRow struct {
	ID               uuid.UUID          `json:"id"`
	TelemetryEventID uuid.UUID          `json:"telemetry_event_id"`
	Version          string             `json:"version"`
	Features         map[string]float64 `json:"features"`
	CreatedAt        time.Time          `json:"created_at"`
}

// RiskAlert is the scored outcome of one orchestration run. Created once,
// never mutated.
type RiskAlert struct {
	ID                 uuid.UUID `json:"id"`
	TelemetryEventID   uuid.UUID `json:"telemetry_event_id"`
	RiskScore          float64   `json:"risk_score"`
	RiskLevel          RiskLevel `json:"risk_level"`
	PredictedComponent Component `json:"predicted_component"`
	CreatedAt          time.Time `json:"created_at"`
}

// ServiceSlot is a bookable time window at a service center.
// Invariant: 0 <= Reserved <= Capacity at all times, including under
// concurrent reservation attempts.
type ServiceSlot struct {
	ID       uuid.UUID `json:"id"`
	CenterID string    `json:"center_id"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	Capacity int       `json:"capacity"`
	Reserved int       `json:"reserved"`
	Active   bool      `json:"is_active"`
}

// Booking links a customer, a risk alert and a service slot. One slot may
// back multiple bookings up to its capacity.
type Booking struct {
	ID         uuid.UUID     `json:"id"`
	CustomerID uuid.UUID     `json:"customer_id"`
	AlertID    uuid.UUID     `json:"alert_id"`
	SlotID     uuid.UUID     `json:"slot_id"`
	Status     BookingStatus `json:"status"`
	Notes      string        `json:"notes,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// SecurityDecision is an append-only audit record of one gate check.
type SecurityDecision struct {
	ID         uuid.UUID      `json:"id"`
	CustomerID *uuid.UUID     `json:"customer_id,omitempty"`
	RequestID  string         `json:"request_id"`
	Action     string         `json:"action"`
	Allowed    bool           `json:"allowed"`
	Reason     string         `json:"reason,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// RCACase links a root-cause narrative to one alert.
type RCACase struct {
	ID           uuid.UUID      `json:"id"`
	AlertID      uuid.UUID      `json:"alert_id"`
	Summary      string         `json:"summary"`
	SimilarCases map[string]any `json:"similar_cases"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Feedback closes the loop on a booking with a satisfaction score (1-5).
type Feedback struct {
	ID              uuid.UUID `json:"id"`
	BookingID       uuid.UUID `json:"booking_id"`
	CSAT            int       `json:"csat"`
	TechnicianNotes string    `json:"technician_notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Customer is the owner of vehicles and bookings.
type Customer struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email,omitempty"`
	Phone string    `json:"phone,omitempty"`
}

// CustomerPreference stores notification preferences for one customer.
type CustomerPreference struct {
	ID         uuid.UUID `json:"id"`
	CustomerID uuid.UUID `json:"customer_id"`
	Language   string    `json:"language"`
	Channel    string    `json:"channel"`
	TimeWindow string    `json:"time_window"`
}
