package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/arjun1665/SmartFleet/internal/fleet"
)

// Sensor defaults applied when a field is absent from the payload. Missing
// readings are filled with nominal values rather than rejected so a partial
// sensor set still produces a score.
const (
	defaultSpeedKPH       = 0.0
	defaultEngineTempC    = 90.0
	defaultVibrationRMS   = 0.2
	defaultOilPressureKPA = 250.0
	defaultBatteryV       = 12.5
	defaultOdometerKM     = 0.0
	defaultAmbientTempC   = 25.0
)

// TelemetryPayload is the wire form of one sample. Pointer fields distinguish
// "absent" from "zero".
type TelemetryPayload struct {
	VehicleID      string     `json:"vehicle_id"`
	Timestamp      *time.Time `json:"timestamp,omitempty"`
	SpeedKPH       *float64   `json:"speed_kph,omitempty"`
	EngineTempC    *float64   `json:"engine_temp_c,omitempty"`
	VibrationRMS   *float64   `json:"vibration_rms,omitempty"`
	OilPressureKPA *float64   `json:"oil_pressure_kpa,omitempty"`
	BatteryV       *float64   `json:"battery_v,omitempty"`
	OdometerKM     *float64   `json:"odometer_km,omitempty"`
	AmbientTempC   *float64   `json:"ambient_temp_c,omitempty"`
}

// Sample materializes the payload with defaults filled in.
func (p TelemetryPayload) Sample() fleet.TelemetrySample {
	s := fleet.TelemetrySample{
		VehicleID:      p.VehicleID,
		SpeedKPH:       orDefault(p.SpeedKPH, defaultSpeedKPH),
		EngineTempC:    orDefault(p.EngineTempC, defaultEngineTempC),
		VibrationRMS:   orDefault(p.VibrationRMS, defaultVibrationRMS),
		OilPressureKPA: orDefault(p.OilPressureKPA, defaultOilPressureKPA),
		BatteryV:       orDefault(p.BatteryV, defaultBatteryV),
		OdometerKM:     orDefault(p.OdometerKM, defaultOdometerKM),
		AmbientTempC:   orDefault(p.AmbientTempC, defaultAmbientTempC),
	}
	if p.Timestamp != nil {
		s.Timestamp = p.Timestamp.UTC()
	}
	return s
}

func orDefault(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}

type telemetryRequest struct {
	CustomerID uuid.UUID        `json:"customer_id"`
	Telemetry  TelemetryPayload `json:"telemetry"`
}

type orchestrateRequest struct {
	CustomerID uuid.UUID        `json:"customer_id"`
	Telemetry  TelemetryPayload `json:"telemetry"`
}

type bookingSelectRequest struct {
	CustomerID      uuid.UUID `json:"customer_id"`
	AlertID         uuid.UUID `json:"alert_id"`
	PreferredCenter string    `json:"preferred_center,omitempty"`
}

type securityCheckRequest struct {
	RequestID  string             `json:"request_id"`
	CustomerID string             `json:"customer_id,omitempty"`
	Action     string             `json:"action,omitempty"`
	Telemetry  map[string]float64 `json:"telemetry,omitempty"`
}

type rcaAnalyzeRequest struct {
	AlertID   uuid.UUID          `json:"alert_id"`
	Component fleet.Component    `json:"component"`
	Features  map[string]float64 `json:"features,omitempty"`
}

type feedbackRequest struct {
	BookingID       uuid.UUID `json:"booking_id"`
	CSAT            int       `json:"csat"`
	TechnicianNotes string    `json:"technician_notes,omitempty"`
}

type voiceCallRequest struct {
	RiskLevel          fleet.RiskLevel `json:"risk_level"`
	PredictedComponent fleet.Component `json:"predicted_component"`
	CenterID           string          `json:"center_id"`
	StartsAt           time.Time       `json:"starts_at"`
	Language           string          `json:"language,omitempty"`
	Channel            string          `json:"channel,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}
