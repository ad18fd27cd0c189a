// Package features derives the model's named feature set from raw telemetry.
// Build is pure: the same sample always yields the same vector, and the name
// set must stay identical between prediction and training or the model's
// inputs silently skew.
package features

import "github.com/arjun1665/SmartFleet/internal/fleet"

// Version tags the feature computation. Bump it whenever the name set or a
// formula changes.
const Version = "v1"

// Threshold constants for the binary indicators.
const (
	lowOilPressureKPA = 180.0
	lowBatteryV       = 11.8
)

// Names lists every feature of Version in a stable order, used when a model
// artifact needs a default ordering.
var Names = []string{
	"speed_kph",
	"engine_temp_c",
	"vibration_rms",
	"oil_pressure_kpa",
	"battery_v",
	"odometer_km",
	"ambient_temp_c",
	"temp_delta",
	"vibration_x_temp",
	"low_oil_pressure",
	"low_battery",
}

// Build computes the v1 feature vector for one telemetry sample.
func Build(s fleet.TelemetrySample) fleet.FeatureVector {
	values := map[string]float64{
		"speed_kph":        s.SpeedKPH,
		"engine_temp_c":    s.EngineTempC,
		"vibration_rms":    s.VibrationRMS,
		"oil_pressure_kpa": s.OilPressureKPA,
		"battery_v":        s.BatteryV,
		"odometer_km":      s.OdometerKM,
		"ambient_temp_c":   s.AmbientTempC,
		"temp_delta":       s.EngineTempC - s.AmbientTempC,
		"vibration_x_temp": s.VibrationRMS * s.EngineTempC,
		"low_oil_pressure": boolFeature(s.OilPressureKPA < lowOilPressureKPA),
		"low_battery":      boolFeature(s.BatteryV < lowBatteryV),
	}
	return fleet.FeatureVector{Version: Version, Values: values}
}

func boolFeature(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}
