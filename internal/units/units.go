// Package units provides shared constants and conversion for speed units.
//
// The simulator reports speed in metres per second; track limits are in MPH.
// Display units depend on the locomotive's speedometer: British stock shows
// MPH, continental stock KPH.
package units

// Unit constants
const (
	MPS = "mps"
	MPH = "mph"
	KPH = "kph"
)

// SpeedoType values reported by the simulator's SpeedoType field.
const (
	SpeedoMPH = 1
	SpeedoKPH = 2
)

// ValidUnits contains all valid display unit values.
var ValidUnits = []string{MPS, MPH, KPH}

// IsValid checks if the given unit is in the list of valid units.
func IsValid(unit string) bool {
	for _, u := range ValidUnits {
		if unit == u {
			return true
		}
	}
	return false
}

// ConvertSpeed converts a speed from metres per second to the target unit.
func ConvertSpeed(speedMPS float64, targetUnit string) float64 {
	switch targetUnit {
	case MPH:
		return speedMPS * 2.2369362920544
	case KPH:
		return speedMPS * 3.6
	default:
		return speedMPS
	}
}

// ForSpeedoType maps a simulator SpeedoType value to a display unit.
// Unknown types fall back to MPH, matching the simulator's default.
func ForSpeedoType(speedoType int) string {
	if speedoType == SpeedoKPH {
		return KPH
	}
	return MPH
}
