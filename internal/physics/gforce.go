// Package physics derives rider-felt g-forces from speed and track geometry.
package physics

import "math"

const (
	// Gravity is standard gravitational acceleration in m/s².
	Gravity = 9.81
	// MPHToMS converts miles per hour to metres per second.
	MPHToMS = 0.44704
)

// GForces holds the lateral and longitudinal accelerations, expressed as
// multiples of g and rounded to three decimal places.
type GForces struct {
	Lateral      float64 `json:"g_lateral"`
	Longitudinal float64 `json:"g_longitudinal"`
}

// Derive computes g-forces from the current and previous speed (MPH), the
// track curvature (1/m, signed by direction) and the elapsed time between
// samples. dt <= 0 yields a longitudinal force of 0 rather than an error;
// the sampling clock is not trusted to be monotonic.
func Derive(speedMPH, curvature, prevSpeedMPH, dt float64) GForces {
	speedMS := speedMPH * MPHToMS
	lateral := (speedMS * speedMS * math.Abs(curvature)) / Gravity

	var longitudinal float64
	if dt > 0 {
		prevMS := prevSpeedMPH * MPHToMS
		longitudinal = ((speedMS - prevMS) / dt) / Gravity
	}

	return GForces{
		Lateral:      round3(lateral),
		Longitudinal: round3(longitudinal),
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
