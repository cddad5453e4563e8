package pipeline

import (
	"github.com/dastsc/nexus/internal/physics"
	"github.com/dastsc/nexus/internal/telemetry"
)

// Curve directions in a result record.
const (
	CurveStraight = "straight"
	CurveLeft     = "left"
	CurveRight    = "right"
)

// CurveSummary condenses the reported track curvature into what a display
// shows: radius and hand of the curve. RadiusM is 0 on straight track.
type CurveSummary struct {
	RadiusM   float64 `json:"radius_m"`
	Direction string  `json:"direction"`
}

// Result is the combined per-tick record handed to distribution: the parsed
// snapshot, everything derived from it, and the display-ready limit state.
type Result struct {
	SimTime float64            `json:"sim_time"`
	Fields  telemetry.Snapshot `json:"data"`
	Physics physics.GForces    `json:"physics"`

	// ProfileID is empty when no profile is active; consumers fall back to
	// raw field names.
	ProfileID   string `json:"active_profile,omitempty"`
	ProfileName string `json:"active_profile_name,omitempty"`

	DisplaySpeed float64 `json:"display_speed"`
	DisplayUnit  string  `json:"display_unit"`
	SpeedMPH     float64 `json:"speed_mph"`

	TrackLimit        float64 `json:"track_limit"`
	EffectiveLimit    float64 `json:"effective_limit"`
	LimitOverridden   bool    `json:"limit_overridden"`
	NextLimit         float64 `json:"next_limit"`
	NextLimitDistance float64 `json:"next_limit_distance_m"`
	Overspeed         bool    `json:"overspeed"`

	Clearing            bool    `json:"clearing"`
	ClearanceProgress   float64 `json:"clearance_progress"`
	ClearanceRemainingM float64 `json:"clearance_remaining_m"`

	TrainLengthM float64      `json:"train_length_m"`
	TrainMassT   float64      `json:"train_mass_t,omitempty"`
	Curve        CurveSummary `json:"curve"`

	// Controls holds the control readings resolved through the active
	// profile's role mappings (throttle, brakes, effort, ammeter...), keyed
	// by role. Roles with no candidate field in the snapshot are omitted.
	Controls map[string]float64 `json:"controls,omitempty"`
}
