// Package profile holds vehicle profiles and selects the one being driven.
//
// A profile describes one locomotive: the control fields it is known to
// report (its fingerprint), how abstract control roles map onto its field
// names, its physical length, and display preferences. Profiles are loaded
// once from a directory of JSON records and are read-only afterwards; the
// only mutable state is the operator's manual selection.
package profile

import (
	"github.com/dastsc/nexus/internal/telemetry"
	"github.com/dastsc/nexus/internal/units"
)

// Fingerprint is the set of control field names that must all be present in
// a snapshot for the profile to be an auto-detection candidate.
type Fingerprint struct {
	RequiredControls []string `json:"required_controls"`
}

// Visuals carries display preferences for a profile.
type Visuals struct {
	Unit  string `json:"unit" validate:"omitempty,oneof=MPH KPH"`
	Color string `json:"color"`
}

// Profile is one vehicle record as stored on disk. ID is assigned from the
// file basename at load time.
type Profile struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	SourceFile   string            `json:"source_file,omitempty"`
	Fingerprint  Fingerprint       `json:"fingerprint"`
	Mappings     map[string]string `json:"mappings"`
	TrainLengthM float64           `json:"train_length_m" validate:"gte=0"`
	Visuals      Visuals           `json:"visuals"`
}

// Unit returns the display unit for this profile, defaulting to MPH the way
// the simulator does.
func (p *Profile) Unit() string {
	if p != nil && p.Visuals.Unit == "KPH" {
		return units.KPH
	}
	return units.MPH
}

// Control roles a profile can map onto concrete field names.
const (
	RoleCombined     = "combined_control"
	RoleThrottle     = "throttle"
	RoleRegulator    = "regulator"
	RoleBrake        = "brake"
	RoleTrainBrake   = "train_brake"
	RoleDynamicBrake = "dynamic_brake"
	RoleEffort       = "effort"
	RoleAmmeter      = "ammeter"
	RoleCurrent      = "current"
	RoleReverser     = "reverser"
)

// Roles lists every control role in a stable order, for callers that
// resolve the full control set per snapshot.
func Roles() []string {
	return []string{
		RoleCombined,
		RoleThrottle,
		RoleRegulator,
		RoleBrake,
		RoleTrainBrake,
		RoleDynamicBrake,
		RoleEffort,
		RoleAmmeter,
		RoleCurrent,
		RoleReverser,
	}
}

// roleFallbacks lists candidate field names per role, tried in priority
// order when the profile itself does not map the role. This is also the
// behaviour with no profile at all: raw well-known field names.
var roleFallbacks = map[string][]string{
	RoleThrottle:     {"Regulator", "Throttle"},
	RoleRegulator:    {"Regulator"},
	RoleBrake:        {"TrainBrakeControl"},
	RoleTrainBrake:   {"TrainBrakeControl"},
	RoleDynamicBrake: {"DynamicBrake"},
	RoleEffort:       {"TractiveEffort", "Acceleration", "Traction"},
	RoleAmmeter:      {"Ammeter", "Current"},
	RoleCurrent:      {"Current", "Ammeter"},
	RoleReverser:     {"UserVirtualReverser", "Reverser"},
	RoleCombined:     {"ThrottleAndBrake"},
}

// FieldForRole resolves a control role to the first field name present in
// the snapshot: the profile's own mapping first, then the fallback chain.
// Works on a nil profile, where only the fallbacks apply.
func (p *Profile) FieldForRole(role string, snap telemetry.Snapshot) (string, bool) {
	if p != nil {
		if mapped, ok := p.Mappings[role]; ok && snap.Has(mapped) {
			return mapped, true
		}
	}
	for _, candidate := range roleFallbacks[role] {
		if snap.Has(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// RoleValue resolves a role and returns its numeric value, or 0 when no
// candidate field is present.
func (p *Profile) RoleValue(role string, snap telemetry.Snapshot) float64 {
	field, ok := p.FieldForRole(role, snap)
	if !ok {
		return 0
	}
	return snap.Num(field)
}
