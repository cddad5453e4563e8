// Package pipeline runs the per-tick telemetry interpretation: parse, match
// a profile, derive physics, advance the clearance machine, and assemble the
// combined result record.
//
// Ticks must be applied in arrival order. All mutable state lives behind one
// mutex so that telemetry ticks and operator commands (profile selection,
// limit override, consist length) serialize cleanly. Nothing in here blocks
// on I/O and no tick error is ever fatal: a bad line yields no result, a bad
// field yields a degraded one.
package pipeline

import (
	"log/slog"
	"math"
	"sync"

	"github.com/dastsc/nexus/internal/clearance"
	"github.com/dastsc/nexus/internal/physics"
	"github.com/dastsc/nexus/internal/profile"
	"github.com/dastsc/nexus/internal/telemetry"
	"github.com/dastsc/nexus/internal/units"
)

// DefaultTrainLengthM is used when neither telemetry, the operator, nor the
// active profile provide a consist length. It is a three-car Class 323.
const DefaultTrainLengthM = 61.0

// straightCurvatureEps is the curvature magnitude below which the track is
// reported as straight.
const straightCurvatureEps = 0.0001

// overspeedMarginMPH is how far over the effective limit the speed may read
// before the overspeed flag raises, absorbing speedometer jitter.
const overspeedMarginMPH = 1.0

// Engine is the ingestion pipeline. Create one per session with New.
type Engine struct {
	catalog *profile.Catalog
	tuning  clearance.Tuning
	lg      *slog.Logger

	mu            sync.Mutex
	state         clearance.State
	prevSpeedMPH  float64
	lastSimTime   float64
	trainLengthM  float64 // 0 = not yet known
	trainMassT    float64
	limitOverride *float64
	active        *profile.Profile
	last          *Result
}

// Option configures an Engine.
type Option func(*Engine)

// WithTuning overrides the clearance machine thresholds.
func WithTuning(tn clearance.Tuning) Option {
	return func(e *Engine) { e.tuning = tn }
}

// WithLogger sets the engine's logger.
func WithLogger(lg *slog.Logger) Option {
	return func(e *Engine) { e.lg = lg }
}

// New creates an Engine over the given profile catalog.
func New(catalog *profile.Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog: catalog,
		tuning:  clearance.DefaultTuning(),
		lg:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Tick processes one raw telemetry line. The second return is false when
// the line parsed to an empty snapshot (torn read, garbage); such ticks are
// dropped without touching any state.
func (e *Engine) Tick(line string) (Result, bool) {
	snap := telemetry.Parse(line)
	if len(snap) == 0 {
		return Result{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.matchProfile(snap)

	// Elapsed simulator time since the previous tick. Absent or first-tick
	// sim time leaves dt at the nominal interval; the clearance machine
	// guards against resets and stalls itself.
	simTime := snap.Num(telemetry.FieldSimulationTime)
	dt := e.tuning.NominalTickSec
	if e.lastSimTime > 0 {
		dt = simTime - e.lastSimTime
	}
	e.lastSimTime = simTime

	speedMS := snap.Num(telemetry.FieldCurrentSpeed)
	speedMPH := units.ConvertSpeed(speedMS, units.MPH)

	g := physics.Derive(speedMPH, snap.Num(telemetry.FieldCurvatureActual), e.prevSpeedMPH, dt)
	e.prevSpeedMPH = speedMPH

	length := e.consistLength(snap, p)
	if mass := snap.Num(telemetry.FieldTrainMass); mass > 0 {
		e.trainMassT = mass
	}

	var out clearance.Output
	e.state, out = clearance.Advance(e.state, clearance.Input{
		SpeedMS:           speedMS,
		TrackLimit:        snap.Num(telemetry.FieldCurrentLimit),
		NextLimit:         snap.Num(telemetry.FieldNextLimitSpeed),
		NextLimitDistance: snap.Num(telemetry.FieldNextLimitDistance),
		DT:                dt,
		TrainLengthM:      length,
	}, e.tuning)
	if out.ClockGlitch {
		e.lg.Warn("clock glitch, substituted nominal tick", "dt", dt, "sim_time", simTime)
	}

	effective := out.EffectiveLimit
	overridden := false
	if e.limitOverride != nil {
		// The operator's limit replaces the computed one entirely and may
		// exceed the track limit; that is their call.
		effective = *e.limitOverride
		overridden = true
	}

	res := Result{
		SimTime:             simTime,
		Fields:              snap,
		Physics:             g,
		DisplaySpeed:        displaySpeed(snap, p, speedMS),
		DisplayUnit:         displayUnit(snap, p),
		SpeedMPH:            speedMPH,
		TrackLimit:          snap.Num(telemetry.FieldCurrentLimit),
		EffectiveLimit:      effective,
		LimitOverridden:     overridden,
		NextLimit:           snap.Num(telemetry.FieldNextLimitSpeed),
		NextLimitDistance:   snap.Num(telemetry.FieldNextLimitDistance),
		Overspeed:           speedMPH > effective+overspeedMarginMPH,
		Clearing:            out.Waiting,
		ClearanceProgress:   out.Progress,
		ClearanceRemainingM: out.RemainingM,
		TrainLengthM:        length,
		TrainMassT:          e.trainMassT,
		Curve:               summarizeCurve(snap.Num(telemetry.FieldCurvatureActual)),
		Controls:            resolveControls(p, snap),
	}
	if p != nil {
		res.ProfileID = p.ID
		res.ProfileName = p.Name
	}

	e.last = &res
	return res, true
}

// matchProfile picks the active profile for this snapshot: the manual
// override when set, otherwise fingerprint detection, otherwise loco-name
// detection when the snapshot identifies itself. Finding nothing is fine.
func (e *Engine) matchProfile(snap telemetry.Snapshot) *profile.Profile {
	p := e.catalog.MatchFingerprint(snap)
	if p == nil {
		if name := snap.Str(telemetry.FieldLocoName); name != "" {
			p = e.catalog.MatchLocoName(name)
		}
	}
	if p != e.active {
		if p != nil {
			e.lg.Info("profile changed", "id", p.ID, "name", p.Name)
		} else {
			e.lg.Info("no active profile, using raw field names")
		}
		e.active = p
	}
	return p
}

// consistLength resolves the train length for this tick: telemetry wins,
// then a previously learned or operator-set length, then the profile, then
// the default.
func (e *Engine) consistLength(snap telemetry.Snapshot, p *profile.Profile) float64 {
	if tl := snap.Num(telemetry.FieldTrainLength); tl > 0 {
		if tl != e.trainLengthM {
			e.lg.Info("consist length from telemetry", "length_m", tl)
		}
		e.trainLengthM = tl
	}
	if e.trainLengthM > 0 {
		return e.trainLengthM
	}
	if p != nil && p.TrainLengthM > 0 {
		return p.TrainLengthM
	}
	return DefaultTrainLengthM
}

// resolveControls reads every control role the snapshot can satisfy,
// through the active profile's mappings when one is set and the well-known
// fallback fields otherwise. This is what drives the control gauges on the
// dashboard.
func resolveControls(p *profile.Profile, snap telemetry.Snapshot) map[string]float64 {
	var out map[string]float64
	for _, role := range profile.Roles() {
		if _, ok := p.FieldForRole(role, snap); !ok {
			continue
		}
		if out == nil {
			out = make(map[string]float64)
		}
		out[role] = p.RoleValue(role, snap)
	}
	return out
}

func displayUnit(snap telemetry.Snapshot, p *profile.Profile) string {
	if snap.Has(telemetry.FieldSpeedoType) {
		return units.ForSpeedoType(int(snap.Num(telemetry.FieldSpeedoType)))
	}
	return p.Unit()
}

func displaySpeed(snap telemetry.Snapshot, p *profile.Profile, speedMS float64) float64 {
	return units.ConvertSpeed(speedMS, displayUnit(snap, p))
}

func summarizeCurve(curvature float64) CurveSummary {
	if math.Abs(curvature) < straightCurvatureEps {
		return CurveSummary{Direction: CurveStraight}
	}
	dir := CurveLeft
	if curvature > 0 {
		dir = CurveRight
	}
	return CurveSummary{
		RadiusM:   math.Abs(1.0 / curvature),
		Direction: dir,
	}
}

// SelectProfile applies an operator "select profile by id" command; AUTO
// restores auto-detection. Unknown ids report failure without disturbing
// the session.
func (e *Engine) SelectProfile(id string) error {
	return e.catalog.Select(id)
}

// SetLimitOverride forces the displayed limit to the given value until
// cleared.
func (e *Engine) SetLimitOverride(limit float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.limitOverride = &limit
}

// ClearLimitOverride removes a forced display limit.
func (e *Engine) ClearLimitOverride() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.limitOverride = nil
}

// SetTrainLength sets the consist length by hand, e.g. "6 coaches, 122 m".
// Telemetry-reported length still wins on later ticks.
func (e *Engine) SetTrainLength(lengthM float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if lengthM > 0 {
		e.trainLengthM = lengthM
	}
}

// LastResult returns the most recent result record, or false when no tick
// has completed yet. Used to prime newly connected consumers.
func (e *Engine) LastResult() (Result, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.last == nil {
		return Result{}, false
	}
	return *e.last, true
}

// Catalog exposes the engine's profile catalog for listing endpoints.
func (e *Engine) Catalog() *profile.Catalog {
	return e.catalog
}
