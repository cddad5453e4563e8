// Package clearance models when a raised speed limit may actually be shown.
//
// The simulator reports the position of the front of the train, but a limit
// increase only applies once the rear of the train has passed the boundary.
// No rear-of-train position is reported, so the machine integrates an
// odometer from instantaneous speed until the train's own length has been
// travelled past the boundary. A lowered limit is never delayed: it takes
// effect the moment it is reported.
//
// The odometer is an approximation by construction: train length is assumed
// constant, wheel slip is ignored, and reversing still accrues distance
// (the conservative reading of "the train has moved relative to the
// boundary"). These are deliberate choices, not bugs.
package clearance

import "math"

// Tuning holds the named thresholds of the boundary-crossing heuristic.
// The defaults are tuned to the observed update cadence of the simulator's
// signal-distance reporting and should be changed together, if at all.
type Tuning struct {
	// CrossingNearM is the next-limit distance below which the front of the
	// train is considered to be at the boundary.
	CrossingNearM float64 `yaml:"crossing_near_m" validate:"gt=0"`
	// CrossingJumpM is the reported distance above which the next-limit
	// pointer is considered to have jumped to a new boundary, i.e. the old
	// one was just passed.
	CrossingJumpM float64 `yaml:"crossing_jump_m" validate:"gt=0"`
	// NominalTickSec is substituted for the elapsed time when the sampling
	// clock glitches (simulator time resets, long stalls).
	NominalTickSec float64 `yaml:"nominal_tick_sec" validate:"gt=0"`
	// MaxTickSec is the largest elapsed time accepted as a genuine tick.
	MaxTickSec float64 `yaml:"max_tick_sec" validate:"gt=0"`
}

// DefaultTuning returns the stock thresholds.
func DefaultTuning() Tuning {
	return Tuning{
		CrossingNearM:  15.0,
		CrossingJumpM:  100.0,
		NominalTickSec: 0.2,
		MaxTickSec:     1.0,
	}
}

// State is the machine's full memory between ticks. The zero value is the
// correct initial state: idle, nothing accumulated, no limit adopted yet.
type State struct {
	// Waiting is true while the rear of the train has not yet cleared a
	// raised-limit boundary (the CLEARING state).
	Waiting bool
	// DistanceM is the odometer since the boundary was crossed. It never
	// decreases while Waiting and is zeroed on every transition in or out
	// of Waiting.
	DistanceM float64
	// EffectiveLimit is the limit actually displayed at the last tick.
	EffectiveLimit float64
	// PendingLimit is the previous tick's next-limit value: the limit that
	// applies at the boundary we are approaching.
	PendingLimit float64
	// LastNextDistance is the previous tick's distance to the next limit
	// change, used to detect the pointer jumping past a boundary.
	LastNextDistance float64
}

// Input is one tick's worth of telemetry relevant to the machine.
type Input struct {
	// SpeedMS is the signed speed in m/s; negative when reversing.
	SpeedMS float64
	// TrackLimit is the limit currently enforced by the track (MPH).
	TrackLimit float64
	// NextLimit is the limit that applies after the next boundary (MPH).
	NextLimit float64
	// NextLimitDistance is metres from the front of the train to the next
	// boundary.
	NextLimitDistance float64
	// DT is seconds elapsed since the previous tick.
	DT float64
	// TrainLengthM is the physical length of the consist.
	TrainLengthM float64
}

// Output is what the rest of the pipeline needs from one tick.
type Output struct {
	// EffectiveLimit is the limit to display this tick.
	EffectiveLimit float64
	// Waiting reports whether the machine is in the CLEARING state.
	Waiting bool
	// Progress is the cleared fraction of the train length, in [0,1].
	// Zero when idle.
	Progress float64
	// RemainingM is metres of travel still needed before the raised limit
	// applies. Zero when idle.
	RemainingM float64
	// ClockGlitch reports that DT was rejected and the nominal tick
	// substituted.
	ClockGlitch bool
}

// Advance applies one tick to the machine and returns the successor state.
// It is a pure function: the caller owns serialization of ticks and the
// persistence of the returned state.
func Advance(s State, in Input, tn Tuning) (State, Output) {
	var out Output

	dt := in.DT
	// A negative dt means the simulator clock reset; an oversized one means
	// the feed stalled. Either way the real elapsed time is unknowable, so
	// substitute the nominal tick. dt == 0 is kept as-is: the same snapshot
	// delivered twice must not accrue phantom distance.
	if dt < 0 || dt > tn.MaxTickSec {
		dt = tn.NominalTickSec
		out.ClockGlitch = true
	}

	// Rule 1: boundary crossing. The next-limit pointer sitting almost on
	// top of us last tick and far away this tick means the front of the
	// train just passed the boundary it pointed at.
	if s.LastNextDistance < tn.CrossingNearM && in.NextLimitDistance > tn.CrossingJumpM {
		if s.PendingLimit > in.TrackLimit {
			// Step-up: hold the old limit until the rear clears.
			s.Waiting = true
			s.DistanceM = 0
		} else {
			// Step-down or unchanged: adopt immediately.
			s.Waiting = false
			s.DistanceM = 0
			s.EffectiveLimit = in.TrackLimit
		}
	}

	// Rule 2: safety override. A lowered track limit is honoured at once,
	// crossing detection or not.
	if in.TrackLimit < s.EffectiveLimit {
		s.Waiting = false
		s.EffectiveLimit = in.TrackLimit
		s.DistanceM = 0
	}

	// Rule 3: steady state.
	if !s.Waiting {
		s.EffectiveLimit = in.TrackLimit
	}

	// Rule 4: clearance accumulation.
	if s.Waiting {
		s.DistanceM += math.Abs(in.SpeedMS) * dt

		if in.TrainLengthM <= 0 {
			// No usable consist length; treat the rear as already clear
			// rather than dividing by zero.
			s.Waiting = false
			s.DistanceM = 0
			s.EffectiveLimit = in.TrackLimit
			out.Progress = 1.0
		} else {
			out.Progress = math.Min(s.DistanceM/in.TrainLengthM, 1.0)
			out.RemainingM = math.Max(in.TrainLengthM-s.DistanceM, 0)

			if s.DistanceM >= in.TrainLengthM {
				s.Waiting = false
				s.DistanceM = 0
				s.EffectiveLimit = in.TrackLimit
			}
		}
	}

	// Rule 5: remember this tick's pointer for the next crossing check.
	s.LastNextDistance = in.NextLimitDistance
	s.PendingLimit = in.NextLimit

	out.EffectiveLimit = s.EffectiveLimit
	out.Waiting = s.Waiting
	return s, out
}
