package game

import (
	"errors"
	"math"
)

// ShotState is the cue implement's state.
type ShotState string

const (
	// Aiming: cue visible, angle follows aim input, charge accumulates.
	Aiming ShotState = "AIMING"
	// Fired: cue hidden until every ball has come to rest.
	Fired ShotState = "FIRED"
)

var (
	ErrShotInFlight   = errors.New("balls are still moving")
	ErrCueBallMissing = errors.New("cue ball is not on the table")
)

// Shot is the record of a released cue.
type Shot struct {
	Angle    float64 `json:"angle"`  // radians
	Offset   float64 `json:"offset"` // charge offset at release
	Power    float64 `json:"power"`
	Velocity Vec2    `json:"velocity"` // as applied to the cue ball, after the speed cap
}

// ShotController turns an aim angle and a charge offset into a cue ball
// velocity and tracks whether the cue may be used.
type ShotController struct {
	state    ShotState
	angle    float64
	offset   float64
	charging bool
}

func NewShotController() *ShotController {
	return &ShotController{state: Aiming}
}

func (s *ShotController) State() ShotState { return s.state }
func (s *ShotController) Visible() bool    { return s.state == Aiming }
func (s *ShotController) Angle() float64   { return s.angle }
func (s *ShotController) Offset() float64  { return s.offset }
func (s *ShotController) Charging() bool   { return s.charging }

// Aim sets the cue rotation. Ignored while a shot is in flight.
func (s *ShotController) Aim(angle float64) {
	if s.state != Aiming {
		return
	}
	s.angle = angle
}

// AimAt points the cue from a cursor position on the table through the
// cue ball, so that the shot travels away from the cursor.
func (s *ShotController) AimAt(cueBall, cursor Vec2) {
	d := cueBall.Minus(cursor)
	if d.IsZero() {
		return
	}
	s.Aim(math.Atan2(d.X, d.Z))
}

// BeginCharge starts pulling the cue back.
func (s *ShotController) BeginCharge() {
	if s.state != Aiming {
		return
	}
	s.charging = true
}

// Charge sets the pull-back offset, clamped to [0, MaxCueOffset].
func (s *ShotController) Charge(offset float64) {
	if s.state != Aiming {
		return
	}
	s.offset = clampOffset(offset)
}

// ChargeFromDrag converts a pointer drag (in pixels) into an offset.
func (s *ShotController) ChargeFromDrag(dx, dy float64) {
	s.Charge(math.Sqrt(dx*dx+dy*dy) * DragScale)
}

// Release fires the cue ball. Power scales linearly with the offset up
// to MaxShotPower; the ball's own speed cap still applies.
func (s *ShotController) Release(cue *Body, offset float64) (Shot, error) {
	if s.state != Aiming {
		return Shot{}, ErrShotInFlight
	}
	if cue == nil || !cue.Visible {
		return Shot{}, ErrCueBallMissing
	}

	offset = clampOffset(offset)
	power := offset / MaxCueOffset * MaxShotPower
	cue.SetVelocity(power*math.Sin(s.angle), power*math.Cos(s.angle))

	s.state = Fired
	s.charging = false
	s.offset = 0

	return Shot{
		Angle:    s.angle,
		Offset:   offset,
		Power:    power,
		Velocity: cue.Velocity,
	}, nil
}

// Settle returns the cue to Aiming once the table is at rest.
func (s *ShotController) Settle(moving bool) {
	if s.state == Fired && !moving {
		s.state = Aiming
	}
}

// Reset puts the cue back to its initial aiming state.
func (s *ShotController) Reset() {
	s.state = Aiming
	s.angle = 0
	s.offset = 0
	s.charging = false
}

func clampOffset(offset float64) float64 {
	if offset > MaxCueOffset {
		return MaxCueOffset
	}
	if offset < 0 || math.IsNaN(offset) {
		return 0
	}
	return offset
}
