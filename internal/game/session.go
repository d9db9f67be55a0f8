package game

import (
	"errors"
	"log"
	"sync"
	"time"
)

var (
	ErrNegativeDelta = errors.New("time delta must not be negative")
	ErrTableClosed   = errors.New("table is closed")
)

// BallState is a ball's render-facing state.
type BallState struct {
	ID      int     `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
	VX      float64 `json:"vx"`
	VZ      float64 `json:"vz"`
	Visible bool    `json:"visible"`
}

// CueState is what a renderer needs to draw the cue.
type CueState struct {
	State    ShotState  `json:"state"`
	Visible  bool       `json:"visible"`
	Angle    float64    `json:"angle"`
	Offset   float64    `json:"offset"`
	Charging bool       `json:"charging"`
	Tip      [3]float64 `json:"tip"`
}

// TableSnapshot is a consistent copy of a table at one frame.
type TableSnapshot struct {
	ID         string      `json:"id"`
	Token      string      `json:"token"`
	Status     TableStatus `json:"status"`
	Frame      uint64      `json:"frame"`
	ShotNumber int         `json:"shot_number"` // shots since the last rack
	TotalShots int         `json:"total_shots"` // shots over the table's life
	Moving     bool        `json:"moving"`
	Balls      []BallState `json:"balls"`
	Cue        CueState    `json:"cue"`
}

// StepResult is what one Advance call produced.
type StepResult struct {
	Moving  bool    `json:"moving"`
	Settled bool    `json:"settled"` // the table just came to rest after a shot
	Events  []Event `json:"events"`
}

// TableSession wraps a World for concurrent access from the simulator,
// HTTP handlers and websocket clients.
type TableSession struct {
	ID           string      `json:"id"`
	Token        string      `json:"token"`
	Status       TableStatus `json:"status"`
	World        *World      `json:"-"`
	ShotNumber   int         `json:"shot_number"`
	TotalShots   int         `json:"total_shots"` // never reset; numbers persisted shots
	LastShot     *Shot       `json:"last_shot,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	LastActivity time.Time   `json:"last_activity"`
	ClosedAt     *time.Time  `json:"closed_at,omitempty"`
	SessionID    int         `json:"session_id,omitempty"`
	mu           sync.RWMutex
}

// NewTableSession creates a racked table.
func NewTableSession(id, token string) *TableSession {
	now := time.Now()
	return &TableSession{
		ID:           id,
		Token:        token,
		Status:       StatusActive,
		World:        NewStandardWorld(),
		CreatedAt:    now,
		LastActivity: now,
	}
}

// Advance runs one simulation step of dt seconds.
func (t *TableSession) Advance(dt float64) (StepResult, error) {
	if dt < 0 {
		return StepResult{}, ErrNegativeDelta
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Status != StatusActive {
		return StepResult{}, ErrTableClosed
	}

	wasBusy := t.World.Moving() || t.World.Shot.State() == Fired
	moving := t.World.Step(dt)

	return StepResult{
		Moving:  moving,
		Settled: wasBusy && !moving,
		Events:  t.World.DrainEvents(),
	}, nil
}

// Aim sets the cue angle in radians.
func (t *TableSession) Aim(angle float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkAimingLocked(); err != nil {
		return err
	}
	t.World.Shot.Aim(angle)
	t.LastActivity = time.Now()
	return nil
}

// AimAt aims the cue from a cursor position on the table.
func (t *TableSession) AimAt(x, z float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkAimingLocked(); err != nil {
		return err
	}
	cue := t.World.CueBall()
	if cue == nil || !cue.Visible {
		return ErrCueBallMissing
	}
	t.World.Shot.AimAt(cue.Position, NewVec2(x, z))
	t.LastActivity = time.Now()
	return nil
}

// Charge sets the cue pull-back offset.
func (t *TableSession) Charge(offset float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkAimingLocked(); err != nil {
		return err
	}
	t.World.Shot.BeginCharge()
	t.World.Shot.Charge(offset)
	t.LastActivity = time.Now()
	return nil
}

// ChargeFromDrag sets the pull-back from a pointer drag in pixels.
func (t *TableSession) ChargeFromDrag(dx, dy float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkAimingLocked(); err != nil {
		return err
	}
	t.World.Shot.BeginCharge()
	t.World.Shot.ChargeFromDrag(dx, dy)
	t.LastActivity = time.Now()
	return nil
}

// Shoot aims and releases the cue in one call.
func (t *TableSession) Shoot(angle, offset float64) (Shot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkAimingLocked(); err != nil {
		return Shot{}, err
	}

	t.World.Shot.Aim(angle)
	shot, err := t.World.Fire(offset)
	if err != nil {
		return Shot{}, err
	}

	t.ShotNumber++
	t.TotalShots++
	t.LastShot = &shot
	t.LastActivity = time.Now()

	log.Printf("[TABLE] Shot #%d on %s: angle=%.3f offset=%.2f power=%.2f", t.ShotNumber, t.Token, shot.Angle, shot.Offset, shot.Power)
	return shot, nil
}

// Rack resets every ball to the opening layout.
func (t *TableSession) Rack() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Status != StatusActive {
		return ErrTableClosed
	}
	t.World.Rerack()
	t.ShotNumber = 0
	t.LastShot = nil
	t.LastActivity = time.Now()

	log.Printf("[TABLE] Table %s re-racked", t.Token)
	return nil
}

// Close marks the session closed. Closing twice is a no-op.
func (t *TableSession) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Status == StatusClosed {
		return
	}
	now := time.Now()
	t.Status = StatusClosed
	t.ClosedAt = &now
}

// IsActive reports whether the table still accepts input.
func (t *TableSession) IsActive() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Status == StatusActive
}

// IsMoving reports the motion flag from the last step.
func (t *TableSession) IsMoving() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.World.Moving()
}

// NeedsStep reports whether the simulator has work to do on this table.
func (t *TableSession) NeedsStep() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Status == StatusActive && (t.World.Moving() || t.World.Shot.State() == Fired)
}

func (t *TableSession) sessionID() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.SessionID
}

// IdleSince returns the time of the last player input.
func (t *TableSession) IdleSince() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.LastActivity
}

// Snapshot copies the render-facing state of the table.
func (t *TableSession) Snapshot() TableSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	balls := make([]BallState, 0, len(t.World.Bodies))
	for _, b := range t.World.Bodies {
		balls = append(balls, BallState{
			ID:      b.ID,
			X:       b.Position.X,
			Y:       b.Height,
			Z:       b.Position.Z,
			VX:      b.Velocity.X,
			VZ:      b.Velocity.Z,
			Visible: b.Visible,
		})
	}

	shot := t.World.Shot
	cue := CueState{
		State:    shot.State(),
		Visible:  shot.Visible(),
		Angle:    shot.Angle(),
		Offset:   shot.Offset(),
		Charging: shot.Charging(),
	}
	if ball := t.World.CueBall(); ball != nil {
		tip := shot.CueTip(ball)
		cue.Tip = [3]float64{tip.X(), tip.Y(), tip.Z()}
	}

	return TableSnapshot{
		ID:         t.ID,
		Token:      t.Token,
		Status:     t.Status,
		Frame:      t.World.Frame(),
		ShotNumber: t.ShotNumber,
		TotalShots: t.TotalShots,
		Moving:     t.World.Moving(),
		Balls:      balls,
		Cue:        cue,
	}
}

// Restore puts the balls and counters back to a saved snapshot. The cue
// always comes back aiming with the balls at rest.
func (t *TableSession) Restore(snap TableSnapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, bs := range snap.Balls {
		b := t.World.Body(bs.ID)
		if b == nil {
			continue
		}
		b.Place(bs.X, bs.Z)
		b.SetVelocity(0, 0)
		b.Visible = bs.Visible
	}
	t.World.frame = snap.Frame
	t.World.moving = false
	t.World.Shot.Reset()
	t.World.Shot.Aim(snap.Cue.Angle)
	t.ShotNumber = snap.ShotNumber
	t.TotalShots = snap.TotalShots
	t.LastActivity = time.Now()
}

func (t *TableSession) checkAimingLocked() error {
	if t.Status != StatusActive {
		return ErrTableClosed
	}
	if t.World.Shot.State() != Aiming {
		return ErrShotInFlight
	}
	return nil
}

func (s TableSnapshot) visibleBalls() int {
	n := 0
	for _, b := range s.Balls {
		if b.Visible {
			n++
		}
	}
	return n
}
