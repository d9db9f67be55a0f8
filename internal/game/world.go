package game

import "math"

// EventType classifies something that happened during a step.
type EventType string

const (
	EventBall   EventType = "ball"   // ball-ball impulse
	EventWall   EventType = "wall"   // rail bounce
	EventPocket EventType = "pocket" // object ball pocketed
	EventRespot EventType = "respot" // cue ball scratched and re-spotted
)

// Event records a collision for persistence, sound playback and clients.
type Event struct {
	Type     EventType `json:"type"`
	Frame    uint64    `json:"frame"`
	BallID   int       `json:"ball_id"`
	TargetID int       `json:"target_id"` // ball ID, rail index or pocket ID
	Speed    float64   `json:"speed"`     // ball speed before impact
}

// World is the table aggregate: balls, rails, pockets and the cue.
// It is not safe for concurrent use; callers serialise access.
type World struct {
	Bodies     []*Body
	Boundaries []Boundary
	Pockets    []Pocket
	Shot       *ShotController

	frame  uint64
	moving bool
	events []Event
}

// NewWorld assembles a world from arbitrary parts.
func NewWorld(bodies []*Body, boundaries []Boundary, pockets []Pocket) *World {
	return &World{
		Bodies:     bodies,
		Boundaries: boundaries,
		Pockets:    pockets,
		Shot:       NewShotController(),
		events:     make([]Event, 0),
	}
}

// Step advances the table by dt seconds and reports whether anything is
// still moving. The order of the phases is fixed:
//  1. integrate every ball and accumulate the motion flag
//  2. rail collisions, per ball across all rails
//  3. pocket capture
//  4. one pass over every pair i<j of ball-ball collisions
//  5. let the cue settle back to aiming once everything is at rest
func (w *World) Step(dt float64) bool {
	w.frame++
	moving := false

	for _, b := range w.Bodies {
		b.Integrate(dt)
		if b.Visible && b.InMotion(MotionThreshold) {
			moving = true
		}
	}

	for _, b := range w.Bodies {
		for i := range w.Boundaries {
			speed := math.Abs(b.Velocity.X)
			if w.Boundaries[i].Orientation == Horizontal {
				speed = math.Abs(b.Velocity.Z)
			}
			if w.Boundaries[i].Resolve(b) {
				w.record(EventWall, b.ID, i, speed)
			}
		}
	}

	for _, b := range w.Bodies {
		speed := b.Speed()
		if pocket, ok := b.CheckPocketCapture(w.Pockets); ok {
			if b.IsCue() {
				w.record(EventRespot, b.ID, pocket.ID, speed)
			} else {
				w.record(EventPocket, b.ID, pocket.ID, speed)
			}
		}
	}

	for i := 0; i < len(w.Bodies); i++ {
		for j := i + 1; j < len(w.Bodies); j++ {
			a, o := w.Bodies[i], w.Bodies[j]
			speed := a.Velocity.Minus(o.Velocity).Magnitude()
			// resting contacts in the rack are pushed apart silently
			if a.ResolveCollision(o) && speed > 0 {
				w.record(EventBall, a.ID, o.ID, speed)
			}
		}
	}

	w.moving = moving
	w.Shot.Settle(moving)
	return moving
}

// RunUntilRest steps at a fixed dt until nothing moves or maxFrames is
// reached. It returns the number of frames stepped.
func (w *World) RunUntilRest(dt float64, maxFrames int) int {
	for n := 1; n <= maxFrames; n++ {
		if !w.Step(dt) {
			return n
		}
	}
	return maxFrames
}

// Moving is the motion flag from the last step.
func (w *World) Moving() bool {
	return w.moving
}

// Frame is the number of steps taken so far.
func (w *World) Frame() uint64 {
	return w.frame
}

// Body looks a ball up by identity.
func (w *World) Body(id int) *Body {
	for _, b := range w.Bodies {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// CueBall returns the cue ball, or nil if this world has none.
func (w *World) CueBall() *Body {
	return w.Body(CueBallID)
}

// Fire releases the cue at the given charge offset against the cue ball.
func (w *World) Fire(offset float64) (Shot, error) {
	return w.Shot.Release(w.CueBall(), offset)
}

// DrainEvents returns the events recorded since the last drain.
func (w *World) DrainEvents() []Event {
	events := w.events
	w.events = make([]Event, 0)
	return events
}

// Rerack puts every ball back in its opening position at rest.
func (w *World) Rerack() {
	rack := StandardRack()
	for _, b := range w.Bodies {
		if b.ID < 0 || b.ID >= NumBalls {
			continue
		}
		b.Place(rack[b.ID].X, rack[b.ID].Z)
		b.SetVelocity(0, 0)
		b.Visible = true
	}
	w.moving = false
	w.Shot.Reset()
	w.events = make([]Event, 0)
}

// VisibleCount returns how many balls are still on the table.
func (w *World) VisibleCount() int {
	n := 0
	for _, b := range w.Bodies {
		if b.Visible {
			n++
		}
	}
	return n
}

func (w *World) record(t EventType, ballID, targetID int, speed float64) {
	w.events = append(w.events, Event{
		Type:     t,
		Frame:    w.frame,
		BallID:   ballID,
		TargetID: targetID,
		Speed:    speed,
	})
}
