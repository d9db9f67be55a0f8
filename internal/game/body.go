package game

import "math"

// Body is a single simulated ball.
type Body struct {
	ID       int     `json:"id"`
	Position Vec2    `json:"position"`
	Height   float64 `json:"height"` // y; constant table height
	Velocity Vec2    `json:"velocity"`
	Radius   float64 `json:"radius"`
	Visible  bool    `json:"visible"`
}

// NewBody places a visible ball at rest on the table surface.
func NewBody(id int, x, z float64) *Body {
	return &Body{
		ID:       id,
		Position: NewVec2(x, z),
		Height:   BallRadius,
		Radius:   BallRadius,
		Visible:  true,
	}
}

func (b *Body) IsCue() bool {
	return b.ID == CueBallID
}

func (b *Body) Speed() float64 {
	return b.Velocity.Magnitude()
}

// InMotion reports whether either velocity component exceeds threshold.
func (b *Body) InMotion(threshold float64) bool {
	return math.Abs(b.Velocity.X) > threshold || math.Abs(b.Velocity.Z) > threshold
}

// Place moves the ball without touching its velocity.
func (b *Body) Place(x, z float64) {
	b.Position = NewVec2(x, z)
}

// SetVelocity is the only write path for velocity. The combined
// magnitude is capped at MaxSpeed.
func (b *Body) SetVelocity(vx, vz float64) {
	speed := math.Sqrt(vx*vx + vz*vz)
	if speed > MaxSpeed {
		scale := MaxSpeed / speed
		vx *= scale
		vz *= scale
	}
	b.Velocity = Vec2{X: vx, Z: vz}
}

// Integrate advances the ball by dt seconds and applies friction decay.
// Below RestThreshold on both axes the velocity snaps to exactly zero.
func (b *Body) Integrate(dt float64) {
	if !b.Visible {
		return
	}

	if !b.InMotion(RestThreshold) {
		b.SetVelocity(0, 0)
		return
	}

	b.Position = b.Position.Plus(b.Velocity.Times(TimeScale * dt))

	rate := 1 - (1-DecreaseRate)*dt*frictionWindow
	if rate < 0 {
		rate = 0
	}
	b.SetVelocity(b.Velocity.X*rate, b.Velocity.Z*rate)
}

// Intersects is true when both balls are on the table and touching.
func (b *Body) Intersects(other *Body) bool {
	if !b.Visible || !other.Visible {
		return false
	}
	return b.Position.DistanceTo(other.Position) <= b.Radius+other.Radius
}

// ResolveCollision applies a 1-D impulse along the line of centres and
// pushes overlapping balls apart. It returns true if an impulse was
// applied; separating or coincident balls are left alone.
func (b *Body) ResolveCollision(other *Body) bool {
	if !b.Intersects(other) {
		return false
	}

	delta := other.Position.Minus(b.Position)
	distance := delta.Magnitude()
	if distance < Epsilon {
		return false
	}

	n := delta.Times(1 / distance)
	vn := other.Velocity.Minus(b.Velocity).Dot(n)
	if vn > 0 {
		return false
	}

	impulse := -Restitution * vn
	b.SetVelocity(b.Velocity.X-impulse*n.X, b.Velocity.Z-impulse*n.Z)
	other.SetVelocity(other.Velocity.X+impulse*n.X, other.Velocity.Z+impulse*n.Z)

	overlap := b.Radius + other.Radius - distance
	if overlap > 0 {
		correction := n.Times(overlap / 2)
		b.Position = b.Position.Minus(correction)
		other.Position = other.Position.Plus(correction)
	}
	return true
}

// CheckPocketCapture removes the ball if it sits inside a pocket. The
// first matching pocket wins. The cue ball is re-spotted instead of
// leaving the table.
func (b *Body) CheckPocketCapture(pockets []Pocket) (*Pocket, bool) {
	if !b.Visible {
		return nil, false
	}

	for i := range pockets {
		if !pockets[i].Contains(b.Position) {
			continue
		}

		b.Visible = false
		b.SetVelocity(0, 0)

		if b.IsCue() {
			b.Place(CueRespotX, CueRespotZ)
			b.Visible = true
			b.SetVelocity(0, 0)
		}
		return &pockets[i], true
	}
	return nil, false
}
