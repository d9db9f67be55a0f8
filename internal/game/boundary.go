package game

import "math"

// Orientation says which face of a boundary balls bounce off.
type Orientation string

const (
	// Horizontal walls run along x and reflect the z component.
	Horizontal Orientation = "horizontal"
	// Vertical walls run along z and reflect the x component.
	Vertical Orientation = "vertical"
)

// Boundary is an axis-aligned rail segment.
type Boundary struct {
	Center      Vec2        `json:"center"`
	Width       float64     `json:"width"`
	Depth       float64     `json:"depth"`
	Height      float64     `json:"height"` // render only
	Orientation Orientation `json:"orientation"`
}

// Intersects runs a slab test: distance across the wall's thickness axis
// and containment along its length.
func (w *Boundary) Intersects(b *Body) bool {
	if !b.Visible {
		return false
	}

	pos := b.Position
	halfW := w.Width / 2
	halfD := w.Depth / 2

	if w.Orientation == Vertical {
		return math.Abs(pos.X-w.Center.X) <= b.Radius+halfW &&
			pos.Z >= w.Center.Z-halfD && pos.Z <= w.Center.Z+halfD
	}
	return math.Abs(pos.Z-w.Center.Z) <= b.Radius+halfD &&
		pos.X >= w.Center.X-halfW && pos.X <= w.Center.X+halfW
}

// Resolve reflects the velocity component perpendicular to the wall,
// damped by DecreaseRate, and parks the ball just outside the face on
// whichever side it currently is.
func (w *Boundary) Resolve(b *Body) bool {
	if !w.Intersects(b) {
		return false
	}

	pos := b.Position
	v := b.Velocity

	if w.Orientation == Vertical {
		b.SetVelocity(-v.X*DecreaseRate, v.Z*DecreaseRate)
		standoff := w.Width/2 + b.Radius + Epsilon
		if pos.X < w.Center.X {
			b.Place(w.Center.X-standoff, pos.Z)
		} else {
			b.Place(w.Center.X+standoff, pos.Z)
		}
		return true
	}

	b.SetVelocity(v.X*DecreaseRate, -v.Z*DecreaseRate)
	standoff := w.Depth/2 + b.Radius + Epsilon
	if pos.Z < w.Center.Z {
		b.Place(pos.X, w.Center.Z-standoff)
	} else {
		b.Place(pos.X, w.Center.Z+standoff)
	}
	return true
}
