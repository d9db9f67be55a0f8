package game

import "math"

// Vec2 is a planar vector on the table surface. X runs along the long
// rail, Z along the short one; height is tracked separately on Body.
type Vec2 struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

func NewVec2(x, z float64) Vec2 {
	return Vec2{X: x, Z: z}
}

func (v Vec2) Plus(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Z: v.Z + o.Z}
}

func (v Vec2) Minus(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Z: v.Z - o.Z}
}

func (v Vec2) Times(s float64) Vec2 {
	return Vec2{X: v.X * s, Z: v.Z * s}
}

func (v Vec2) Dot(o Vec2) float64 {
	return v.X*o.X + v.Z*o.Z
}

func (v Vec2) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Z*v.Z)
}

func (v Vec2) DistanceTo(o Vec2) float64 {
	return v.Minus(o).Magnitude()
}

// Normalize returns the unit vector, or zero for a zero vector.
func (v Vec2) Normalize() Vec2 {
	m := v.Magnitude()
	if m == 0 {
		return Vec2{}
	}
	return v.Times(1.0 / m)
}

func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Z == 0
}
