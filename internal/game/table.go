package game

// Standard table geometry. The playing surface is 9 x 6 centred on the
// origin; rails sit just outside it and pockets on the corners and the
// middle of each long rail.

const (
	railThickness = 0.12
	railHeight    = 0.3
)

// StandardBoundaries returns the four rails.
func StandardBoundaries() []Boundary {
	return []Boundary{
		{Center: NewVec2(0, 3.06), Width: 9.0, Depth: railThickness, Height: railHeight, Orientation: Horizontal},
		{Center: NewVec2(0, -3.06), Width: 9.0, Depth: railThickness, Height: railHeight, Orientation: Horizontal},
		{Center: NewVec2(4.56, 0), Width: railThickness, Depth: 6.24, Height: railHeight, Orientation: Vertical},
		{Center: NewVec2(-4.56, 0), Width: railThickness, Depth: 6.24, Height: railHeight, Orientation: Vertical},
	}
}

// StandardPockets returns the six pockets.
func StandardPockets() []Pocket {
	return []Pocket{
		{ID: 0, Position: NewVec2(-4.5, 3.0), Radius: PocketRadius},
		{ID: 1, Position: NewVec2(0, 3.0), Radius: PocketRadius},
		{ID: 2, Position: NewVec2(4.5, 3.0), Radius: PocketRadius},
		{ID: 3, Position: NewVec2(-4.5, -3.0), Radius: PocketRadius},
		{ID: 4, Position: NewVec2(0, -3.0), Radius: PocketRadius},
		{ID: 5, Position: NewVec2(4.5, -3.0), Radius: PocketRadius},
	}
}

// StandardRack returns the opening positions for all 16 balls: the cue
// ball behind the head string and a five-row triangle with its apex at
// (2, 0).
func StandardRack() [NumBalls]Vec2 {
	return [NumBalls]Vec2{
		NewVec2(-2.0, 0),
		NewVec2(2.0, 0),
		NewVec2(2.2, -0.115), NewVec2(2.2, 0.115),
		NewVec2(2.4, -0.23), NewVec2(2.4, 0), NewVec2(2.4, 0.23),
		NewVec2(2.6, -0.345), NewVec2(2.6, -0.115), NewVec2(2.6, 0.115), NewVec2(2.6, 0.345),
		NewVec2(2.8, -0.46), NewVec2(2.8, -0.23), NewVec2(2.8, 0), NewVec2(2.8, 0.23), NewVec2(2.8, 0.46),
	}
}

// StandardBodies racks all 16 balls.
func StandardBodies() []*Body {
	rack := StandardRack()
	bodies := make([]*Body, NumBalls)
	for i, pos := range rack {
		bodies[i] = NewBody(i, pos.X, pos.Z)
	}
	return bodies
}

// NewStandardWorld builds a racked table with 16 balls, 4 rails and 6
// pockets and a shot controller ready to aim.
func NewStandardWorld() *World {
	return NewWorld(StandardBodies(), StandardBoundaries(), StandardPockets())
}
