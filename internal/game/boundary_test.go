package game

import "testing"

func TestVerticalWallReflectsX(t *testing.T) {
	walls := StandardBoundaries()
	right := walls[2]

	b := NewBody(1, 4.4, 0.5)
	b.SetVelocity(1, 0.5)

	if !right.Resolve(b) {
		t.Fatal("expected wall hit")
	}
	if !near(b.Velocity.X, -DecreaseRate) || !near(b.Velocity.Z, 0.5*DecreaseRate) {
		t.Errorf("velocity = %+v", b.Velocity)
	}

	wantX := right.Center.X - right.Width/2 - b.Radius - Epsilon
	if !near(b.Position.X, wantX) || b.Position.Z != 0.5 {
		t.Errorf("position = %+v, want x=%.6f", b.Position, wantX)
	}
}

func TestHorizontalWallReflectsZ(t *testing.T) {
	walls := StandardBoundaries()
	bottom := walls[1]

	b := NewBody(1, 1, -2.9)
	b.SetVelocity(-0.5, -1)

	if !bottom.Resolve(b) {
		t.Fatal("expected wall hit")
	}
	if !near(b.Velocity.X, -0.5*DecreaseRate) || !near(b.Velocity.Z, DecreaseRate) {
		t.Errorf("velocity = %+v", b.Velocity)
	}

	wantZ := bottom.Center.Z + bottom.Depth/2 + b.Radius + Epsilon
	if !near(b.Position.Z, wantZ) || b.Position.X != 1 {
		t.Errorf("position = %+v, want z=%.6f", b.Position, wantZ)
	}
}

func TestWallParksOnCurrentSide(t *testing.T) {
	w := Boundary{Center: NewVec2(0, 0), Width: 0.12, Depth: 2, Orientation: Vertical}

	b := NewBody(1, 0.1, 0)
	b.SetVelocity(-1, 0)
	w.Resolve(b)

	if b.Position.X <= w.Center.X {
		t.Errorf("ball right of centre should stay right, got x=%.4f", b.Position.X)
	}
	if w.Intersects(b) {
		t.Error("ball still touching after resolve")
	}
}

func TestWallMissesOutsideExtent(t *testing.T) {
	walls := StandardBoundaries()

	// past the end of the top rail, inside the corner pocket
	b := NewBody(1, 4.7, 2.95)
	if walls[0].Intersects(b) {
		t.Error("ball beyond the rail's length should not intersect")
	}

	far := NewBody(2, 0, 0)
	for i, w := range walls {
		if w.Intersects(far) {
			t.Errorf("wall %d intersects centre ball", i)
		}
	}
}

func TestWallIgnoresInvisible(t *testing.T) {
	walls := StandardBoundaries()
	b := NewBody(1, 4.4, 0)
	b.Visible = false
	b.Velocity = Vec2{X: 1}

	if walls[2].Resolve(b) {
		t.Error("invisible ball bounced")
	}
	if b.Velocity.X != 1 {
		t.Error("invisible ball velocity changed")
	}
}
