package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// CueTransform returns the world transform of the cue mesh for a
// renderer: a cylinder of CueLength along local z, laid on its side,
// rotated to the aim angle and pulled back behind the ball by the
// standoff plus the current charge.
func (s *ShotController) CueTransform(ball *Body) mgl64.Mat4 {
	pullBack := -ball.Radius - CueStandoff - s.offset

	return mgl64.Translate3D(ball.Position.X, ball.Height, ball.Position.Z).
		Mul4(mgl64.HomogRotate3DY(s.angle)).
		Mul4(mgl64.HomogRotate3DZ(math.Pi / 2)).
		Mul4(mgl64.Translate3D(0, 0, pullBack))
}

// CueTip is the world position of the cue's striking end.
func (s *ShotController) CueTip(ball *Body) mgl64.Vec3 {
	return s.CueTransform(ball).Mul4x1(mgl64.Vec4{0, 0, CueLength / 2, 1}).Vec3()
}
