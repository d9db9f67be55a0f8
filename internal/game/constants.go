package game

// Physics and table constants. Units are table units (the table is 9 x 6).

const (
	BallRadius      = 0.15
	DecreaseRate    = 0.998 // friction decay per tick; also wall restitution
	Restitution     = 0.1 + DecreaseRate
	Epsilon         = 0.0001
	TimeScale       = 3.3
	MaxSpeed        = 3.0
	RestThreshold   = 0.05 // per-axis speed below which a ball stops
	MotionThreshold = 0.01 // per-axis speed that counts as moving
	NumBalls        = 16   // 0=cue, 1-15=object balls
	CueBallID       = 0

	PocketRadius = 0.35

	// Shot controller
	MaxShotPower = 5.0
	MaxCueOffset = 2.0
	DragScale    = 0.01 // pointer pixels -> cue offset
	CueStandoff  = 3.0
	CueLength    = 5.0

	// Cue ball re-spot after a scratch
	CueRespotX = 0.0
	CueRespotZ = -2.0

	// frictionWindow converts (1-DecreaseRate)*dt into a per-second decay
	frictionWindow = 400.0
)
