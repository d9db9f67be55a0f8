package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/playmatatu/billiards/internal/game"
)

// simulate racks a table, plays one shot at a fixed time step and reports
// where the balls came to rest.
func main() {
	angle := flag.Float64("angle", 0, "cue angle in radians")
	offset := flag.Float64("offset", game.MaxCueOffset, "cue pull-back offset (0..2)")
	fps := flag.Int("fps", 60, "simulation steps per second")
	maxFrames := flag.Int("max-frames", 60*120, "stop after this many frames")
	asJSON := flag.Bool("json", false, "print the final table as JSON")
	flag.Parse()

	if *fps <= 0 {
		log.Fatalf("fps must be positive, got %d", *fps)
	}
	dt := 1.0 / float64(*fps)

	w := game.NewStandardWorld()
	w.Shot.Aim(*angle)
	shot, err := w.Fire(*offset)
	if err != nil {
		log.Fatalf("Failed to fire: %v", err)
	}
	log.Printf("[SIM] Shot angle=%.3f offset=%.2f power=%.2f velocity=(%.3f, %.3f)",
		shot.Angle, shot.Offset, shot.Power, shot.Velocity.X, shot.Velocity.Z)

	frames := w.RunUntilRest(dt, *maxFrames)
	events := w.DrainEvents()

	counts := map[game.EventType]int{}
	for _, e := range events {
		counts[e.Type]++
		if e.Type == game.EventPocket || e.Type == game.EventRespot {
			log.Printf("[SIM] frame %d: %s ball=%d pocket=%d", e.Frame, e.Type, e.BallID, e.TargetID)
		}
	}

	log.Printf("[SIM] Came to rest after %d frames (%.2fs): %d ball hits, %d rail hits, %d pocketed, %d scratches",
		frames, float64(frames)*dt, counts[game.EventBall], counts[game.EventWall], counts[game.EventPocket], counts[game.EventRespot])
	if w.Moving() {
		log.Printf("[SIM] Still moving at the frame limit")
	}
	log.Printf("[SIM] %d balls left on the table", w.VisibleCount())

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]interface{}{
			"shot":   shot,
			"frames": frames,
			"events": events,
			"balls":  w.Bodies,
		}); err != nil {
			log.Fatalf("Failed to encode result: %v", err)
		}
	}
}
