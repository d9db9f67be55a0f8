package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/billiards/internal/config"
	"github.com/playmatatu/billiards/internal/game"
)

// GetConfig returns the table constants a renderer needs
func GetConfig(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ball_radius":    game.BallRadius,
			"pocket_radius":  game.PocketRadius,
			"num_balls":      game.NumBalls,
			"max_shot_power": game.MaxShotPower,
			"max_cue_offset": game.MaxCueOffset,
			"max_speed":      game.MaxSpeed,
			"time_scale":     game.TimeScale,
			"tick_rate":      cfg.SimTickRate,
			"pockets":        game.StandardPockets(),
			"rails":          game.StandardBoundaries(),
		})
	}
}
