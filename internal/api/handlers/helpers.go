package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/billiards/internal/game"
)

// tableErrorStatus maps a game error to an HTTP status
func tableErrorStatus(err error) int {
	switch {
	case errors.Is(err, game.ErrTableNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrTableClosed):
		return http.StatusGone
	case errors.Is(err, game.ErrShotInFlight), errors.Is(err, game.ErrCueBallMissing):
		return http.StatusConflict
	case errors.Is(err, game.ErrTableLimit):
		return http.StatusServiceUnavailable
	case errors.Is(err, game.ErrNegativeDelta):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondTableError(c *gin.Context, err error) {
	c.JSON(tableErrorStatus(err), gin.H{"error": err.Error()})
}

// loadTable resolves the :token path parameter to a live table, writing
// the error response itself when there is none.
func loadTable(c *gin.Context) (*game.TableSession, bool) {
	if game.Manager == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Tables unavailable"})
		return nil, false
	}
	t, err := game.Manager.GetTableByToken(c.Param("token"))
	if err != nil {
		respondTableError(c, game.ErrTableNotFound)
		return nil, false
	}
	if !t.IsActive() {
		respondTableError(c, game.ErrTableClosed)
		return nil, false
	}
	return t, true
}

// pagination reads limit/offset query parameters, capping limit at 200
func pagination(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 {
		limit = 25
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// normalizePhone normalizes phone number to international format (no leading '+')
// Returns digits like: 256700123456
func normalizePhone(phone string) string {
	digits := ""
	for _, char := range phone {
		if char >= '0' && char <= '9' {
			digits += string(char)
		}
	}

	switch {
	case len(digits) == 9 && (digits[0] == '7' || digits[0] == '3'):
		return "256" + digits
	case len(digits) == 10 && digits[0] == '0':
		return "256" + digits[1:]
	case len(digits) == 12 && digits[:3] == "256":
		return digits
	}
	return ""
}
