package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fieldserve/tool-custody/internal/httperr"
)

// parseIDParam reads a numeric path parameter, writing the error response
// itself on failure.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		httperr.BadRequest(c, "invalid_id", "Invalid id parameter.")
		return 0, false
	}
	return uint(id), true
}
