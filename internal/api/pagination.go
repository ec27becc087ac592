package api

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ammar1510/inbox/internal/database"
)

// pageFromQuery reads ?limit= and ?offset=. Missing or malformed values fall
// back to the defaults; the repository clamps the limit.
func pageFromQuery(c *gin.Context) database.Page {
	var page database.Page
	if v, err := strconv.Atoi(strings.TrimSpace(c.Query("limit"))); err == nil && v > 0 {
		page.Limit = v
	}
	if v, err := strconv.Atoi(strings.TrimSpace(c.Query("offset"))); err == nil && v >= 0 {
		page.Offset = v
	}
	return page.Normalize()
}
