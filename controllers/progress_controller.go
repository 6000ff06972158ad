package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ambro01/simple-calories-sub000/services"
)

type ProgressController struct {
	progress *services.ProgressService
}

func NewProgressController(progress *services.ProgressService) *ProgressController {
	return &ProgressController{progress: progress}
}

// GetByDate returns the daily summary for one date (today by default). A day
// with no meals is a zero-totals summary, never a 404.
func (pc *ProgressController) GetByDate(c *gin.Context) {
	uid := c.GetUint("userID")

	date := time.Now()
	if raw := c.Query("date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format. Use YYYY-MM-DD"})
			return
		}
		date = t
	}

	progress, err := pc.progress.GetByDate(uid, date)
	if err != nil {
		respondError(c, "progress.get", err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (pc *ProgressController) List(c *gin.Context) {
	uid := c.GetUint("userID")

	from, to, err := parseRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	days, total, err := pc.progress.GetRange(uid, from, to, limit, offset)
	if err != nil {
		respondError(c, "progress.list", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days, "total": total})
}
