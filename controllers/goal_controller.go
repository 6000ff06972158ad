package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ambro01/simple-calories-sub000/services"
)

type GoalController struct {
	goals *services.GoalService
}

func NewGoalController(goals *services.GoalService) *GoalController {
	return &GoalController{goals: goals}
}

func (gc *GoalController) Create(c *gin.Context) {
	uid := c.GetUint("userID")

	var req struct {
		DailyGoal     int     `json:"daily_goal"`
		EffectiveDate *string `json:"effective_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var effective *time.Time
	if req.EffectiveDate != nil {
		t, err := time.Parse("2006-01-02", *req.EffectiveDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid effective_date, use YYYY-MM-DD"})
			return
		}
		effective = &t
	}

	goal, err := gc.goals.Create(uid, req.DailyGoal, effective)
	if err != nil {
		respondError(c, "goals.create", err)
		return
	}
	c.JSON(http.StatusCreated, goal)
}

func (gc *GoalController) Update(c *gin.Context) {
	uid := c.GetUint("userID")
	goalID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid goal id"})
		return
	}

	var req struct {
		DailyGoal int `json:"daily_goal"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	goal, err := gc.goals.Update(uid, goalID, req.DailyGoal)
	if err != nil {
		respondError(c, "goals.update", err)
		return
	}
	c.JSON(http.StatusOK, goal)
}

func (gc *GoalController) Delete(c *gin.Context) {
	uid := c.GetUint("userID")
	goalID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid goal id"})
		return
	}

	if err := gc.goals.Delete(uid, goalID); err != nil {
		respondError(c, "goals.delete", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (gc *GoalController) List(c *gin.Context) {
	uid := c.GetUint("userID")

	goals, err := gc.goals.List(uid)
	if err != nil {
		respondError(c, "goals.list", err)
		return
	}
	c.JSON(http.StatusOK, goals)
}

// Resolve returns the goal applicable on a date (today by default),
// including the synthetic default when the user has no goals at all.
func (gc *GoalController) Resolve(c *gin.Context) {
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

	goal, err := gc.goals.Resolve(uid, date)
	if err != nil {
		respondError(c, "goals.resolve", err)
		return
	}
	c.JSON(http.StatusOK, goal)
}
