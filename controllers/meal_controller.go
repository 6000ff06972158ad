package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ambro01/simple-calories-sub000/services"
)

type MealController struct {
	meals *services.MealService
}

func NewMealController(meals *services.MealService) *MealController {
	return &MealController{meals: meals}
}

func (mc *MealController) Create(c *gin.Context) {
	uid := c.GetUint("userID")

	var input services.CreateMealInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	meal, warnings, err := mc.meals.Create(uid, input)
	if err != nil {
		respondError(c, "meals.create", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"meal": meal, "warnings": warnings})
}

func (mc *MealController) Update(c *gin.Context) {
	uid := c.GetUint("userID")
	mealID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meal id"})
		return
	}

	var input services.UpdateMealInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	meal, warnings, err := mc.meals.Update(uid, mealID, input)
	if err != nil {
		respondError(c, "meals.update", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meal": meal, "warnings": warnings})
}

func (mc *MealController) Delete(c *gin.Context) {
	uid := c.GetUint("userID")
	mealID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meal id"})
		return
	}

	if err := mc.meals.Delete(uid, mealID); err != nil {
		respondError(c, "meals.delete", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (mc *MealController) Get(c *gin.Context) {
	uid := c.GetUint("userID")
	mealID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meal id"})
		return
	}

	meal, err := mc.meals.Get(uid, mealID)
	if err != nil {
		respondError(c, "meals.get", err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

func (mc *MealController) List(c *gin.Context) {
	uid := c.GetUint("userID")

	from, to, err := parseRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	meals, total, err := mc.meals.List(uid, from, to, limit, offset)
	if err != nil {
		respondError(c, "meals.list", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meals": meals, "total": total})
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	return uint(id), err
}

// parseRange reads optional from/to query params as YYYY-MM-DD dates. Both
// bounds are inclusive: to is pushed to the next midnight so meals eaten on
// the to day itself still fall inside the half-open window the service uses.
func parseRange(c *gin.Context) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, nil, err
		}
		from = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, nil, err
		}
		t = t.AddDate(0, 0, 1)
		to = &t
	}
	return from, to, nil
}
