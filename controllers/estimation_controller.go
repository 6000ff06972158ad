package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ambro01/simple-calories-sub000/services"
)

type EstimationController struct {
	estimations *services.EstimationService
}

func NewEstimationController(estimations *services.EstimationService) *EstimationController {
	return &EstimationController{estimations: estimations}
}

// Create runs one AI estimation synchronously. A failed estimation still
// returns 201: the record was created, its status tells the story.
func (ec *EstimationController) Create(c *gin.Context) {
	uid := c.GetUint("userID")

	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	est, err := ec.estimations.Create(c.Request.Context(), uid, req.Prompt)
	if err != nil {
		respondError(c, "estimations.create", err)
		return
	}
	c.JSON(http.StatusCreated, est)
}

func (ec *EstimationController) Get(c *gin.Context) {
	uid := c.GetUint("userID")
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid estimation id"})
		return
	}

	est, err := ec.estimations.Get(uid, id)
	if err != nil {
		respondError(c, "estimations.get", err)
		return
	}
	c.JSON(http.StatusOK, est)
}

func (ec *EstimationController) List(c *gin.Context) {
	uid := c.GetUint("userID")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	ests, err := ec.estimations.List(uid, limit, offset)
	if err != nil {
		respondError(c, "estimations.list", err)
		return
	}
	c.JSON(http.StatusOK, ests)
}
