package controllers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ambro01/simple-calories-sub000/services"
)

// respondError maps service-layer errors onto HTTP statuses. Unrecognized
// errors are logged with the operation name and surfaced as an opaque 500;
// user input never reaches the log.
func respondError(c *gin.Context, operation string, err error) {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": validationErr.Message,
			"field": validationErr.Field,
		})
		return
	}

	var rateErr *services.RateLimitedError
	if errors.As(err, &rateErr) {
		c.Header("Retry-After", fmt.Sprintf("%d", int(rateErr.RetryAfter.Seconds())+1))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": rateErr.Error()})
		return
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, services.ErrGoalConflict),
		errors.Is(err, services.ErrGoalImmutable),
		errors.Is(err, services.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrEstimationNotReady),
		errors.Is(err, services.ErrEstimationInUse):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		log.Printf("%s: %v", operation, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
