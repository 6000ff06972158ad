package models

import (
	"gorm.io/gorm"
)

// Estimation lifecycle. A record is created pending and makes exactly one
// terminal transition; after that only MealID may still be set, once, when a
// meal successfully references the estimation.
const (
	EstimationPending   = "pending"
	EstimationCompleted = "completed"
	EstimationFailed    = "failed"
)

type Estimation struct {
	gorm.Model
	UserID       uint     `gorm:"index;not null" json:"user_id"`
	Prompt       string   `gorm:"not null" json:"prompt"`
	Status       string   `gorm:"not null;default:pending" json:"status"`
	Calories     *int     `json:"calories"`
	Protein      *float64 `json:"protein"`
	Carbs        *float64 `json:"carbs"`
	Fats         *float64 `json:"fats"`
	Assumptions  *string  `json:"assumptions"`
	ErrorMessage *string  `json:"error_message"`
	AIModel      string   `json:"model"`
	DurationMs   int64    `json:"duration_ms"`
	MealID       *uint    `json:"meal_id"`
}
