package models

import (
	"time"

	"gorm.io/gorm"
)

// How a meal's nutritional values were produced.
const (
	MealInputManual   = "manual"
	MealInputAI       = "ai"
	MealInputAIEdited = "ai-edited"
)

// Meal categories accepted by the API.
var MealCategories = []string{"breakfast", "lunch", "dinner", "snack", "other"}

// One logged food intake event. Macros are optional; a meal logged with only
// calories is valid. EstimationID links back to the AI generation that
// produced the values (set only for ai / ai-edited meals).
type Meal struct {
	gorm.Model
	UserID       uint      `gorm:"index;not null" json:"user_id"`
	Description  string    `gorm:"not null" json:"description"`
	Calories     int       `gorm:"not null" json:"calories"`
	Protein      *float64  `json:"protein"`
	Carbs        *float64  `json:"carbs"`
	Fats         *float64  `json:"fats"`
	Category     *string   `json:"category"`
	InputMethod  string    `gorm:"not null;default:manual" json:"input_method"`
	AteAt        time.Time `gorm:"index;not null" json:"ate_at"`
	EstimationID *uint     `json:"estimation_id"`
}
