package models

import (
	"time"
)

// Daily progress status relative to the resolved goal (±100 kcal band).
const (
	ProgressUnder   = "under"
	ProgressOnTrack = "on_track"
	ProgressOver    = "over"
)

// DailyProgress is a derived read model, recomputed from Meal rows and the
// resolved CalorieGoal on every read. It is never persisted.
type DailyProgress struct {
	Date          time.Time `json:"date"`
	UserID        uint      `json:"-"`
	TotalCalories int       `json:"total_calories"`
	TotalProtein  float64   `json:"total_protein"`
	TotalCarbs    float64   `json:"total_carbs"`
	TotalFats     float64   `json:"total_fats"`
	Goal          int       `json:"goal"`
	Percentage    float64   `json:"percentage"`
	Status        string    `json:"status"`
}
