package models

import (
	"time"

	"gorm.io/gorm"
)

// Applied when a user has never set a goal.
const DefaultDailyGoal = 2000

// CalorieGoal is one entry in a user's historized goal timeline. Rows are
// append-only by convention: once EffectiveDate is today or earlier the goal
// may already have been used to compute a progress summary and must not be
// edited. The (user_id, effective_date) uniqueness is the source of truth for
// conflict detection on create.
type CalorieGoal struct {
	gorm.Model
	UserID        uint      `gorm:"uniqueIndex:idx_goal_user_effective;not null" json:"user_id"`
	DailyGoal     int       `gorm:"not null" json:"daily_goal"`
	EffectiveDate time.Time `gorm:"uniqueIndex:idx_goal_user_effective;not null" json:"effective_date"`
}
