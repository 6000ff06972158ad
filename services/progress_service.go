package services

import (
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/ambro01/simple-calories-sub000/models"
)

// Calories either side of the goal that still count as on track.
const statusTolerance = 100

// Days covered by a range query when the caller gives no bounds.
const defaultRangeDays = 30

// ProgressService computes daily progress summaries. Summaries are derived
// on every read from meal rows plus the resolved goal; nothing is cached, so
// a meal write is visible in the very next progress read.
type ProgressService struct {
	db    *gorm.DB
	goals *GoalService
	now   func() time.Time
}

func NewProgressService(db *gorm.DB, goals *GoalService) *ProgressService {
	return &ProgressService{db: db, goals: goals, now: time.Now}
}

// GetByDate returns the summary for one day. A day without meals yields a
// zero-totals summary against the resolved goal, never a not-found.
func (s *ProgressService) GetByDate(userID uint, date time.Time) (*models.DailyProgress, error) {
	day := DateOnly(date)

	meals, err := s.mealsBetween(userID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	goal, err := s.goals.Resolve(userID, day)
	if err != nil {
		return nil, err
	}

	progress := s.summarize(userID, day, meals, goal)
	return &progress, nil
}

// GetRange returns one summary per day, newest first, with offset/limit
// pagination over the day list. Absent bounds default to the last 30 days
// ending today. The second return value is the total number of days in the
// range.
func (s *ProgressService) GetRange(userID uint, from, to *time.Time, limit, offset int) ([]models.DailyProgress, int, error) {
	end := DateOnly(s.now())
	if to != nil {
		end = DateOnly(*to)
	}
	start := end.AddDate(0, 0, -(defaultRangeDays - 1))
	if from != nil {
		start = DateOnly(*from)
	}
	if start.After(end) {
		return nil, 0, &ValidationError{Field: "from", Message: "must not be after 'to'"}
	}

	if limit <= 0 {
		limit = defaultRangeDays
	}
	if offset < 0 {
		offset = 0
	}

	total := int(end.Sub(start).Hours()/24) + 1

	// One query for the whole range, grouped into days in memory.
	meals, err := s.mealsBetween(userID, start, end.AddDate(0, 0, 1))
	if err != nil {
		return nil, 0, err
	}
	byDay := make(map[time.Time][]models.Meal)
	for _, m := range meals {
		day := DateOnly(m.AteAt)
		byDay[day] = append(byDay[day], m)
	}

	out := make([]models.DailyProgress, 0, limit)
	for i := offset; i < total && len(out) < limit; i++ {
		day := end.AddDate(0, 0, -i)
		goal, err := s.goals.Resolve(userID, day)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s.summarize(userID, day, byDay[day], goal))
	}
	return out, total, nil
}

func (s *ProgressService) mealsBetween(userID uint, from, to time.Time) ([]models.Meal, error) {
	var meals []models.Meal
	err := s.db.
		Where("user_id = ? AND ate_at >= ? AND ate_at < ?", userID, from, to).
		Find(&meals).Error
	return meals, err
}

func (s *ProgressService) summarize(userID uint, day time.Time, meals []models.Meal, goal *models.CalorieGoal) models.DailyProgress {
	progress := models.DailyProgress{
		Date:   day,
		UserID: userID,
		Goal:   goal.DailyGoal,
	}

	for _, m := range meals {
		progress.TotalCalories += m.Calories
		if m.Protein != nil {
			progress.TotalProtein += *m.Protein
		}
		if m.Carbs != nil {
			progress.TotalCarbs += *m.Carbs
		}
		if m.Fats != nil {
			progress.TotalFats += *m.Fats
		}
	}

	if progress.TotalCalories > 0 {
		// Goal is >= 1 by construction, including the synthetic default.
		pct := float64(progress.TotalCalories) / float64(goal.DailyGoal) * 100
		progress.Percentage = math.Round(pct*10) / 10
	}
	progress.Status = statusFor(progress.TotalCalories, goal.DailyGoal)

	return progress
}

func statusFor(totalCalories, goal int) string {
	switch {
	case totalCalories < goal-statusTolerance:
		return models.ProgressUnder
	case totalCalories > goal+statusTolerance:
		return models.ProgressOver
	default:
		return models.ProgressOnTrack
	}
}
