package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ambro01/simple-calories-sub000/models"
)

const minDailyGoal = 1
const maxDailyGoal = 10000

// GoalService manages the historized calorie goal timeline and resolves the
// goal applicable on a given date.
type GoalService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGoalService(db *gorm.DB) *GoalService {
	return &GoalService{db: db, now: time.Now}
}

// DateOnly truncates t to midnight UTC, which is how effective dates and
// progress dates are stored and compared throughout.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Resolve returns the goal applicable on date: the latest goal effective on
// or before it, else the earliest upcoming goal (a user who set tomorrow's
// goal and asks about today before the rollover should see it), else a
// synthetic default that is never persisted. It never fails for a valid date.
func (s *GoalService) Resolve(userID uint, date time.Time) (*models.CalorieGoal, error) {
	day := DateOnly(date)

	var goal models.CalorieGoal
	err := s.db.
		Where("user_id = ? AND effective_date <= ?", userID, day).
		Order("effective_date DESC").
		First(&goal).Error
	if err == nil {
		return &goal, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = s.db.
		Where("user_id = ? AND effective_date > ?", userID, day).
		Order("effective_date ASC").
		First(&goal).Error
	if err == nil {
		return &goal, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Virtual default; ID stays zero so callers can tell it was never stored.
	return &models.CalorieGoal{
		UserID:        userID,
		DailyGoal:     models.DefaultDailyGoal,
		EffectiveDate: day,
	}, nil
}

// ResolveExact returns the goal whose effective date is exactly the given
// date, or ErrNotFound. The write path uses it to decide between create and
// update for a future date.
func (s *GoalService) ResolveExact(userID uint, date time.Time) (*models.CalorieGoal, error) {
	var goal models.CalorieGoal
	err := s.db.
		Where("user_id = ? AND effective_date = ?", userID, DateOnly(date)).
		First(&goal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

// IsImmutable reports whether the goal is already in effect (effective date
// today or earlier). Immutable goals may back computed summaries and must not
// be edited.
func (s *GoalService) IsImmutable(userID, goalID uint) (bool, error) {
	goal, err := s.get(userID, goalID)
	if err != nil {
		return false, err
	}
	return s.inEffect(goal), nil
}

func (s *GoalService) inEffect(goal *models.CalorieGoal) bool {
	return !goal.EffectiveDate.After(DateOnly(s.now()))
}

// Create inserts a goal effective from the given date, defaulting to
// tomorrow. The store's uniqueness constraint is the source of truth for
// conflicts: an application-level existence check would race, so the
// duplicate-key error is caught and mapped instead.
func (s *GoalService) Create(userID uint, dailyGoal int, effectiveDate *time.Time) (*models.CalorieGoal, error) {
	if dailyGoal < minDailyGoal || dailyGoal > maxDailyGoal {
		return nil, &ValidationError{Field: "daily_goal", Message: "must be between 1 and 10000"}
	}

	today := DateOnly(s.now())
	effective := today.AddDate(0, 0, 1)
	if effectiveDate != nil {
		effective = DateOnly(*effectiveDate)
		if !effective.After(today) {
			return nil, &ValidationError{Field: "effective_date", Message: "must be a future date"}
		}
	}

	goal := &models.CalorieGoal{
		UserID:        userID,
		DailyGoal:     dailyGoal,
		EffectiveDate: effective,
	}
	if err := s.db.Create(goal).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrGoalConflict
		}
		return nil, err
	}
	return goal, nil
}

// Update changes the numeric goal of a still-future entry. The effective
// date is never changed. Immutability is a business rule enforced here, not
// a storage constraint, so the check and the write are both owner-scoped.
func (s *GoalService) Update(userID, goalID uint, dailyGoal int) (*models.CalorieGoal, error) {
	if dailyGoal < minDailyGoal || dailyGoal > maxDailyGoal {
		return nil, &ValidationError{Field: "daily_goal", Message: "must be between 1 and 10000"}
	}

	goal, err := s.get(userID, goalID)
	if err != nil {
		return nil, err
	}
	if s.inEffect(goal) {
		return nil, ErrGoalImmutable
	}

	goal.DailyGoal = dailyGoal
	if err := s.db.Save(goal).Error; err != nil {
		return nil, err
	}
	return goal, nil
}

// Delete removes a goal entry. Past summaries are recomputed from the meal
// rows and whatever goals remain, so deletion never rewrites history that was
// already served; it only changes what future reads resolve to.
func (s *GoalService) Delete(userID, goalID uint) error {
	// Hard delete so the (user_id, effective_date) slot frees up for a
	// future goal on the same date.
	res := s.db.Unscoped().
		Where("id = ? AND user_id = ?", goalID, userID).
		Delete(&models.CalorieGoal{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns the user's goal timeline, newest effective date first.
func (s *GoalService) List(userID uint) ([]models.CalorieGoal, error) {
	var goals []models.CalorieGoal
	err := s.db.
		Where("user_id = ?", userID).
		Order("effective_date DESC").
		Find(&goals).Error
	return goals, err
}

func (s *GoalService) get(userID, goalID uint) (*models.CalorieGoal, error) {
	var goal models.CalorieGoal
	err := s.db.
		Where("id = ? AND user_id = ?", goalID, userID).
		First(&goal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &goal, nil
}
