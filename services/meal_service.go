package services

import (
	"errors"
	"log"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/ambro01/simple-calories-sub000/models"
	"github.com/ambro01/simple-calories-sub000/utils"
)

const (
	maxDescriptionLength = 500
	minMealCalories      = 1
	maxMealCalories      = 10000
	maxMacroGrams        = 1000

	// Allowance for client clocks running slightly ahead.
	clockSkewTolerance = 5 * time.Minute
)

// MealService is the write path of the ledger: it validates input, checks
// AI-estimation links, computes advisory warnings, persists, and pushes the
// affected day's recomputed progress to the realtime hub.
type MealService struct {
	db          *gorm.DB
	estimations *EstimationService
	progress    *ProgressService
	hub         *RealtimeHub
	now         func() time.Time
}

func NewMealService(db *gorm.DB, estimations *EstimationService, progress *ProgressService, hub *RealtimeHub) *MealService {
	return &MealService{
		db:          db,
		estimations: estimations,
		progress:    progress,
		hub:         hub,
		now:         time.Now,
	}
}

type CreateMealInput struct {
	Description  string     `json:"description"`
	Calories     int        `json:"calories"`
	Protein      *float64   `json:"protein"`
	Carbs        *float64   `json:"carbs"`
	Fats         *float64   `json:"fats"`
	Category     *string    `json:"category"`
	InputMethod  string     `json:"input_method"`
	AteAt        time.Time  `json:"ate_at"`
	EstimationID *uint      `json:"estimation_id"`
}

// UpdateMealInput is a patch: nil fields are left untouched.
type UpdateMealInput struct {
	Description *string    `json:"description"`
	Calories    *int       `json:"calories"`
	Protein     *float64   `json:"protein"`
	Carbs       *float64   `json:"carbs"`
	Fats        *float64   `json:"fats"`
	Category    *string    `json:"category"`
	AteAt       *time.Time `json:"ate_at"`
}

// Create logs a meal. AI-sourced meals must reference a completed estimation
// owned by the caller; the estimation link is set once the meal row exists.
// Returned warnings are advisory and never block the write.
func (s *MealService) Create(userID uint, input CreateMealInput) (*models.Meal, []utils.Warning, error) {
	if input.InputMethod == "" {
		input.InputMethod = models.MealInputManual
	}
	if input.InputMethod != models.MealInputManual && input.InputMethod != models.MealInputAI {
		return nil, nil, &ValidationError{Field: "input_method", Message: "must be manual or ai"}
	}

	meal := &models.Meal{
		UserID:       userID,
		Description:  input.Description,
		Calories:     input.Calories,
		Protein:      input.Protein,
		Carbs:        input.Carbs,
		Fats:         input.Fats,
		Category:     input.Category,
		InputMethod:  input.InputMethod,
		AteAt:        input.AteAt,
	}
	if err := s.validate(meal); err != nil {
		return nil, nil, err
	}

	var est *models.Estimation
	if input.InputMethod == models.MealInputAI {
		if input.EstimationID == nil {
			return nil, nil, &ValidationError{Field: "estimation_id", Message: "required for ai meals"}
		}
		var err error
		est, err = s.estimations.Get(userID, *input.EstimationID)
		if err != nil {
			return nil, nil, err
		}
		if est.Status != models.EstimationCompleted {
			return nil, nil, ErrEstimationNotReady
		}
		if est.MealID != nil {
			return nil, nil, ErrEstimationInUse
		}
		meal.EstimationID = &est.ID
	}

	if err := s.db.Create(meal).Error; err != nil {
		return nil, nil, err
	}

	if est != nil {
		if err := s.db.Model(est).Update("meal_id", meal.ID).Error; err != nil {
			return nil, nil, err
		}
	}

	warnings := collectWarnings(meal)
	s.broadcastProgress(userID, meal.AteAt)
	return meal, warnings, nil
}

// Update applies a partial update. When the patch changes any nutritional
// field of a meal whose values came straight from an estimation, the input
// method is forced to ai-edited, overriding anything in the patch.
func (s *MealService) Update(userID, mealID uint, input UpdateMealInput) (*models.Meal, []utils.Warning, error) {
	meal, err := s.Get(userID, mealID)
	if err != nil {
		return nil, nil, err
	}

	reclassify := utils.ShouldReclassify(meal.InputMethod,
		utils.MealFields{
			Description: meal.Description,
			Calories:    meal.Calories,
			Protein:     meal.Protein,
			Carbs:       meal.Carbs,
			Fats:        meal.Fats,
		},
		utils.MealPatch{
			Description: input.Description,
			Calories:    input.Calories,
			Protein:     input.Protein,
			Carbs:       input.Carbs,
			Fats:        input.Fats,
		})

	previousAteAt := meal.AteAt

	if input.Description != nil {
		meal.Description = *input.Description
	}
	if input.Calories != nil {
		meal.Calories = *input.Calories
	}
	if input.Protein != nil {
		meal.Protein = input.Protein
	}
	if input.Carbs != nil {
		meal.Carbs = input.Carbs
	}
	if input.Fats != nil {
		meal.Fats = input.Fats
	}
	if input.Category != nil {
		meal.Category = input.Category
	}
	if input.AteAt != nil {
		meal.AteAt = *input.AteAt
	}
	if reclassify {
		meal.InputMethod = models.MealInputAIEdited
	}

	if err := s.validate(meal); err != nil {
		return nil, nil, err
	}
	if err := s.db.Save(meal).Error; err != nil {
		return nil, nil, err
	}

	warnings := collectWarnings(meal)
	s.broadcastProgress(userID, meal.AteAt)
	if !DateOnly(previousAteAt).Equal(DateOnly(meal.AteAt)) {
		s.broadcastProgress(userID, previousAteAt)
	}
	return meal, warnings, nil
}

// Delete removes a meal permanently. A linked estimation keeps its terminal
// record; only its meal link is cleared.
func (s *MealService) Delete(userID, mealID uint) error {
	meal, err := s.Get(userID, mealID)
	if err != nil {
		return err
	}

	if meal.EstimationID != nil {
		if err := s.db.Model(&models.Estimation{}).
			Where("id = ? AND user_id = ?", *meal.EstimationID, userID).
			Update("meal_id", nil).Error; err != nil {
			return err
		}
	}

	if err := s.db.Unscoped().Delete(meal).Error; err != nil {
		return err
	}
	s.broadcastProgress(userID, meal.AteAt)
	return nil
}

func (s *MealService) Get(userID, mealID uint) (*models.Meal, error) {
	var meal models.Meal
	err := s.db.
		Where("id = ? AND user_id = ?", mealID, userID).
		First(&meal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &meal, nil
}

// List returns the user's meals, newest first, optionally bounded by
// timestamps, with the total row count for pagination.
func (s *MealService) List(userID uint, from, to *time.Time, limit, offset int) ([]models.Meal, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := s.db.Model(&models.Meal{}).Where("user_id = ?", userID)
	if from != nil {
		q = q.Where("ate_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("ate_at < ?", *to)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var meals []models.Meal
	err := q.
		Order("ate_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&meals).Error
	return meals, total, err
}

func (s *MealService) validate(meal *models.Meal) error {
	if meal.Description == "" {
		return &ValidationError{Field: "description", Message: "must not be empty"}
	}
	if utf8.RuneCountInString(meal.Description) > maxDescriptionLength {
		return &ValidationError{Field: "description", Message: "must be at most 500 characters"}
	}
	if meal.Calories < minMealCalories || meal.Calories > maxMealCalories {
		return &ValidationError{Field: "calories", Message: "must be between 1 and 10000"}
	}
	for field, v := range map[string]*float64{
		"protein": meal.Protein,
		"carbs":   meal.Carbs,
		"fats":    meal.Fats,
	} {
		if v != nil && (*v < 0 || *v > maxMacroGrams) {
			return &ValidationError{Field: field, Message: "must be between 0 and 1000"}
		}
	}
	if meal.Category != nil && !validCategory(*meal.Category) {
		return &ValidationError{Field: "category", Message: "must be one of breakfast, lunch, dinner, snack, other"}
	}
	if meal.AteAt.IsZero() {
		return &ValidationError{Field: "ate_at", Message: "must be provided"}
	}
	if meal.AteAt.After(s.now().Add(clockSkewTolerance)) {
		return &ValidationError{Field: "ate_at", Message: "must not be in the future"}
	}
	return nil
}

func validCategory(category string) bool {
	for _, c := range models.MealCategories {
		if c == category {
			return true
		}
	}
	return false
}

func collectWarnings(meal *models.Meal) []utils.Warning {
	warnings := []utils.Warning{}
	if w := utils.ConsistencyWarning(meal.Calories, meal.Protein, meal.Carbs, meal.Fats); w != nil {
		warnings = append(warnings, *w)
	}
	return warnings
}

func (s *MealService) broadcastProgress(userID uint, ateAt time.Time) {
	if s.hub == nil || s.progress == nil {
		return
	}
	progress, err := s.progress.GetByDate(userID, ateAt)
	if err != nil {
		log.Printf("failed to recompute progress for broadcast: %v", err)
		return
	}
	s.hub.BroadcastProgress(userID, progress)
}
