package services

import (
	"context"
	"errors"
	"log"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/ambro01/simple-calories-sub000/models"
)

const maxPromptLength = 1000

// Shown to the caller when the upstream call failed after exhausting
// retries. The real error goes to the log, never to the user.
const estimationFailureMessage = "could not generate an estimate, please try again later"

// EstimationService drives one AI estimation request through its
// pending→terminal lifecycle.
type EstimationService struct {
	db      *gorm.DB
	ai      NutritionEstimator
	limiter *RateLimiter
}

func NewEstimationService(db *gorm.DB, ai NutritionEstimator, limiter *RateLimiter) *EstimationService {
	return &EstimationService{db: db, ai: ai, limiter: limiter}
}

// Create runs one estimation synchronously: rate-limit check, pending insert
// (so a crash mid-call still leaves an auditable trace), client call,
// terminal update. A failed estimation is a successful outcome of this
// method; the creation succeeded even though the estimation did not.
func (s *EstimationService) Create(ctx context.Context, userID uint, prompt string) (*models.Estimation, error) {
	if prompt == "" {
		return nil, &ValidationError{Field: "prompt", Message: "must not be empty"}
	}
	if utf8.RuneCountInString(prompt) > maxPromptLength {
		return nil, &ValidationError{Field: "prompt", Message: "must be at most 1000 characters"}
	}

	if res := s.limiter.Allow(userID); !res.Allowed {
		return nil, &RateLimitedError{Limit: res.Limit, RetryAfter: res.RetryAfter}
	}

	est := &models.Estimation{
		UserID:  userID,
		Prompt:  prompt,
		Status:  models.EstimationPending,
		AIModel: s.ai.ModelName(),
	}
	if err := s.db.Create(est).Error; err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := s.ai.EstimateNutrition(ctx, prompt)
	elapsed := time.Since(start).Milliseconds()

	switch {
	case err != nil:
		log.Printf("estimation %d failed: %v", est.ID, err)
		s.markFailed(est, estimationFailureMessage, elapsed)
	case result.Refusal != "":
		s.markFailed(est, result.Refusal, elapsed)
	default:
		est.Status = models.EstimationCompleted
		est.Calories = &result.Calories
		est.Protein = &result.Protein
		est.Carbs = &result.Carbs
		est.Fats = &result.Fats
		if result.Assumptions != "" {
			est.Assumptions = &result.Assumptions
		}
		est.DurationMs = elapsed
		if err := s.db.Save(est).Error; err != nil {
			return nil, err
		}
	}

	return est, nil
}

func (s *EstimationService) markFailed(est *models.Estimation, message string, elapsed int64) {
	est.Status = models.EstimationFailed
	est.ErrorMessage = &message
	est.DurationMs = elapsed
	if err := s.db.Save(est).Error; err != nil {
		log.Printf("failed to persist terminal state of estimation %d: %v", est.ID, err)
	}
}

// Get returns an estimation only to its owner; a foreign or missing id is
// the same not-found.
func (s *EstimationService) Get(userID, id uint) (*models.Estimation, error) {
	var est models.Estimation
	err := s.db.
		Where("id = ? AND user_id = ?", id, userID).
		First(&est).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &est, nil
}

// List returns the user's estimations, newest first.
func (s *EstimationService) List(userID uint, limit, offset int) ([]models.Estimation, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	var ests []models.Estimation
	err := s.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&ests).Error
	return ests, err
}
