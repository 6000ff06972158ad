package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambro01/simple-calories-sub000/models"
)

type fakeEstimator struct {
	result *NutritionEstimate
	err    error
	calls  int
}

func (f *fakeEstimator) EstimateNutrition(ctx context.Context, prompt string) (*NutritionEstimate, error) {
	f.calls++
	return f.result, f.err
}

func (f *fakeEstimator) ModelName() string { return "fake-model" }

func newEstimationFixture(t *testing.T, fake *fakeEstimator) *EstimationService {
	db := setupTestDB(t)
	limiter := NewRateLimiter(EstimationRateLimit, EstimationRateWindow)
	limiter.Stop()
	t.Cleanup(limiter.Stop)
	return NewEstimationService(db, fake, limiter)
}

func TestCreateEstimationCompleted(t *testing.T) {
	fake := &fakeEstimator{result: &NutritionEstimate{
		Calories:    520,
		Protein:     32,
		Carbs:       48,
		Fats:        18,
		Assumptions: "assumed a 300g portion",
	}}
	svc := newEstimationFixture(t, fake)

	est, err := svc.Create(context.Background(), 1, "grilled chicken with rice")
	require.NoError(t, err)

	assert.Equal(t, models.EstimationCompleted, est.Status)
	require.NotNil(t, est.Calories)
	assert.Equal(t, 520, *est.Calories)
	require.NotNil(t, est.Protein)
	assert.Equal(t, 32.0, *est.Protein)
	require.NotNil(t, est.Carbs)
	require.NotNil(t, est.Fats)
	require.NotNil(t, est.Assumptions)
	assert.Equal(t, "assumed a 300g portion", *est.Assumptions)
	assert.Nil(t, est.ErrorMessage)
	assert.Equal(t, "fake-model", est.AIModel)
	assert.Equal(t, 1, fake.calls)

	// terminal state is persisted
	stored, err := svc.Get(1, est.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EstimationCompleted, stored.Status)
}

func TestCreateEstimationModelRefusal(t *testing.T) {
	fake := &fakeEstimator{result: &NutritionEstimate{Refusal: "too vague"}}
	svc := newEstimationFixture(t, fake)

	est, err := svc.Create(context.Background(), 1, "some food")
	require.NoError(t, err, "a failed estimation is still a successful creation")

	assert.Equal(t, models.EstimationFailed, est.Status)
	assert.Nil(t, est.Calories)
	assert.Nil(t, est.Protein)
	assert.Nil(t, est.Carbs)
	assert.Nil(t, est.Fats)
	require.NotNil(t, est.ErrorMessage)
	assert.Equal(t, "too vague", *est.ErrorMessage)
}

func TestCreateEstimationClientError(t *testing.T) {
	fake := &fakeEstimator{err: errors.New("upstream exploded")}
	svc := newEstimationFixture(t, fake)

	est, err := svc.Create(context.Background(), 1, "grilled chicken")
	require.NoError(t, err)

	assert.Equal(t, models.EstimationFailed, est.Status)
	require.NotNil(t, est.ErrorMessage)
	// user-safe message, not the raw upstream error
	assert.NotContains(t, *est.ErrorMessage, "exploded")
}

func TestCreateEstimationRateLimited(t *testing.T) {
	fake := &fakeEstimator{result: &NutritionEstimate{Calories: 100, Protein: 1, Carbs: 1, Fats: 1}}
	db := setupTestDB(t)
	limiter := NewRateLimiter(1, time.Minute)
	limiter.Stop()
	svc := NewEstimationService(db, fake, limiter)

	_, err := svc.Create(context.Background(), 1, "first")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), 1, "second")
	var rateErr *RateLimitedError
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, 1, rateErr.Limit)
	assert.Greater(t, rateErr.RetryAfter, time.Duration(0))
	assert.Equal(t, 1, fake.calls, "rate-limited request must not reach the client")

	// a different user is unaffected
	_, err = svc.Create(context.Background(), 2, "other user")
	assert.NoError(t, err)
}

func TestCreateEstimationValidatesPrompt(t *testing.T) {
	svc := newEstimationFixture(t, &fakeEstimator{})

	_, err := svc.Create(context.Background(), 1, "")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "prompt", vErr.Field)
}

func TestCreateEstimationPromptLimitCountsRunes(t *testing.T) {
	fake := &fakeEstimator{result: &NutritionEstimate{Calories: 100, Protein: 1, Carbs: 1, Fats: 1}}
	svc := newEstimationFixture(t, fake)

	// two-byte runes: exactly at the character limit despite twice the bytes
	_, err := svc.Create(context.Background(), 1, strings.Repeat("é", maxPromptLength))
	assert.NoError(t, err)

	_, err = svc.Create(context.Background(), 1, strings.Repeat("é", maxPromptLength+1))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "prompt", vErr.Field)
}

func TestGetEstimationIsOwnerScoped(t *testing.T) {
	fake := &fakeEstimator{result: &NutritionEstimate{Calories: 100, Protein: 1, Carbs: 1, Fats: 1}}
	svc := newEstimationFixture(t, fake)

	est, err := svc.Create(context.Background(), 1, "meal")
	require.NoError(t, err)

	_, err = svc.Get(2, est.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Get(1, est.ID+100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListEstimationsNewestFirst(t *testing.T) {
	fake := &fakeEstimator{result: &NutritionEstimate{Calories: 100, Protein: 1, Carbs: 1, Fats: 1}}
	svc := newEstimationFixture(t, fake)

	first, err := svc.Create(context.Background(), 1, "first")
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), 1, "second")
	require.NoError(t, err)

	ests, err := svc.List(1, 10, 0)
	require.NoError(t, err)
	require.Len(t, ests, 2)
	assert.Equal(t, second.ID, ests[0].ID)
	assert.Equal(t, first.ID, ests[1].ID)
}
