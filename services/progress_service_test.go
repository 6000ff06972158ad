package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambro01/simple-calories-sub000/models"
)

func newProgressFixture(t *testing.T) (*ProgressService, *GoalService) {
	db := setupTestDB(t)
	goals := NewGoalService(db)
	progress := NewProgressService(db, goals)
	return progress, goals
}

func seedMeal(t *testing.T, svc *ProgressService, userID uint, calories int, ateAt time.Time, macros ...float64) {
	t.Helper()
	meal := &models.Meal{
		UserID:      userID,
		Description: "test meal",
		Calories:    calories,
		InputMethod: models.MealInputManual,
		AteAt:       ateAt,
	}
	if len(macros) == 3 {
		meal.Protein = fptr(macros[0])
		meal.Carbs = fptr(macros[1])
		meal.Fats = fptr(macros[2])
	}
	require.NoError(t, svc.db.Create(meal).Error)
}

func TestGetByDateWithNoMeals(t *testing.T) {
	progress, goals := newProgressFixture(t)
	seedGoal(t, goals, 1, 2200, date(2025, 1, 1))

	got, err := progress.GetByDate(1, date(2025, 3, 10))
	require.NoError(t, err)
	assert.Equal(t, 0, got.TotalCalories)
	assert.Equal(t, 0.0, got.Percentage)
	assert.Equal(t, models.ProgressUnder, got.Status)
	assert.Equal(t, 2200, got.Goal)
}

func TestGetByDateWithNoMealsAndNoGoals(t *testing.T) {
	progress, _ := newProgressFixture(t)

	got, err := progress.GetByDate(1, date(2025, 3, 10))
	require.NoError(t, err)
	assert.Equal(t, models.DefaultDailyGoal, got.Goal)
	assert.Equal(t, models.ProgressUnder, got.Status)
}

func TestGetByDateSumsMeals(t *testing.T) {
	progress, goals := newProgressFixture(t)
	seedGoal(t, goals, 1, 2000, date(2025, 1, 1))

	day := date(2025, 3, 10)
	seedMeal(t, progress, 1, 600, day.Add(8*time.Hour), 30, 60, 20)
	seedMeal(t, progress, 1, 900, day.Add(13*time.Hour), 45, 90, 30)
	// other day and other user must not count
	seedMeal(t, progress, 1, 500, day.AddDate(0, 0, 1))
	seedMeal(t, progress, 2, 500, day.Add(9*time.Hour))

	got, err := progress.GetByDate(1, day)
	require.NoError(t, err)
	assert.Equal(t, 1500, got.TotalCalories)
	assert.Equal(t, 75.0, got.TotalProtein)
	assert.Equal(t, 150.0, got.TotalCarbs)
	assert.Equal(t, 50.0, got.TotalFats)
	assert.Equal(t, 75.0, got.Percentage)
}

func TestPercentageRoundsToOneDecimal(t *testing.T) {
	progress, goals := newProgressFixture(t)
	seedGoal(t, goals, 1, 3000, date(2025, 1, 1))

	day := date(2025, 3, 10)
	seedMeal(t, progress, 1, 1000, day.Add(8*time.Hour))

	got, err := progress.GetByDate(1, day)
	require.NoError(t, err)
	assert.Equal(t, 33.3, got.Percentage)
}

func TestStatusBoundaries(t *testing.T) {
	cases := []struct {
		calories int
		want     string
	}{
		{1900, models.ProgressOnTrack}, // goal - 100
		{1899, models.ProgressUnder},   // goal - 101
		{2100, models.ProgressOnTrack}, // goal + 100
		{2101, models.ProgressOver},    // goal + 101
	}

	for _, tc := range cases {
		progress, goals := newProgressFixture(t)
		seedGoal(t, goals, 1, 2000, date(2025, 1, 1))
		day := date(2025, 3, 10)
		seedMeal(t, progress, 1, tc.calories, day.Add(12*time.Hour))

		got, err := progress.GetByDate(1, day)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got.Status, "calories=%d", tc.calories)
	}
}

func TestGetByDateUsesGoalForThatDate(t *testing.T) {
	progress, goals := newProgressFixture(t)
	seedGoal(t, goals, 1, 2000, date(2025, 1, 1))
	seedGoal(t, goals, 1, 2500, date(2025, 1, 15))

	day := date(2025, 1, 10)
	seedMeal(t, progress, 1, 2400, day.Add(12*time.Hour))

	got, err := progress.GetByDate(1, day)
	require.NoError(t, err)
	assert.Equal(t, 2000, got.Goal)
	assert.Equal(t, models.ProgressOver, got.Status)
}

func TestGetRangePaginatesNewestFirst(t *testing.T) {
	progress, goals := newProgressFixture(t)
	seedGoal(t, goals, 1, 2000, date(2025, 1, 1))

	from := date(2025, 3, 1)
	to := date(2025, 3, 10)
	seedMeal(t, progress, 1, 700, date(2025, 3, 9).Add(12*time.Hour))

	days, total, err := progress.GetRange(1, &from, &to, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, 10, total)
	require.Len(t, days, 3)
	assert.Equal(t, date(2025, 3, 10), days[0].Date)
	assert.Equal(t, date(2025, 3, 9), days[1].Date)
	assert.Equal(t, 700, days[1].TotalCalories)
	assert.Equal(t, date(2025, 3, 8), days[2].Date)

	days, total, err = progress.GetRange(1, &from, &to, 3, 8)
	require.NoError(t, err)
	assert.Equal(t, 10, total)
	require.Len(t, days, 2)
	assert.Equal(t, date(2025, 3, 2), days[0].Date)
	assert.Equal(t, date(2025, 3, 1), days[1].Date)
}

func TestGetRangeDefaultsToLast30Days(t *testing.T) {
	progress, _ := newProgressFixture(t)
	progress.now = fixedNow(time.Date(2025, 3, 31, 10, 0, 0, 0, time.UTC))

	days, total, err := progress.GetRange(1, nil, nil, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, 30, total)
	require.Len(t, days, 30)
	assert.Equal(t, date(2025, 3, 31), days[0].Date)
	assert.Equal(t, date(2025, 3, 2), days[29].Date)
}

func TestGetRangeRejectsInvertedBounds(t *testing.T) {
	progress, _ := newProgressFixture(t)

	from := date(2025, 3, 10)
	to := date(2025, 3, 1)
	_, _, err := progress.GetRange(1, &from, &to, 10, 0)
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestProgressReadYourWrites(t *testing.T) {
	progress, goals := newProgressFixture(t)
	seedGoal(t, goals, 1, 2000, date(2025, 1, 1))

	day := date(2025, 3, 10)
	before, err := progress.GetByDate(1, day)
	require.NoError(t, err)
	assert.Equal(t, 0, before.TotalCalories)

	seedMeal(t, progress, 1, 650, day.Add(12*time.Hour))

	after, err := progress.GetByDate(1, day)
	require.NoError(t, err)
	assert.Equal(t, 650, after.TotalCalories)
}
