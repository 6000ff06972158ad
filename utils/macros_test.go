package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }
func i(v int) *int         { return &v }
func s(v string) *string   { return &v }

func TestCalculateMacroCalories(t *testing.T) {
	assert.Equal(t, 480, CalculateMacroCalories(f(25), f(50), f(20)))
	assert.Equal(t, 0, CalculateMacroCalories(nil, nil, nil))
	assert.Equal(t, 100, CalculateMacroCalories(f(25), nil, nil))
	// rounds to nearest
	assert.Equal(t, 102, CalculateMacroCalories(f(25.4), nil, nil))
}

func TestConsistencyWarningFlagsLargeDeviation(t *testing.T) {
	w := ConsistencyWarning(650, f(45), f(70), f(15))
	require.NotNil(t, w)
	assert.Equal(t, "macronutrients", w.Field)
	assert.True(t, strings.Contains(w.Message, "595"), "message should contain calculated value: %s", w.Message)
	assert.True(t, strings.Contains(w.Message, "650"), "message should contain provided value: %s", w.Message)
}

func TestConsistencyWarningExactMatch(t *testing.T) {
	assert.Nil(t, ConsistencyWarning(480, f(25), f(50), f(20)))
}

func TestConsistencyWarningWithinTolerance(t *testing.T) {
	// 480 vs 500 is a 4% deviation, under the 5% threshold
	assert.Nil(t, ConsistencyWarning(500, f(25), f(50), f(20)))
}

func TestConsistencyWarningRequiresAllThreeMacros(t *testing.T) {
	assert.Nil(t, ConsistencyWarning(650, f(45), f(70), nil))
	assert.Nil(t, ConsistencyWarning(650, f(45), nil, nil))
	assert.Nil(t, ConsistencyWarning(10, nil, f(500), f(500)))
}

func TestConsistencyWarningZeroCalories(t *testing.T) {
	// 0 stated calories with nonzero implied calories always warns
	w := ConsistencyWarning(0, f(25), f(50), f(20))
	require.NotNil(t, w)
	assert.Contains(t, w.Message, "480")

	assert.Nil(t, ConsistencyWarning(0, f(0), f(0), f(0)))
}

func TestShouldReclassifyNoActualChange(t *testing.T) {
	current := MealFields{Description: "chicken salad", Calories: 420}
	patch := MealPatch{Calories: i(420)}
	assert.False(t, ShouldReclassify("ai", current, patch))
}

func TestShouldReclassifyValueChange(t *testing.T) {
	current := MealFields{Description: "chicken salad", Calories: 420}
	assert.True(t, ShouldReclassify("ai", current, MealPatch{Calories: i(450)}))
	assert.True(t, ShouldReclassify("ai", current, MealPatch{Description: s("chicken wrap")}))
}

func TestShouldReclassifyNullToValue(t *testing.T) {
	current := MealFields{Calories: 420, Protein: nil}
	assert.True(t, ShouldReclassify("ai", current, MealPatch{Protein: f(0)}))
}

func TestShouldReclassifySameMacroValue(t *testing.T) {
	current := MealFields{Calories: 420, Protein: f(30)}
	assert.False(t, ShouldReclassify("ai", current, MealPatch{Protein: f(30)}))
}

func TestShouldReclassifyWrongSourceClassification(t *testing.T) {
	current := MealFields{Calories: 420}
	assert.False(t, ShouldReclassify("manual", current, MealPatch{Calories: i(450)}))
	assert.False(t, ShouldReclassify("ai-edited", current, MealPatch{Calories: i(450)}))
}

func TestShouldReclassifyAbsentFieldsNeverCount(t *testing.T) {
	current := MealFields{Description: "soup", Calories: 420, Protein: f(12)}
	assert.False(t, ShouldReclassify("ai", current, MealPatch{}))
}
