package utils

import (
	"fmt"
	"math"

	"github.com/ambro01/simple-calories-sub000/models"
)

// Kilocalories per gram (Atwater factors).
const (
	kcalPerGramProtein = 4
	kcalPerGramCarbs   = 4
	kcalPerGramFat     = 9
)

// Fraction by which stated calories may deviate from the macro-derived value
// before we flag the meal.
const macroTolerance = 0.05

// Warning is a structured, advisory finding surfaced to the API caller. It
// never blocks a write.
type Warning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// MealFields is the currently stored nutritional state of a meal, as seen by
// the reclassification check.
type MealFields struct {
	Description string
	Calories    int
	Protein     *float64
	Carbs       *float64
	Fats        *float64
}

// MealPatch is a partial update; nil means the field was not supplied.
type MealPatch struct {
	Description *string
	Calories    *int
	Protein     *float64
	Carbs       *float64
	Fats        *float64
}

// CalculateMacroCalories returns the calorie value implied by the given
// macros, rounded to the nearest integer. Absent macros count as zero.
func CalculateMacroCalories(protein, carbs, fats *float64) int {
	var p, c, f float64
	if protein != nil {
		p = *protein
	}
	if carbs != nil {
		c = *carbs
	}
	if fats != nil {
		f = *fats
	}
	return int(math.Round(kcalPerGramProtein*p + kcalPerGramCarbs*c + kcalPerGramFat*f))
}

// ConsistencyWarning checks stated calories against the calories implied by
// the macros. The check only runs when all three macros are present; a meal
// supplying one or two macros is never flagged. Zero-calorie meals with
// nonzero implied calories always warn.
func ConsistencyWarning(calories int, protein, carbs, fats *float64) *Warning {
	if protein == nil || carbs == nil || fats == nil {
		return nil
	}

	calculated := CalculateMacroCalories(protein, carbs, fats)

	if calories == 0 {
		if calculated == 0 {
			return nil
		}
		return &Warning{
			Field: "macronutrients",
			Message: fmt.Sprintf(
				"calories are stated as 0 but the provided macros imply ~%d kcal", calculated),
		}
	}

	diffPct := math.Abs(float64(calories-calculated)) / float64(calories)
	if diffPct <= macroTolerance {
		return nil
	}

	return &Warning{
		Field: "macronutrients",
		Message: fmt.Sprintf(
			"provided macros imply ~%d kcal, which differs from the stated %d kcal by more than 5%%",
			calculated, calories),
	}
}

// ShouldReclassify reports whether applying patch to a meal whose values came
// straight from an AI estimation actually changes any nutritional field. The
// write path forces the input method to ai-edited when this returns true.
// Category and timestamp changes never count.
func ShouldReclassify(inputMethod string, current MealFields, patch MealPatch) bool {
	if inputMethod != models.MealInputAI {
		return false
	}
	if patch.Description != nil && *patch.Description != current.Description {
		return true
	}
	if patch.Calories != nil && *patch.Calories != current.Calories {
		return true
	}
	if floatChanged(current.Protein, patch.Protein) ||
		floatChanged(current.Carbs, patch.Carbs) ||
		floatChanged(current.Fats, patch.Fats) {
		return true
	}
	return false
}

// floatChanged treats a nil→value transition as a change; a nil patch field
// means "not supplied" and never counts.
func floatChanged(current, patched *float64) bool {
	if patched == nil {
		return false
	}
	if current == nil {
		return true
	}
	return *current != *patched
}
