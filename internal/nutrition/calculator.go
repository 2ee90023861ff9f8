package nutrition

import (
	"math"

	"github.com/Rrens/dietplan/internal/domain"
)

const (
	kcalPerGramProtein = 4
	kcalPerGramCarbs   = 4
	kcalPerGramFat     = 9

	goalAdjustmentKcal = 300

	// maximum drift between the macro kcal sum and the calorie total
	kcalTolerance = 3
)

// activityMultipliers maps canonical activity levels to their TDEE multiplier
var activityMultipliers = map[domain.ActivityLevel]float64{
	domain.ActivitySedentary:  1.20,
	domain.ActivityLight:      1.375,
	domain.ActivityModerate:   1.55,
	domain.ActivityActive:     1.725,
	domain.ActivityVeryActive: 1.90,
}

type macroRatio struct {
	protein float64
	carbs   float64
	fat     float64
}

var (
	muscleGainRatio = macroRatio{protein: 0.30, carbs: 0.45, fat: 0.25}
	weightLossRatio = macroRatio{protein: 0.35, carbs: 0.30, fat: 0.35}
	defaultRatio    = macroRatio{protein: 0.25, carbs: 0.45, fat: 0.30}
)

// BMR returns the basal metabolic rate in kcal, rounded to the nearest integer
func BMR(p domain.ClientProfile) int {
	age := float64(p.Age)
	var bmr float64
	if p.Sex == domain.SexMale {
		bmr = 88.362 + 13.397*p.WeightKG + 4.799*p.HeightCM - 5.677*age
	} else {
		bmr = 447.593 + 9.247*p.WeightKG + 3.098*p.HeightCM - 4.330*age
	}
	return int(math.Round(bmr))
}

// ActivityMultiplier returns the TDEE multiplier for a free-form or canonical
// activity level. Unrecognized values use the moderate multiplier.
func ActivityMultiplier(level string) float64 {
	canonical, _ := domain.ParseActivityLevel(level)
	if m, ok := activityMultipliers[canonical]; ok {
		return m
	}
	return activityMultipliers[domain.ActivityModerate]
}

// Compute derives daily targets from a normalized profile. It has no error
// path; a profile from the intake normalizer always has positive height and weight.
func Compute(p domain.ClientProfile) domain.NutritionTargets {
	bmr := BMR(p)
	total := int(math.Round(float64(bmr) * ActivityMultiplier(string(p.ActivityLevel))))

	ratio := defaultRatio
	switch p.Goal {
	case domain.GoalWeightLoss:
		total -= goalAdjustmentKcal
		ratio = weightLossRatio
	case domain.GoalMuscleGain:
		total += goalAdjustmentKcal
		ratio = muscleGainRatio
	}

	kcal := float64(total)
	proteinG := int(math.Round(kcal * ratio.protein / kcalPerGramProtein))
	carbsG := int(math.Round(kcal * ratio.carbs / kcalPerGramCarbs))
	fatsG := int(math.Round(kcal * ratio.fat / kcalPerGramFat))

	// Rounding three shares independently can drift a few kcal; carbohydrates absorb it.
	sum := proteinG*kcalPerGramProtein + carbsG*kcalPerGramCarbs + fatsG*kcalPerGramFat
	if abs(sum-total) > kcalTolerance {
		rest := total - proteinG*kcalPerGramProtein - fatsG*kcalPerGramFat
		carbsG = int(math.Round(float64(rest) / kcalPerGramCarbs))
	}

	return domain.NutritionTargets{
		BMR:           bmr,
		TotalCalories: total,
		ProteinG:      proteinG,
		CarbsG:        carbsG,
		FatsG:         fatsG,
		ProteinKcal:   proteinG * kcalPerGramProtein,
		CarbsKcal:     carbsG * kcalPerGramCarbs,
		FatsKcal:      fatsG * kcalPerGramFat,
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
