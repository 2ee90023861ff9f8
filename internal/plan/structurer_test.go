package plan

import (
	"encoding/json"
	"testing"

	"github.com/Rrens/dietplan/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTargets() domain.NutritionTargets {
	return domain.NutritionTargets{
		BMR: 1830, TotalCalories: 2537,
		ProteinG: 222, CarbsG: 190, FatsG: 99,
		ProteinKcal: 888, CarbsKcal: 760, FatsKcal: 891,
	}
}

func testProfile(locale domain.Locale) domain.ClientProfile {
	return domain.ClientProfile{
		ID:       uuid.New(),
		Age:      30,
		Sex:      domain.SexMale,
		HeightCM: 175,
		WeightKG: 80,
		Goal:     domain.GoalWeightLoss,
		Locale:   locale,
	}
}

func successResult(payload string) *domain.GenerationResult {
	return &domain.GenerationResult{
		ID:       uuid.New(),
		ClientID: uuid.New(),
		Success:  true,
		RawJSON:  json.RawMessage(payload),
	}
}

func TestStructure_FullDocument(t *testing.T) {
	payload := `{
		"overview": {
			"duration": "30 days",
			"total_calories": 2500,
			"macros": {"protein_g": 220, "carbs_g": 190, "fats_g": 98},
			"goals": ["Lose fat", "Sleep better"],
			"client_summary": "Busy engineer"
		},
		"weeks": [{
			"week_number": 1,
			"theme": "Foundations",
			"days": [{
				"day_number": 1,
				"meals": [
					{"type": "breakfast", "name": "Oats", "calories": 400,
					 "ingredients": [{"item": "oats", "quantity": "60 g", "calories": 230}],
					 "macros": {"protein_g": 20, "carbs_g": 60, "fats_g": 8},
					 "timing": "07:00", "tips": ["Add cinnamon"]},
					{"type": "lunch", "name": "Chicken bowl", "calories": 650}
				],
				"total_calories": 9999,
				"water_intake": "3 L",
				"exercise": "30 min walk"
			}]
		}],
		"recommendations": {"supplements": ["Vitamin D"], "tips": ["Meal prep"], "warnings": []}
	}`
	result := successResult(payload)

	plan, err := Structure(result, testTargets(), testProfile(domain.LocaleEN))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusDraft, plan.Status)
	assert.Equal(t, 1, plan.Version)
	assert.Equal(t, result.ClientID, plan.ClientID)
	require.NotNil(t, plan.GenerationLogID)
	assert.Equal(t, result.ID, *plan.GenerationLogID)

	assert.Equal(t, 2500, plan.Overview.TotalCalories)
	assert.Equal(t, []string{"Lose fat", "Sleep better"}, plan.Overview.Goals)
	assert.Equal(t, "Busy engineer", plan.Overview.ClientSummary)

	require.Len(t, plan.Weeks, 1)
	day := plan.Weeks[0].Days[0]
	assert.Equal(t, 1050, day.TotalCalories)
	assert.Equal(t, "3 L", day.WaterIntake)
	assert.Equal(t, "30 min walk", day.Exercise)
	assert.Equal(t, domain.MealBreakfast, day.Meals[0].Type)
	assert.Equal(t, "60 g", day.Meals[0].Ingredients[0].Quantity)
	assert.Equal(t, 20, day.Meals[0].Macros.ProteinG)
	assert.Equal(t, []string{"Vitamin D"}, plan.Recommendations.Supplements)
	assert.Equal(t, []string{}, plan.Recommendations.Warnings)
}

func TestStructure_DayTotalsAlwaysRecomputed(t *testing.T) {
	payload := `{"weeks": [
		{"week_number": 1, "days": [
			{"day_number": 1, "total_calories": 100, "meals": [{"calories": 500}, {"calories": "300 kcal"}]},
			{"day_number": 2, "total_calories": 5000, "meals": [
				{"ingredients": [{"item": "rice", "calories": 200}, {"item": "beans", "calories": 150}]},
				{"calories": 420}
			]},
			{"day_number": 3, "meals": []}
		]}
	]}`

	plan, err := Structure(successResult(payload), testTargets(), testProfile(domain.LocaleEN))
	require.NoError(t, err)

	for _, w := range plan.Weeks {
		for _, d := range w.Days {
			sum := 0
			for _, m := range d.Meals {
				sum += m.Calories
			}
			assert.Equal(t, sum, d.TotalCalories, "day %d", d.DayNumber)
		}
	}
	days := plan.Weeks[0].Days
	assert.Equal(t, 800, days[0].TotalCalories)
	assert.Equal(t, 770, days[1].TotalCalories)
	assert.Equal(t, 0, days[2].TotalCalories)
}

func TestStructure_MissingWeeks(t *testing.T) {
	plan, err := Structure(successResult(`{"overview": {"duration": "30 days"}}`), testTargets(), testProfile(domain.LocaleEN))

	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, plan.Status)
	assert.NotNil(t, plan.Weeks)
	assert.Empty(t, plan.Weeks)
}

func TestStructure_EmptyObjectUsesDefaults(t *testing.T) {
	targets := testTargets()
	plan, err := Structure(successResult(`{}`), targets, testProfile(domain.LocalePT))

	require.NoError(t, err)
	assert.Equal(t, "30 dias", plan.Overview.Duration)
	assert.Equal(t, targets.TotalCalories, plan.Overview.TotalCalories)
	assert.Equal(t, domain.Macros{ProteinG: 222, CarbsG: 190, FatsG: 99}, plan.Overview.Macros)
	require.Len(t, plan.Overview.Goals, 1)
	assert.Contains(t, plan.Overview.Goals[0], "gordura")
	assert.Contains(t, plan.Overview.ClientSummary, "2537 kcal")
	assert.Equal(t, []string{}, plan.Recommendations.Supplements)
	assert.Equal(t, []string{}, plan.Recommendations.Tips)
}

func TestStructure_WrongTypesAreDefaulted(t *testing.T) {
	payload := `{
		"overview": {"total_calories": "lots", "goals": "just one", "macros": [1,2,3]},
		"weeks": "none",
		"recommendations": {"tips": [1, "Drink water", null]}
	}`

	plan, err := Structure(successResult(payload), testTargets(), testProfile(domain.LocaleEN))

	require.NoError(t, err)
	assert.Equal(t, 2537, plan.Overview.TotalCalories)
	assert.Equal(t, []string{"just one"}, plan.Overview.Goals)
	assert.Equal(t, 222, plan.Overview.Macros.ProteinG)
	assert.Empty(t, plan.Weeks)
	assert.Equal(t, []string{"Drink water"}, plan.Recommendations.Tips)
}

func TestStructure_WeeksOrderedWithoutGaps(t *testing.T) {
	payload := `{"weeks": [
		{"week_number": 4, "theme": "D"},
		{"week_number": 1, "theme": "A"},
		"garbage",
		{"week_number": 2, "theme": "B"}
	]}`

	plan, err := Structure(successResult(payload), testTargets(), testProfile(domain.LocaleEN))
	require.NoError(t, err)

	require.Len(t, plan.Weeks, 3)
	for i, w := range plan.Weeks {
		assert.Equal(t, i+1, w.WeekNumber)
	}
	assert.Equal(t, "A", plan.Weeks[0].Theme)
	assert.Equal(t, "B", plan.Weeks[1].Theme)
	assert.Equal(t, "D", plan.Weeks[2].Theme)
}

func TestStructure_DaysSortedAndMealTypesCanonical(t *testing.T) {
	payload := `{"weeks": [{"days": [
		{"day_number": 3, "meals": [{"type": "Café da manhã"}, {"type": "Almoço"}, {"type": "ceia"}]},
		{"day_number": 2, "meals": [{"type": "brunch"}, {"type": "??"}, {}]}
	]}]}`

	plan, err := Structure(successResult(payload), testTargets(), testProfile(domain.LocalePT))
	require.NoError(t, err)

	days := plan.Weeks[0].Days
	assert.Equal(t, 2, days[0].DayNumber)
	assert.Equal(t, 3, days[1].DayNumber)

	assert.Equal(t, []domain.MealType{domain.MealBreakfast, domain.MealLunch, domain.MealEveningSnack},
		mealTypes(days[1].Meals))
	// unknown types take the slot of their position
	assert.Equal(t, []domain.MealType{domain.MealBreakfast, domain.MealMorningSnack, domain.MealLunch},
		mealTypes(days[0].Meals))
	assert.Equal(t, "Almoço", days[0].Meals[2].Name)
	assert.Equal(t, "Semana 1", plan.Weeks[0].Theme)
	assert.Equal(t, "2.8 L", days[0].WaterIntake)

	valid := map[domain.MealType]bool{}
	for _, s := range domain.MealSlots {
		valid[s] = true
	}
	for _, d := range days {
		for _, m := range d.Meals {
			assert.True(t, valid[m.Type], m.Type)
		}
	}
}

func TestStructure_NestedPlanObject(t *testing.T) {
	payload := `{"diet_plan": {"weeks": [{"week_number": 1, "days": []}]}}`

	plan, err := Structure(successResult(payload), testTargets(), testProfile(domain.LocaleEN))

	require.NoError(t, err)
	assert.Len(t, plan.Weeks, 1)
}

func TestStructure_NonObjectTopLevel(t *testing.T) {
	for _, payload := range []string{`[{"weeks": []}]`, `"a plan"`, `42`, `null`, `true`} {
		t.Run(payload, func(t *testing.T) {
			plan, err := Structure(successResult(payload), testTargets(), testProfile(domain.LocaleEN))

			assert.Nil(t, plan)
			assert.ErrorIs(t, err, domain.ErrInvalidGenerationOutput)
		})
	}
}

func TestStructure_UnsuccessfulResult(t *testing.T) {
	msg := "boom"
	_, err := Structure(&domain.GenerationResult{ErrorMessage: &msg}, testTargets(), testProfile(domain.LocaleEN))

	assert.ErrorIs(t, err, domain.ErrInvalidGenerationOutput)
}

func mealTypes(meals []domain.Meal) []domain.MealType {
	out := make([]domain.MealType, len(meals))
	for i, m := range meals {
		out[i] = m.Type
	}
	return out
}
