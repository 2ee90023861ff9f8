package plan

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Rrens/dietplan/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Structure turns a successful generation result into a draft DietPlan.
// It is permissive: missing or mistyped fields are defaulted from targets or
// localized templates. The only refusal is a top level that is not a JSON object.
func Structure(result *domain.GenerationResult, targets domain.NutritionTargets, profile domain.ClientProfile) (*domain.DietPlan, error) {
	if result == nil || !result.Success {
		return nil, fmt.Errorf("%w: generation attempt was not successful", domain.ErrInvalidGenerationOutput)
	}

	var raw any
	if err := json.Unmarshal(result.RawJSON, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidGenerationOutput, err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top level is %s", domain.ErrInvalidGenerationOutput, jsonKind(raw))
	}
	obj = unwrap(obj)

	defaults := defaultsFor(profile.Locale)
	now := time.Now()
	logID := result.ID

	clientID := result.ClientID
	if clientID == uuid.Nil {
		clientID = profile.ID
	}

	plan := &domain.DietPlan{
		ID:              uuid.New(),
		ClientID:        clientID,
		Status:          domain.StatusDraft,
		Version:         1,
		Targets:         targets,
		Overview:        structureOverview(asMap(obj["overview"]), targets, profile, defaults),
		Weeks:           structureWeeks(asSlice(obj["weeks"]), profile, defaults),
		Recommendations: structureRecommendations(asMap(obj["recommendations"])),
		ReviewNotes:     []domain.ReviewNote{},
		GenerationLogID: &logID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	days := 0
	for _, w := range plan.Weeks {
		days += len(w.Days)
	}
	log.Debug().
		Str("plan_id", plan.ID.String()).
		Int("weeks", len(plan.Weeks)).
		Int("days", days).
		Msg("plan structured")

	return plan, nil
}

// unwrap accepts answers nested one level deep, such as {"diet_plan": {...}}
func unwrap(obj map[string]any) map[string]any {
	if _, ok := obj["weeks"]; ok {
		return obj
	}
	if _, ok := obj["overview"]; ok {
		return obj
	}
	for _, key := range []string{"diet_plan", "plan", "meal_plan", "plano"} {
		if inner := asMap(obj[key]); inner != nil {
			return inner
		}
	}
	return obj
}

func structureOverview(ov map[string]any, targets domain.NutritionTargets, profile domain.ClientProfile, d localeDefaults) domain.PlanOverview {
	out := domain.PlanOverview{
		Duration:      stringOr(ov["duration"], d.duration),
		TotalCalories: positiveIntOr(ov["total_calories"], targets.TotalCalories),
		Goals:         stringList(ov["goals"]),
		ClientSummary: stringOr(ov["client_summary"], d.summary(profile, targets)),
	}

	macros := asMap(ov["macros"])
	out.Macros = domain.Macros{
		ProteinG: positiveIntOr(macros["protein_g"], targets.ProteinG),
		CarbsG:   positiveIntOr(macros["carbs_g"], targets.CarbsG),
		FatsG:    positiveIntOr(macros["fats_g"], targets.FatsG),
	}

	if len(out.Goals) == 0 {
		out.Goals = []string{d.goalLabel(profile.Goal)}
	}
	return out
}

func structureWeeks(raw []any, profile domain.ClientProfile, d localeDefaults) []domain.Week {
	type numbered struct {
		key  int
		week domain.Week
	}

	items := make([]numbered, 0, len(raw))
	for i, w := range raw {
		wm := asMap(w)
		if wm == nil {
			continue
		}
		key := positiveIntOr(wm["week_number"], i+1)
		items = append(items, numbered{
			key: key,
			week: domain.Week{
				Theme: stringOr(wm["theme"], fmt.Sprintf(d.weekTheme, key)),
				Days:  structureDays(asSlice(wm["days"]), profile, d),
			},
		})
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].key < items[j].key })

	weeks := make([]domain.Week, len(items))
	for i, it := range items {
		weeks[i] = it.week
		weeks[i].WeekNumber = i + 1
	}
	return weeks
}

func structureDays(raw []any, profile domain.ClientProfile, d localeDefaults) []domain.Day {
	days := make([]domain.Day, 0, len(raw))
	for i, v := range raw {
		dm := asMap(v)
		if dm == nil {
			continue
		}
		day := domain.Day{
			DayNumber:   positiveIntOr(dm["day_number"], i+1),
			Meals:       structureMeals(asSlice(dm["meals"]), d),
			WaterIntake: stringOr(dm["water_intake"], waterIntake(profile.WeightKG)),
			Exercise:    stringOr(dm["exercise"], ""),
		}
		// the model's own daily total is never trusted
		for _, m := range day.Meals {
			day.TotalCalories += m.Calories
		}
		days = append(days, day)
	}
	sort.SliceStable(days, func(i, j int) bool { return days[i].DayNumber < days[j].DayNumber })
	return days
}

func structureMeals(raw []any, d localeDefaults) []domain.Meal {
	meals := make([]domain.Meal, 0, len(raw))
	for _, v := range raw {
		mm := asMap(v)
		if mm == nil {
			continue
		}
		position := len(meals)

		mealType, ok := ParseMealType(stringOr(mm["type"], ""))
		if !ok {
			mealType = domain.MealSlots[position%len(domain.MealSlots)]
		}

		ingredients := structureIngredients(asSlice(mm["ingredients"]))
		calories, ok := toInt(mm["calories"])
		if !ok || calories < 0 {
			calories = 0
			for _, ing := range ingredients {
				calories += ing.Calories
			}
		}

		macros := asMap(mm["macros"])
		meals = append(meals, domain.Meal{
			Type:         mealType,
			Name:         stringOr(mm["name"], d.mealNames[mealType]),
			Ingredients:  ingredients,
			Instructions: stringOr(mm["instructions"], ""),
			Calories:     calories,
			Macros: domain.Macros{
				ProteinG: nonNegativeInt(macros["protein_g"]),
				CarbsG:   nonNegativeInt(macros["carbs_g"]),
				FatsG:    nonNegativeInt(macros["fats_g"]),
			},
			Timing: stringOr(mm["timing"], ""),
			Tips:   stringList(mm["tips"]),
		})
	}
	return meals
}

func structureIngredients(raw []any) []domain.Ingredient {
	out := make([]domain.Ingredient, 0, len(raw))
	for _, v := range raw {
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				out = append(out, domain.Ingredient{Item: s})
			}
		case map[string]any:
			item := stringOr(t["item"], stringOr(t["name"], ""))
			if item == "" {
				continue
			}
			out = append(out, domain.Ingredient{
				Item:     item,
				Quantity: stringOr(t["quantity"], stringOr(t["amount"], "")),
				Calories: nonNegativeInt(t["calories"]),
			})
		}
	}
	return out
}

func structureRecommendations(rec map[string]any) domain.Recommendations {
	return domain.Recommendations{
		Supplements: stringList(rec["supplements"]),
		Tips:        stringList(rec["tips"]),
		Warnings:    stringList(rec["warnings"]),
	}
}

var mealTypeSynonyms = map[string]domain.MealType{
	"breakfast":       domain.MealBreakfast,
	"cafe_da_manha":   domain.MealBreakfast,
	"desjejum":        domain.MealBreakfast,
	"morning_snack":   domain.MealMorningSnack,
	"mid_morning":     domain.MealMorningSnack,
	"lanche_da_manha": domain.MealMorningSnack,
	"colacao":         domain.MealMorningSnack,
	"lunch":           domain.MealLunch,
	"almoco":          domain.MealLunch,
	"afternoon_snack": domain.MealAfternoonSnack,
	"lanche_da_tarde": domain.MealAfternoonSnack,
	"lanche":          domain.MealAfternoonSnack,
	"snack":           domain.MealAfternoonSnack,
	"dinner":          domain.MealDinner,
	"jantar":          domain.MealDinner,
	"supper":          domain.MealDinner,
	"evening_snack":   domain.MealEveningSnack,
	"ceia":            domain.MealEveningSnack,
	"night_snack":     domain.MealEveningSnack,
	"bedtime_snack":   domain.MealEveningSnack,
	"lanche_da_noite": domain.MealEveningSnack,
	"pre_workout":     domain.MealAfternoonSnack,
	"post_workout":    domain.MealEveningSnack,
	"pos_treino":      domain.MealEveningSnack,
	"pre_treino":      domain.MealAfternoonSnack,
}

// ParseMealType maps a model-supplied meal type onto one of the six slots
func ParseMealType(s string) (domain.MealType, bool) {
	key := domain.CanonicalKey(s)
	if key == "" {
		return "", false
	}
	t, ok := mealTypeSynonyms[key]
	return t, ok
}

// 35 ml per kg of body weight, rounded to 0.1 L
func waterIntake(weightKG float64) string {
	if weightKG <= 0 {
		weightKG = 70
	}
	return strconv.FormatFloat(math.Round(weightKG*0.35)/10, 'f', 1, 64) + " L"
}

func jsonKind(v any) string {
	switch v.(type) {
	case []any:
		return "an array"
	case string:
		return "a string"
	case float64:
		return "a number"
	case bool:
		return "a boolean"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
