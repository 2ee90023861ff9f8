package plan

import (
	"fmt"

	"github.com/Rrens/dietplan/internal/domain"
)

type localeDefaults struct {
	duration      string
	weekTheme     string
	summaryFormat string
	goals         map[domain.Goal]string
	mealNames     map[domain.MealType]string
}

func (d localeDefaults) summary(p domain.ClientProfile, t domain.NutritionTargets) string {
	return fmt.Sprintf(d.summaryFormat, p.Age, p.WeightKG, p.HeightCM, d.goalLabel(p.Goal), t.TotalCalories)
}

func (d localeDefaults) goalLabel(g domain.Goal) string {
	if label, ok := d.goals[g]; ok {
		return label
	}
	return d.goals[domain.GoalGeneralHealth]
}

var planDefaults = map[domain.Locale]localeDefaults{
	domain.LocaleEN: {
		duration:      "30 days",
		weekTheme:     "Week %d",
		summaryFormat: "%d-year-old client, %.1f kg, %.0f cm. Focus: %s. Daily target of %d kcal.",
		goals: map[domain.Goal]string{
			domain.GoalWeightLoss:    "Lose body fat while preserving lean mass",
			domain.GoalMuscleGain:    "Gain lean muscle mass",
			domain.GoalRecomposition: "Recompose body: lose fat and build muscle",
			domain.GoalGeneralHealth: "Improve overall health and eating habits",
			domain.GoalPerformance:   "Support athletic performance and recovery",
		},
		mealNames: map[domain.MealType]string{
			domain.MealBreakfast:      "Breakfast",
			domain.MealMorningSnack:   "Morning snack",
			domain.MealLunch:          "Lunch",
			domain.MealAfternoonSnack: "Afternoon snack",
			domain.MealDinner:         "Dinner",
			domain.MealEveningSnack:   "Evening snack",
		},
	},
	domain.LocalePT: {
		duration:      "30 dias",
		weekTheme:     "Semana %d",
		summaryFormat: "Cliente de %d anos, %.1f kg, %.0f cm. Foco: %s. Meta diária de %d kcal.",
		goals: map[domain.Goal]string{
			domain.GoalWeightLoss:    "Reduzir gordura corporal preservando massa magra",
			domain.GoalMuscleGain:    "Ganhar massa muscular",
			domain.GoalRecomposition: "Recomposição corporal: perder gordura e ganhar músculo",
			domain.GoalGeneralHealth: "Melhorar a saúde geral e os hábitos alimentares",
			domain.GoalPerformance:   "Apoiar o desempenho esportivo e a recuperação",
		},
		mealNames: map[domain.MealType]string{
			domain.MealBreakfast:      "Café da manhã",
			domain.MealMorningSnack:   "Lanche da manhã",
			domain.MealLunch:          "Almoço",
			domain.MealAfternoonSnack: "Lanche da tarde",
			domain.MealDinner:         "Jantar",
			domain.MealEveningSnack:   "Ceia",
		},
	},
}

func defaultsFor(locale domain.Locale) localeDefaults {
	if d, ok := planDefaults[locale]; ok {
		return d
	}
	return planDefaults[domain.LocaleEN]
}
