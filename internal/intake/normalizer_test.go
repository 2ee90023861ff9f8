package intake

import (
	"testing"
	"time"

	"github.com/Rrens/dietplan/internal/domain"
	"github.com/stretchr/testify/assert"
)

func fixedNormalizer() *Normalizer {
	return NewNormalizer().WithClock(func() time.Time {
		return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	})
}

func TestNormalize_EnglishAnswers(t *testing.T) {
	raw := map[string]any{
		"Full Name":      "Jane Doe",
		"email":          "jane@example.com",
		"date_of_birth":  "1990-06-01",
		"gender":         "Female",
		"height":         "165 cm",
		"weight":         62.5,
		"main_goal":      "Lose weight",
		"activity_level": "Lightly active",
		"allergies":      []any{"peanuts", "shellfish"},
	}

	p := fixedNormalizer().Normalize(raw, "usa")

	assert.Equal(t, "Jane Doe", p.Name)
	assert.Equal(t, "jane@example.com", p.Email)
	assert.Equal(t, 36, p.Age)
	assert.Equal(t, domain.SexFemale, p.Sex)
	assert.Equal(t, 165.0, p.HeightCM)
	assert.Equal(t, 62.5, p.WeightKG)
	assert.Equal(t, domain.GoalWeightLoss, p.Goal)
	assert.Equal(t, domain.ActivityLight, p.ActivityLevel)
	assert.Equal(t, domain.LocaleEN, p.Locale)
	assert.Equal(t, "peanuts, shellfish", p.Allergies)
	assert.Equal(t, domain.Unspecified, p.Restrictions)
}

func TestNormalize_PortugueseAnswers(t *testing.T) {
	raw := map[string]any{
		"Nome Completo":       "João Silva",
		"Data de Nascimento":  "05/11/1985",
		"Sexo":                "Masculino",
		"Altura":              "1,80",
		"Peso":                "82,4 kg",
		"Objetivo Principal":  "Ganho de massa muscular",
		"Nível de Atividade":  "Muito ativo",
		"Restrições":          "sem lactose",
		"Tempo para cozinhar": "30 minutos",
	}

	p := fixedNormalizer().Normalize(raw, "br")

	assert.Equal(t, "João Silva", p.Name)
	assert.Equal(t, 41, p.Age)
	assert.Equal(t, domain.SexMale, p.Sex)
	assert.Equal(t, 180.0, p.HeightCM)
	assert.Equal(t, 82.4, p.WeightKG)
	assert.Equal(t, domain.GoalMuscleGain, p.Goal)
	assert.Equal(t, domain.ActivityVeryActive, p.ActivityLevel)
	assert.Equal(t, domain.LocalePT, p.Locale)
	assert.Equal(t, "sem lactose", p.Restrictions)
	assert.Equal(t, "30 minutos", p.CookingTime)
}

func TestNormalize_EmptyRecordUsesDefaults(t *testing.T) {
	p := fixedNormalizer().Normalize(map[string]any{}, "")

	assert.Equal(t, DefaultAge, p.Age)
	assert.Equal(t, DefaultHeightCM, p.HeightCM)
	assert.Equal(t, DefaultWeightKG, p.WeightKG)
	assert.Equal(t, domain.SexFemale, p.Sex)
	assert.Equal(t, domain.GoalGeneralHealth, p.Goal)
	assert.Equal(t, domain.ActivityModerate, p.ActivityLevel)
	assert.Equal(t, domain.LocaleEN, p.Locale)
	for _, v := range []string{
		p.Restrictions, p.Allergies, p.MedicalConditions, p.CurrentDiet,
		p.SleepHours, p.StressLevel, p.Budget, p.CookingTime,
	} {
		assert.Equal(t, domain.Unspecified, v)
	}
}

func TestNormalize_InvalidNumbersFallBack(t *testing.T) {
	raw := map[string]any{
		"height": "tall",
		"weight": -4,
		"age":    "unknown",
	}

	p := fixedNormalizer().Normalize(raw, "usa")

	assert.Equal(t, DefaultHeightCM, p.HeightCM)
	assert.Equal(t, DefaultWeightKG, p.WeightKG)
	assert.Equal(t, DefaultAge, p.Age)
}

func TestNormalize_AgeFallbacks(t *testing.T) {
	tests := []struct {
		name   string
		raw    map[string]any
		locale string
		want   int
	}{
		{"explicit age", map[string]any{"age": "44"}, "usa", 44},
		{"numeric age", map[string]any{"idade": 27.0}, "br", 27},
		{"birth date wins over age", map[string]any{"birth_date": "2000-01-01", "age": 99}, "usa", 26},
		{"us date order", map[string]any{"dob": "12/31/1980"}, "usa", 46},
		{"bare year", map[string]any{"birth_date": "1970"}, "usa", 56},
		{"unparseable birth date falls to age", map[string]any{"birth_date": "someday", "age": 50}, "usa", 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fixedNormalizer().Normalize(tt.raw, tt.locale)
			assert.Equal(t, tt.want, p.Age)
		})
	}
}

func TestNormalize_FirstAliasWins(t *testing.T) {
	raw := map[string]any{
		"weight_kg": "90",
		"peso":      "60",
	}

	p := fixedNormalizer().Normalize(raw, "br")

	assert.Equal(t, 90.0, p.WeightKG)
}

func TestNormalize_BlankValuesAreMissing(t *testing.T) {
	raw := map[string]any{
		"name":      "   ",
		"nome":      "Ana",
		"allergies": "",
	}

	p := fixedNormalizer().Normalize(raw, "br")

	assert.Equal(t, "Ana", p.Name)
	assert.Equal(t, domain.Unspecified, p.Allergies)
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"72", 72, true},
		{"72,5", 72.5, true},
		{"72.5kg", 72.5, true},
		{"180 cm", 180, true},
		{"1.75m", 1.75, true},
		{"", 0, false},
		{"abc", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseNumber(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 0.0001)
			}
		})
	}
}
