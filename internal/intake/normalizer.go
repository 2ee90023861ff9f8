package intake

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Rrens/dietplan/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	DefaultHeightCM = 170.0
	DefaultWeightKG = 70.0
	DefaultAge      = 30
)

// Ordered source-field aliases per canonical field: English keys first, then Portuguese.
// Keys are compared after domain.CanonicalKey, so accents and case do not matter.
var (
	nameAliases         = []string{"name", "full_name", "client_name", "nome", "nome_completo"}
	emailAliases        = []string{"email", "e_mail", "client_email", "email_address"}
	birthDateAliases    = []string{"birth_date", "date_of_birth", "birthdate", "dob", "data_nascimento", "data_de_nascimento"}
	ageAliases          = []string{"age", "idade"}
	sexAliases          = []string{"sex", "gender", "sexo", "genero"}
	heightAliases       = []string{"height_cm", "height", "altura_cm", "altura"}
	weightAliases       = []string{"weight_kg", "weight", "current_weight", "peso_kg", "peso", "peso_atual"}
	goalAliases         = []string{"goal", "main_goal", "objective", "primary_goal", "objetivo", "objetivo_principal"}
	activityAliases     = []string{"activity_level", "activity", "physical_activity", "nivel_atividade", "nivel_de_atividade", "atividade_fisica"}
	restrictionsAliases = []string{"dietary_restrictions", "restrictions", "food_restrictions", "restricoes_alimentares", "restricoes"}
	allergiesAliases    = []string{"allergies", "food_allergies", "alergias", "alergias_alimentares"}
	medicalAliases      = []string{"medical_conditions", "health_conditions", "conditions", "condicoes_medicas", "condicoes_de_saude", "problemas_de_saude"}
	currentDietAliases  = []string{"current_diet", "eating_habits", "dieta_atual", "alimentacao_atual", "habitos_alimentares"}
	sleepAliases        = []string{"sleep_hours", "sleep", "hours_of_sleep", "horas_sono", "horas_de_sono", "sono"}
	stressAliases       = []string{"stress_level", "stress", "nivel_estresse", "nivel_de_estresse", "estresse"}
	budgetAliases       = []string{"budget", "food_budget", "orcamento", "orcamento_alimentacao"}
	cookingTimeAliases  = []string{"cooking_time", "time_to_cook", "tempo_cozinhar", "tempo_para_cozinhar", "tempo_de_preparo"}
)

// Normalizer maps raw intake answers onto a ClientProfile
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer creates a new intake normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{now: time.Now}
}

// WithClock returns a copy of the normalizer using now as the clock
func (n *Normalizer) WithClock(now func() time.Time) *Normalizer {
	return &Normalizer{now: now}
}

type answers struct {
	values    map[string]any
	defaulted []string
}

// Normalize never fails: every canonical field ends in a usable value, and
// substituted defaults are only logged.
func (n *Normalizer) Normalize(raw map[string]any, formLocale string) domain.ClientProfile {
	a := &answers{values: make(map[string]any, len(raw))}
	for k, v := range raw {
		key := domain.CanonicalKey(k)
		if _, exists := a.values[key]; !exists {
			a.values[key] = v
		}
	}

	locale := domain.LocaleFromForm(formLocale)

	profile := domain.ClientProfile{
		ID:                uuid.New(),
		Name:              a.text("name", nameAliases, ""),
		Email:             a.text("email", emailAliases, ""),
		Locale:            locale,
		Restrictions:      a.text("restrictions", restrictionsAliases, domain.Unspecified),
		Allergies:         a.text("allergies", allergiesAliases, domain.Unspecified),
		MedicalConditions: a.text("medical_conditions", medicalAliases, domain.Unspecified),
		CurrentDiet:       a.text("current_diet", currentDietAliases, domain.Unspecified),
		SleepHours:        a.text("sleep_hours", sleepAliases, domain.Unspecified),
		StressLevel:       a.text("stress_level", stressAliases, domain.Unspecified),
		Budget:            a.text("budget", budgetAliases, domain.Unspecified),
		CookingTime:       a.text("cooking_time", cookingTimeAliases, domain.Unspecified),
		CreatedAt:         n.now(),
	}

	profile.Age = n.age(a, locale)
	profile.HeightCM = a.height()
	profile.WeightKG = a.positive("weight_kg", weightAliases, DefaultWeightKG)

	var ok bool
	if profile.Sex, ok = domain.ParseSex(a.text("sex", sexAliases, "")); !ok {
		a.defaulted = append(a.defaulted, "sex")
	}
	if profile.Goal, ok = domain.ParseGoal(a.text("goal", goalAliases, "")); !ok {
		a.defaulted = append(a.defaulted, "goal")
	}
	if profile.ActivityLevel, ok = domain.ParseActivityLevel(a.text("activity_level", activityAliases, "")); !ok {
		a.defaulted = append(a.defaulted, "activity_level")
	}

	if len(a.defaulted) > 0 {
		log.Debug().
			Str("profile_id", profile.ID.String()).
			Str("form_locale", formLocale).
			Strs("defaulted_fields", a.defaulted).
			Msg("intake fields defaulted")
	}

	return profile
}

func (a *answers) lookup(aliases []string) (any, bool) {
	for _, alias := range aliases {
		v, ok := a.values[alias]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func (a *answers) text(field string, aliases []string, def string) string {
	v, ok := a.lookup(aliases)
	if !ok {
		if def != "" {
			a.defaulted = append(a.defaulted, field)
		}
		return def
	}
	s := stringify(v)
	if s == "" {
		if def != "" {
			a.defaulted = append(a.defaulted, field)
		}
		return def
	}
	return s
}

func (a *answers) number(aliases []string) (float64, bool) {
	v, ok := a.lookup(aliases)
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

func (a *answers) positive(field string, aliases []string, def float64) float64 {
	f, ok := a.number(aliases)
	if !ok || f <= 0 {
		a.defaulted = append(a.defaulted, field)
		return def
	}
	return f
}

func (a *answers) height() float64 {
	h := a.positive("height_cm", heightAliases, DefaultHeightCM)
	// answers such as "1,75" are metres
	if h < 3 {
		h = math.Round(h * 100)
	}
	return h
}

func (n *Normalizer) age(a *answers, locale domain.Locale) int {
	if v, ok := a.lookup(birthDateAliases); ok {
		if year, ok := birthYear(stringify(v), locale); ok {
			age := n.now().Year() - year
			if age > 0 && age < 130 {
				return age
			}
		}
	}
	if f, ok := a.number(ageAliases); ok && f > 0 && f < 130 {
		return int(f)
	}
	a.defaulted = append(a.defaulted, "age")
	return DefaultAge
}

// birthYear extracts the year of a birth date. Only the year matters because
// age is a calendar-year subtraction.
func birthYear(s string, locale domain.Locale) (int, bool) {
	s = strings.TrimSpace(s)
	layouts := []string{time.RFC3339, "2006-01-02", "2006/01/02"}
	if locale == domain.LocalePT {
		layouts = append(layouts, "02/01/2006", "02-01-2006", "02.01.2006")
	} else {
		layouts = append(layouts, "01/02/2006", "01-02-2006", "02/01/2006")
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Year(), true
		}
	}
	if len(s) == 4 {
		if y, err := strconv.Atoi(s); err == nil {
			return y, true
		}
	}
	return 0, false
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := stringify(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(t, ", ")
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		return parseNumber(t)
	}
	return 0, false
}

// parseNumber accepts comma decimals and trailing units such as "72,5 kg"
func parseNumber(s string) (float64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimRight(s, " abcdefghijklmnopqrstuvwxyz.")
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
