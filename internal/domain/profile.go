package domain

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Unspecified is the default for free-text intake answers
const Unspecified = "unspecified"

// Locale is the language used for instructions and client-facing text
type Locale string

const (
	LocaleEN Locale = "en"
	LocalePT Locale = "pt"
)

// Sex selects the BMR equation
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// Goal is the client's primary nutrition goal
type Goal string

const (
	GoalWeightLoss    Goal = "weight_loss"
	GoalMuscleGain    Goal = "muscle_gain"
	GoalRecomposition Goal = "recomposition"
	GoalGeneralHealth Goal = "general_health"
	GoalPerformance   Goal = "performance"
)

// ActivityLevel is the client's habitual activity level
type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityLight      ActivityLevel = "light"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "very_active"
)

// ClientProfile is the normalized intake record
type ClientProfile struct {
	ID                uuid.UUID     `json:"id"`
	Name              string        `json:"name"`
	Email             string        `json:"email"`
	Age               int           `json:"age"`
	Sex               Sex           `json:"sex"`
	HeightCM          float64       `json:"height_cm"`
	WeightKG          float64       `json:"weight_kg"`
	Goal              Goal          `json:"goal"`
	ActivityLevel     ActivityLevel `json:"activity_level"`
	Locale            Locale        `json:"locale"`
	Restrictions      string        `json:"restrictions"`
	Allergies         string        `json:"allergies"`
	MedicalConditions string        `json:"medical_conditions"`
	CurrentDiet       string        `json:"current_diet"`
	SleepHours        string        `json:"sleep_hours"`
	StressLevel       string        `json:"stress_level"`
	Budget            string        `json:"budget"`
	CookingTime       string        `json:"cooking_time"`
	CreatedAt         time.Time     `json:"created_at"`
}

// ClientProfileRepository defines the interface for client profile storage
type ClientProfileRepository interface {
	Create(ctx context.Context, profile *ClientProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*ClientProfile, error)
}

// IntakeSubmission is the payload delivered by the questionnaire collaborator
type IntakeSubmission struct {
	FormLocale string         `json:"form_locale" validate:"omitempty,max=16"`
	Answers    map[string]any `json:"answers" validate:"required"`
}

var (
	lossKeywords = []string{
		"weight_loss", "lose_weight", "fat_loss", "lose_fat", "burn_fat", "emagre", "perder_peso",
		"perda_de_peso", "perder_gordura", "reduzir_gordura", "queimar_gordura", "definicao",
	}
	gainKeywords = []string{
		"muscle_gain", "gain_muscle", "build_muscle", "hipertrofia", "ganho_de_massa", "ganhar_massa",
		"ganhar_musculo", "massa_muscular", "bulk", "hypertrophy",
	}
)

var goalSynonyms = []struct {
	goal     Goal
	keywords []string
}{
	{GoalRecomposition, []string{"recomposition", "recomposicao", "recomp"}},
	{GoalWeightLoss, lossKeywords},
	{GoalMuscleGain, gainKeywords},
	{GoalPerformance, []string{"performance", "desempenho", "rendimento", "athletic"}},
	{GoalGeneralHealth, []string{"general_health", "health", "saude", "maintenance", "manutencao", "wellness", "bem_estar"}},
}

// ParseGoal maps a free-form goal answer onto the goal enumeration
func ParseGoal(s string) (Goal, bool) {
	key := CanonicalKey(s)
	if key == "" {
		return GoalGeneralHealth, false
	}
	// losing fat while gaining muscle is recomposition
	if containsAny(key, lossKeywords) && containsAny(key, gainKeywords) {
		return GoalRecomposition, true
	}
	for _, g := range goalSynonyms {
		if containsAny(key, g.keywords) {
			return g.goal, true
		}
	}
	return GoalGeneralHealth, false
}

func containsAny(key string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(key, kw) {
			return true
		}
	}
	return false
}

// very_active is checked before active so "muito ativo" does not collapse to active
var activitySynonyms = []struct {
	level    ActivityLevel
	keywords []string
}{
	{ActivityVeryActive, []string{"very_active", "muito_ativo", "extremely_active", "extremamente_ativo", "atleta", "athlete", "intenso", "intense"}},
	{ActivitySedentary, []string{"sedentary", "sedentario", "inactive", "inativo"}},
	{ActivityLight, []string{"light", "leve", "levemente", "pouco_ativo"}},
	{ActivityModerate, []string{"moderate", "moderad"}},
	{ActivityActive, []string{"active", "ativo"}},
}

// ParseActivityLevel maps a free-form activity answer onto the activity enumeration.
// Unrecognized values return moderate and false.
func ParseActivityLevel(s string) (ActivityLevel, bool) {
	key := CanonicalKey(s)
	if key == "" {
		return ActivityModerate, false
	}
	for _, a := range activitySynonyms {
		for _, kw := range a.keywords {
			if strings.Contains(key, kw) {
				return a.level, true
			}
		}
	}
	return ActivityModerate, false
}

// ParseSex maps a free-form sex/gender answer. Unrecognized values return female and false.
func ParseSex(s string) (Sex, bool) {
	switch CanonicalKey(s) {
	case "male", "m", "masculino", "homem", "man", "masc":
		return SexMale, true
	case "female", "f", "feminino", "mulher", "woman", "fem":
		return SexFemale, true
	}
	return SexFemale, false
}

// LocaleFromForm maps the intake form locale tag onto a Locale
func LocaleFromForm(formLocale string) Locale {
	switch CanonicalKey(formLocale) {
	case "br", "pt", "pt_br":
		return LocalePT
	}
	return LocaleEN
}

// CanonicalKey lowercases s, strips diacritics and joins words with underscores.
// "Nível de Atividade" becomes "nivel_de_atividade".
func CanonicalKey(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return ""
	}
	// transform chains carry state, so one is built per call
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(stripper, s); err == nil {
		s = stripped
	}
	var b strings.Builder
	underscore := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
