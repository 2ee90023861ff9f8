package llm

import (
	"fmt"
	"strings"

	"github.com/Rrens/dietplan/internal/domain"
)

// PlanSchemaExample is the literal output shape embedded in every generation prompt
const PlanSchemaExample = `{
  "overview": {
    "duration": "30 days",
    "total_calories": 2200,
    "macros": {"protein_g": 150, "carbs_g": 240, "fats_g": 70},
    "goals": ["..."],
    "client_summary": "..."
  },
  "weeks": [
    {
      "week_number": 1,
      "theme": "...",
      "days": [
        {
          "day_number": 1,
          "meals": [
            {
              "type": "breakfast",
              "name": "...",
              "ingredients": [
                {"item": "...", "quantity": "...", "calories": 120}
              ],
              "instructions": "...",
              "calories": 450,
              "macros": {"protein_g": 30, "carbs_g": 50, "fats_g": 12},
              "timing": "07:00",
              "tips": ["..."]
            }
          ],
          "total_calories": 2200,
          "water_intake": "2.5 L",
          "exercise": "..."
        }
      ]
    }
  ],
  "recommendations": {
    "supplements": ["..."],
    "tips": ["..."],
    "warnings": ["..."]
  }
}`

type promptTemplate struct {
	system       string
	intro        string
	client       string
	targets      string
	requirements []string
	schemaIntro  string
	closing      string
}

var promptTemplates = map[domain.Locale]promptTemplate{
	domain.LocaleEN: {
		system: "You are a registered nutritionist who writes detailed, practical meal plans. " +
			"You answer with a single valid JSON object and never add commentary or markdown.",
		intro: "Create a personalized 30-day meal plan for the client below. Write every text field in English.",
		client: `Client:
- Name: %s
- Age: %d years
- Sex: %s
- Height: %.0f cm
- Weight: %.1f kg
- Goal: %s
- Activity level: %s
- Dietary restrictions: %s
- Allergies: %s
- Medical conditions: %s
- Current diet: %s
- Sleep: %s
- Stress level: %s
- Budget: %s
- Cooking time available: %s`,
		targets: `Daily targets:
- Calories: %d kcal (BMR %d kcal)
- Protein: %d g (%d kcal)
- Carbohydrates: %d g (%d kcal)
- Fats: %d g (%d kcal)`,
		requirements: []string{
			"Cover exactly 30 days, numbered 1 to 30, grouped into weeks with a theme each",
			"Every day has exactly six meals with types breakfast, morning_snack, lunch, afternoon_snack, dinner, evening_snack",
			"Every meal lists its ingredients with item, quantity and calories per item",
			"Every meal has preparation instructions, a timing, its total calories and a macros breakdown",
			"Daily calories stay within 5% of the calorie target",
			"Never include an ingredient the client is allergic to and respect every restriction",
			"Add supplement suggestions, practical tips and health warnings under recommendations",
		},
		schemaIntro: "Respond with JSON exactly in this shape:",
		closing:     "Return only the JSON object.",
	},
	domain.LocalePT: {
		system: "Você é um nutricionista que elabora planos alimentares detalhados e práticos. " +
			"Responda com um único objeto JSON válido, sem comentários nem markdown.",
		intro: "Crie um plano alimentar personalizado de 30 dias para o cliente abaixo. Escreva todos os campos de texto em português do Brasil.",
		client: `Cliente:
- Nome: %s
- Idade: %d anos
- Sexo: %s
- Altura: %.0f cm
- Peso: %.1f kg
- Objetivo: %s
- Nível de atividade: %s
- Restrições alimentares: %s
- Alergias: %s
- Condições médicas: %s
- Alimentação atual: %s
- Sono: %s
- Nível de estresse: %s
- Orçamento: %s
- Tempo disponível para cozinhar: %s`,
		targets: `Metas diárias:
- Calorias: %d kcal (TMB %d kcal)
- Proteínas: %d g (%d kcal)
- Carboidratos: %d g (%d kcal)
- Gorduras: %d g (%d kcal)`,
		requirements: []string{
			"Cubra exatamente 30 dias, numerados de 1 a 30, agrupados em semanas com um tema cada",
			"Cada dia tem exatamente seis refeições com os tipos breakfast, morning_snack, lunch, afternoon_snack, dinner, evening_snack",
			"Cada refeição lista seus ingredientes com item, quantidade e calorias por item",
			"Cada refeição tem modo de preparo, horário, calorias totais e divisão de macronutrientes",
			"As calorias diárias ficam a no máximo 5% da meta calórica",
			"Nunca inclua ingredientes aos quais o cliente é alérgico e respeite todas as restrições",
			"Inclua sugestões de suplementos, dicas práticas e alertas de saúde em recommendations",
		},
		schemaIntro: "Responda com JSON exatamente neste formato (mantenha as chaves em inglês):",
		closing:     "Retorne apenas o objeto JSON.",
	},
}

// BuildGenerationRequest renders the full instruction set for one plan generation.
// Locale selects the instruction and response language; unknown locales use English.
func BuildGenerationRequest(profile domain.ClientProfile, targets domain.NutritionTargets, locale domain.Locale) domain.GenerationRequest {
	tpl, ok := promptTemplates[locale]
	if !ok {
		locale = domain.LocaleEN
		tpl = promptTemplates[locale]
	}

	name := profile.Name
	if name == "" {
		name = domain.Unspecified
	}

	var b strings.Builder
	b.WriteString(tpl.intro)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, tpl.client,
		name, profile.Age, profile.Sex, profile.HeightCM, profile.WeightKG,
		profile.Goal, profile.ActivityLevel,
		profile.Restrictions, profile.Allergies, profile.MedicalConditions, profile.CurrentDiet,
		profile.SleepHours, profile.StressLevel, profile.Budget, profile.CookingTime,
	)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, tpl.targets,
		targets.TotalCalories, targets.BMR,
		targets.ProteinG, targets.ProteinKcal,
		targets.CarbsG, targets.CarbsKcal,
		targets.FatsG, targets.FatsKcal,
	)
	b.WriteString("\n\n")
	for i, r := range tpl.requirements {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r)
	}
	b.WriteString("\n")
	b.WriteString(tpl.schemaIntro)
	b.WriteString("\n")
	b.WriteString(PlanSchemaExample)
	b.WriteString("\n\n")
	b.WriteString(tpl.closing)

	return domain.GenerationRequest{
		Locale:            locale,
		SystemPrompt:      tpl.system,
		UserPrompt:        b.String(),
		SchemaDescription: PlanSchemaExample,
	}
}

// DiagnosticRequest is a tiny JSON round-trip used to check provider health
func DiagnosticRequest() domain.GenerationRequest {
	return domain.GenerationRequest{
		Locale:       domain.LocaleEN,
		SystemPrompt: "You answer with a single valid JSON object.",
		UserPrompt:   `Reply with {"status": "ok"}.`,
	}
}

// ExtractJSON strips markdown code fences and surrounding prose from a model answer
func ExtractJSON(content string) string {
	if block := extractFromCodeBlock(content, "```json", "```"); block != "" {
		return block
	}
	if block := extractFromCodeBlock(content, "```", "```"); block != "" {
		return block
	}

	content = strings.TrimSpace(content)
	// prose around an object: keep the outermost braces
	if !strings.HasPrefix(content, "{") && !strings.HasPrefix(content, "[") {
		start := strings.Index(content, "{")
		end := strings.LastIndex(content, "}")
		if start != -1 && end > start {
			return content[start : end+1]
		}
	}
	return content
}

func extractFromCodeBlock(content, startMarker, endMarker string) string {
	startIdx := strings.Index(content, startMarker)
	if startIdx == -1 {
		return ""
	}

	contentStart := startIdx + len(startMarker)
	if contentStart < len(content) && content[contentStart] == '\n' {
		contentStart++
	}

	endIdx := strings.Index(content[contentStart:], endMarker)
	if endIdx == -1 {
		return ""
	}

	return strings.TrimSpace(content[contentStart : contentStart+endIdx])
}
