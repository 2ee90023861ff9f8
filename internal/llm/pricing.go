package llm

import (
	"math"
	"strings"

	"github.com/Rrens/dietplan/internal/domain"
	"github.com/rs/zerolog/log"
)

// Rate is a price in USD per 1000 tokens
type Rate struct {
	Input  float64
	Output float64
}

// Pricing is a per-model rate table. Keys match a model name exactly or as its prefix,
// so dated snapshots ("claude-3-haiku-20240307") share the family rate.
type Pricing map[string]Rate

// DefaultPricing holds the rates used for generation cost accounting
var DefaultPricing = Pricing{
	"gpt-4o-mini":       {Input: 0.00015, Output: 0.0006},
	"gpt-4o":            {Input: 0.0025, Output: 0.01},
	"gpt-4-turbo":       {Input: 0.01, Output: 0.03},
	"gpt-3.5-turbo":     {Input: 0.0005, Output: 0.0015},
	"claude-3-5-sonnet": {Input: 0.003, Output: 0.015},
	"claude-3-haiku":    {Input: 0.00025, Output: 0.00125},
	"claude-3-opus":     {Input: 0.015, Output: 0.075},
	"deepseek-chat":     {Input: 0.00027, Output: 0.0011},
	"deepseek-reasoner": {Input: 0.00055, Output: 0.00219},
	"gemini-1.5-flash":  {Input: 0.000075, Output: 0.0003},
	"gemini-1.5-pro":    {Input: 0.00125, Output: 0.005},
	"gemini-2.5-flash":  {Input: 0.0003, Output: 0.0025},
}

// Lookup returns the rate for model, preferring the longest matching prefix
func (p Pricing) Lookup(model string) (Rate, bool) {
	if r, ok := p[model]; ok {
		return r, true
	}
	best := ""
	for key := range p {
		if strings.HasPrefix(model, key) && len(key) > len(best) {
			best = key
		}
	}
	if best == "" {
		return Rate{}, false
	}
	return p[best], true
}

// Cost returns the USD cost of usage, rounded to six decimals.
// Unknown models cost zero; local ollama models are free.
func (p Pricing) Cost(provider, model string, usage domain.Usage) float64 {
	if provider == "ollama" {
		return 0
	}
	rate, ok := p.Lookup(model)
	if !ok {
		log.Warn().Str("provider", provider).Str("model", model).Msg("no pricing for model, cost recorded as zero")
		return 0
	}
	cost := float64(usage.PromptTokens)/1000*rate.Input + float64(usage.CompletionTokens)/1000*rate.Output
	return math.Round(cost*1e6) / 1e6
}
