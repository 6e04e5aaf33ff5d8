package ai

import (
	"fmt"
	"strings"
)

const co2BasePrompt = `You estimate the greenhouse-gas savings of recycling scrap material.
Given a listing of recyclable material, estimate the CO2 emissions avoided (kgCO2e) when this material is
recycled instead of producing the same amount of virgin material.
Answer with exactly one number wrapped in dollar signs, e.g. $12.5$. No other text, units or line breaks.
The number is in kgCO2e, between 0 and 100000, with at most one decimal place. If unsure, answer $0$.`

var categoryHints = map[string]string{
	"metal":       "Recycled aluminium avoids roughly 9 kgCO2e per kg, steel roughly 1.5 kgCO2e per kg.",
	"plastic":     "Recycled plastics avoid roughly 1.5 kgCO2e per kg.",
	"paper":       "Recycled paper and cardboard avoid roughly 0.9 kgCO2e per kg.",
	"glass":       "Recycled glass avoids roughly 0.3 kgCO2e per kg.",
	"electronics": "E-waste recovery avoids roughly 2 to 20 kgCO2e per kg depending on metal content.",
	"textile":     "Reused or recycled textiles avoid roughly 3 kgCO2e per kg.",
	"wood":        "Reused wood avoids roughly 0.5 kgCO2e per kg.",
}

// BuildCO2Prompt renders the estimation prompt for one listing. Unknown
// categories get no hint.
func BuildCO2Prompt(title, description, category string, weightKg float64) string {
	parts := []string{co2BasePrompt}
	if hint, ok := categoryHints[strings.ToLower(strings.TrimSpace(category))]; ok {
		parts = append(parts, "Reference: "+hint)
	}
	parts = append(parts, fmt.Sprintf("Title: %s\nCategory: %s\nWeight: %.2f kg\nDescription: %s",
		title, category, weightKg, description))
	return strings.Join(parts, "\n\n")
}
