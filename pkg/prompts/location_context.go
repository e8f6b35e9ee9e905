// Package prompts builds the text sent to the enrichment provider.
package prompts

import (
	"fmt"
	"strings"
)

// LocationContextSystemMessage frames the model as a sourcing risk analyst.
const LocationContextSystemMessage = `You are a supply chain risk analyst for a luxury fashion group. ` +
	`You assess sourcing locations for geopolitical and environmental risk. ` +
	`Always answer with a single JSON object and nothing else.`

// LocationContext describes the supplier location to assess. Supplier and Category only shape
// the wording; the answer is cached per Country and City.
type LocationContext struct {
	Supplier string
	Category string
	City     string
	Country  string
}

// BuildLocationContextPrompt creates the prompt for one location. Empty fields are left out.
func BuildLocationContextPrompt(loc LocationContext) string {
	var prompt strings.Builder

	prompt.WriteString("Assess the current risk context for this supplier location.\n\n")

	for _, field := range []struct{ label, value string }{
		{"Supplier", loc.Supplier},
		{"Category", loc.Category},
		{"City", loc.City},
		{"Country", loc.Country},
	} {
		if v := strings.TrimSpace(field.value); v != "" {
			prompt.WriteString(fmt.Sprintf("%s: %s\n", field.label, v))
		}
	}

	prompt.WriteString(`
Return a JSON object with exactly these fields:
{
  "geopolitical_factors": "short summary of political stability, trade restrictions, sanctions and labor unrest",
  "geopolitical_score": 0.0,
  "environmental_factors": "short summary of water stress, pollution, climate exposure and regulation",
  "environmental_score": 0.0,
  "climate_risk": "Low | Medium | High",
  "supply_chain_disruption_risk": "Low | Medium | High"
}

Scores are numbers between 0.0 (no risk) and 1.0 (extreme risk).`)

	return prompt.String()
}
