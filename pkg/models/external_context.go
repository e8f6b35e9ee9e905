package models

import "strings"

// ContextSource records where an ExternalContext came from.
type ContextSource string

const (
	// ContextSourceExternal means the enrichment call succeeded and its JSON parsed.
	ContextSourceExternal ContextSource = "external"
	// ContextSourceFallback means no call was made or the call failed.
	ContextSourceFallback ContextSource = "fallback"
	// ContextSourceParseFallback means the call succeeded but the response was not usable JSON.
	ContextSourceParseFallback ContextSource = "parse_fallback"
)

// ContextKey is the normalized cache key for location intelligence.
// Country and city are joined by a NUL byte so that no pair of names can share a key.
type ContextKey string

const contextKeySep = "\x00"

// NewContextKey builds the cache key; casing and surrounding whitespace are ignored.
func NewContextKey(country, city string) ContextKey {
	return ContextKey(strings.ToLower(strings.TrimSpace(country)) + contextKeySep + strings.ToLower(strings.TrimSpace(city)))
}

// String renders the key as lowercase "country_city" for logs.
func (k ContextKey) String() string {
	return strings.Replace(string(k), contextKeySep, "_", 1)
}

// ExternalContext holds geopolitical and environmental inputs for one supplier location.
type ExternalContext struct {
	GeopoliticalFactors       string  `json:"geopolitical_factors"`
	GeopoliticalScore         float64 `json:"geopolitical_score"`
	EnvironmentalFactors      string  `json:"environmental_factors"`
	EnvironmentalScore        float64 `json:"environmental_score"`
	ClimateRisk               string  `json:"climate_risk"`
	SupplyChainDisruptionRisk string  `json:"supply_chain_disruption_risk"`

	Source ContextSource `json:"source"`
	// Error is the sanitized reason the external source could not be used, if any.
	Error string `json:"error,omitempty"`
}

// IsExternal reports whether the scores came from the enrichment source.
func (c *ExternalContext) IsExternal() bool {
	return c != nil && c.Source == ContextSourceExternal
}
