package services

import "strings"

// DefaultCountryRisk is the geopolitical risk assumed for countries missing from the table.
const DefaultCountryRisk = 0.50

// NeutralEnvironmentalRisk is used whenever no external environmental score is available.
const NeutralEnvironmentalRisk = 0.50

// countryGeoRisk is the static geopolitical risk per sourcing country on the [0,1] scale.
// Keys are lowercase.
var countryGeoRisk = map[string]float64{
	"australia":      0.10,
	"bangladesh":     0.65,
	"brazil":         0.45,
	"cambodia":       0.55,
	"china":          0.60,
	"egypt":          0.60,
	"ethiopia":       0.70,
	"france":         0.15,
	"germany":        0.10,
	"india":          0.50,
	"indonesia":      0.45,
	"italy":          0.20,
	"japan":          0.10,
	"mexico":         0.50,
	"mongolia":       0.45,
	"morocco":        0.40,
	"myanmar":        0.85,
	"new zealand":    0.10,
	"pakistan":       0.70,
	"peru":           0.45,
	"portugal":       0.20,
	"romania":        0.30,
	"south korea":    0.20,
	"spain":          0.20,
	"sri lanka":      0.55,
	"switzerland":    0.05,
	"tunisia":        0.45,
	"turkey":         0.55,
	"united kingdom": 0.15,
	"united states":  0.20,
	"uzbekistan":     0.60,
	"vietnam":        0.45,
}

var countryAliases = map[string]string{
	"uk":       "united kingdom",
	"usa":      "united states",
	"us":       "united states",
	"türkiye":  "turkey",
	"turkiye":  "turkey",
	"korea":    "south korea",
	"viet nam": "vietnam",
}

// CountryGeoRisk returns the static geopolitical risk for a country, matched case-insensitively.
// Unknown countries get DefaultCountryRisk.
func CountryGeoRisk(country string) float64 {
	key := strings.ToLower(strings.TrimSpace(country))
	if alias, ok := countryAliases[key]; ok {
		key = alias
	}
	if risk, ok := countryGeoRisk[key]; ok {
		return risk
	}
	return DefaultCountryRisk
}
