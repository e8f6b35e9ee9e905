package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountryGeoRisk(t *testing.T) {
	tests := []struct {
		country string
		want    float64
	}{
		{country: "Italy", want: 0.20},
		{country: "  BANGLADESH ", want: 0.65},
		{country: "UK", want: 0.15},
		{country: "Türkiye", want: 0.55},
		{country: "Atlantis", want: DefaultCountryRisk},
		{country: "", want: DefaultCountryRisk},
	}

	for _, tt := range tests {
		t.Run(tt.country, func(t *testing.T) {
			assert.InDelta(t, tt.want, CountryGeoRisk(tt.country), 1e-9)
		})
	}
}

func TestCountryGeoRisk_TableIsWithinUnitInterval(t *testing.T) {
	for country, risk := range countryGeoRisk {
		assert.GreaterOrEqual(t, risk, 0.0, country)
		assert.LessOrEqual(t, risk, 1.0, country)
	}
	for alias, target := range countryAliases {
		_, ok := countryGeoRisk[target]
		assert.True(t, ok, "alias %q points at missing country %q", alias, target)
	}
}
