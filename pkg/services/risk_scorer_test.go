package services

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LunaGrandjean/LVMH-project/pkg/models"
)

var scoringNow = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

func TestWeightsSumToOne(t *testing.T) {
	sum := WeightCertification + WeightCompliance + WeightGeopolitical +
		WeightEnvironmental + WeightOperational + WeightCapacity
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestCertificationRisk(t *testing.T) {
	assert.InDelta(t, 1.0, CertificationRisk(nil), 1e-12)
	assert.InDelta(t, 0.10, CertificationRisk([]models.CertificationKind{models.CertGOTS}), 1e-12)
	assert.InDelta(t, 1-(0.90+0.85)/2, CertificationRisk([]models.CertificationKind{models.CertGOTS, models.CertGRS}), 1e-12)
	assert.InDelta(t, 0.30, CertificationRisk([]models.CertificationKind{"OEKO-TEX"}), 1e-12)
}

func TestComplianceRisk(t *testing.T) {
	assert.InDelta(t, 0.3+0.3*0.20, ComplianceRisk("Italy"), 1e-12)
	assert.InDelta(t, 0.3+0.3*DefaultCountryRisk, ComplianceRisk("Nowhere"), 1e-12)
}

func TestScoreSupplier_GOTSOnlyExpiringSoon(t *testing.T) {
	supplier := &models.Supplier{
		Name:              "Lanificio Biella",
		Country:           "Italy",
		City:              "Biella",
		AuditStatus:       models.AuditPassed,
		GeopoliticalRisk:  models.BucketLow,
		EnvironmentalRisk: models.BucketLow,
	}
	supplier.SetCertification(models.CertGOTS, scoringNow.AddDate(0, 0, 10))

	got := ScoreSupplier(supplier, nil, scoringNow)

	assert.InDelta(t, 0.10, got.Factors.Certification.Risk, 1e-12)
	want := 0.10*0.25 + (0.3+0.3*0.20)*0.20 + 0.20*0.20 + 0.50*0.20 + 0.2*0.05 + 0.3*0.10
	assert.InDelta(t, want, got.Score, 1e-12)
	assert.Equal(t, models.RiskLevelFromScore(want), got.Level)
	assert.Equal(t, models.RiskLevelMedium, got.Level)
	assert.Equal(t, 10, got.NearestExpiryDays)

	alerts := CertificationAlerts(supplier, scoringNow)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.CertGOTS, alerts[0].Certification)
	assert.Equal(t, models.CertStatusCritical, alerts[0].Status)
}

func TestScoreSupplier_WorstCase(t *testing.T) {
	supplier := &models.Supplier{
		Name:         "Yangon Dye Works",
		Country:      "Myanmar",
		City:         "Yangon",
		AuditStatus:  models.AuditFailed,
		HasIncidents: true,
		IncidentType: "Chemical spill",
	}
	ec := &models.ExternalContext{
		GeopoliticalScore:  1.0,
		EnvironmentalScore: 1.0,
		Source:             models.ContextSourceExternal,
	}

	got := ScoreSupplier(supplier, ec, scoringNow)

	assert.InDelta(t, 1.0, got.Factors.Certification.Risk, 1e-12)
	assert.Equal(t, FarFutureDays, got.NearestExpiryDays)
	assert.Contains(t, []models.RiskLevel{models.RiskLevelHigh, models.RiskLevelCritical}, got.Level)
	assert.Equal(t, models.RiskLevelCritical, got.Level)
	assert.LessOrEqual(t, got.Score, 1.0)
}

func TestScoreSupplier_WorstCaseOffline(t *testing.T) {
	worstCase := func(country string) *models.Supplier {
		return &models.Supplier{
			Name:              "Worst Case Mill",
			Country:           country,
			AuditStatus:       models.AuditFailed,
			GeopoliticalRisk:  models.BucketHigh,
			EnvironmentalRisk: models.BucketHigh,
			HasIncidents:      true,
			IncidentType:      "Labor dispute",
		}
	}

	tests := []struct {
		country   string
		wantScore float64
		wantLevel models.RiskLevel
	}{
		{"Lesotho", 0.58, models.RiskLevelHigh},
		{"Myanmar", 0.671, models.RiskLevelHigh},
		{"France", 0.489, models.RiskLevelMedium},
		{"Switzerland", 0.463, models.RiskLevelMedium},
	}

	for _, tt := range tests {
		t.Run(tt.country, func(t *testing.T) {
			got := ScoreSupplier(worstCase(tt.country), nil, scoringNow)
			assert.InDelta(t, tt.wantScore, got.Score, 1e-9)
			assert.Equal(t, tt.wantLevel, got.Level)
		})
	}

	// Buckets, audit result and incidents do not enter the six-factor score.
	quiet := worstCase("Lesotho")
	quiet.AuditStatus = models.AuditPassed
	quiet.GeopoliticalRisk = models.BucketLow
	quiet.EnvironmentalRisk = models.BucketLow
	quiet.ClearIncident()
	assert.Equal(t, ScoreSupplier(worstCase("Lesotho"), nil, scoringNow).Score, ScoreSupplier(quiet, nil, scoringNow).Score)
}

func TestScoreSupplier_FallbackContextMatchesTable(t *testing.T) {
	supplier := &models.Supplier{Name: "Tiruppur Knits", Country: "India", City: "Tiruppur"}
	supplier.SetCertification(models.CertZDHC, scoringNow.AddDate(0, 3, 0))

	withoutContext := ScoreSupplier(supplier, nil, scoringNow)
	fallback := StaticContext("India")
	withFallback := ScoreSupplier(supplier, &fallback, scoringNow)

	assert.Equal(t, withoutContext, withFallback)

	external := &models.ExternalContext{GeopoliticalScore: 0.1, EnvironmentalScore: 0.1, Source: models.ContextSourceExternal}
	withExternal := ScoreSupplier(supplier, external, scoringNow)
	assert.Less(t, withExternal.Score, withoutContext.Score)
	assert.InDelta(t, 0.1, withExternal.Factors.Geopolitical.Risk, 1e-12)
}

func TestRiskLevelBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  models.RiskLevel
	}{
		{0, models.RiskLevelLow},
		{0.24, models.RiskLevelLow},
		{0.25, models.RiskLevelMedium},
		{0.499999, models.RiskLevelMedium},
		{0.5, models.RiskLevelHigh},
		{0.749999, models.RiskLevelHigh},
		{0.75, models.RiskLevelCritical},
		{1, models.RiskLevelCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, models.RiskLevelFromScore(tt.score), "score %v", tt.score)
	}
}

func TestCertificationAlerts_Statuses(t *testing.T) {
	supplier := &models.Supplier{Name: "Porto Leather", Country: "Portugal"}
	supplier.SetCertification(models.CertGRS, scoringNow.AddDate(0, 0, -5))
	supplier.SetCertification(models.CertRWS, scoringNow.AddDate(0, 0, 60))
	supplier.SetCertification(models.CertWRAPGold, scoringNow.AddDate(0, 0, 400))

	alerts := CertificationAlerts(supplier, scoringNow)

	require.Len(t, alerts, 3)
	assert.Equal(t, models.CertStatusExpired, alerts[0].Status)
	assert.Equal(t, models.CertStatusWarning, alerts[1].Status)
	assert.Equal(t, models.CertStatusOK, alerts[2].Status)
	assert.Empty(t, CertificationAlerts(&models.Supplier{Name: "None held"}, scoringNow))
}

func genSupplier() gopter.Gen {
	kinds := []models.CertificationKind{models.CertGRS, models.CertZDHC, models.CertGOTS, models.CertRWS, models.CertWRAPGold, "OEKO-TEX"}
	return gopter.CombineGens(
		gen.OneConstOf("Italy", "Bangladesh", "Myanmar", "France", "Atlantis", ""),
		gen.SliceOf(gen.IntRange(0, len(kinds)-1)),
		gen.IntRange(-400, 800),
	).Map(func(values []any) *models.Supplier {
		s := &models.Supplier{Name: "generated", Country: values[0].(string)}
		for i, idx := range values[1].([]int) {
			s.SetCertification(kinds[idx], scoringNow.AddDate(0, 0, values[2].(int)+i))
		}
		return s
	})
}

func genContext() gopter.Gen {
	return gopter.CombineGens(
		gen.Float64Range(-0.5, 1.5),
		gen.Float64Range(-0.5, 1.5),
		gen.Bool(),
	).Map(func(values []any) *models.ExternalContext {
		source := models.ContextSourceFallback
		if values[2].(bool) {
			source = models.ContextSourceExternal
		}
		return &models.ExternalContext{
			GeopoliticalScore:  values[0].(float64),
			EnvironmentalScore: values[1].(float64),
			Source:             source,
		}
	})
}

func TestScoreSupplier_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("score is within [0,1]", prop.ForAll(
		func(s *models.Supplier, ec *models.ExternalContext) bool {
			got := ScoreSupplier(s, ec, scoringNow)
			return got.Score >= 0 && got.Score <= 1
		},
		genSupplier(), genContext(),
	))

	properties.Property("level is the step function of the score", prop.ForAll(
		func(s *models.Supplier, ec *models.ExternalContext) bool {
			got := ScoreSupplier(s, ec, scoringNow)
			return got.Level == models.RiskLevelFromScore(got.Score)
		},
		genSupplier(), genContext(),
	))

	properties.Property("scoring is deterministic", prop.ForAll(
		func(s *models.Supplier, ec *models.ExternalContext) bool {
			return ScoreSupplier(s, ec, scoringNow) == ScoreSupplier(s, ec, scoringNow)
		},
		genSupplier(), genContext(),
	))

	properties.Property("no certifications means maximum certification risk", prop.ForAll(
		func(country string) bool {
			got := ScoreSupplier(&models.Supplier{Country: country}, nil, scoringNow)
			return got.Factors.Certification.Risk == 1.0 && got.NearestExpiryDays == FarFutureDays
		},
		gen.AlphaString(),
	))

	properties.Property("risk level is monotonic in score", prop.ForAll(
		func(a, b float64) bool {
			if a > b {
				a, b = b, a
			}
			return levelRank(models.RiskLevelFromScore(a)) <= levelRank(models.RiskLevelFromScore(b))
		},
		gen.Float64Range(0, 1), gen.Float64Range(0, 1),
	))

	properties.TestingRun(t)
}

func levelRank(l models.RiskLevel) int {
	for i, level := range models.RiskLevels {
		if level == l {
			return i
		}
	}
	return -1
}
