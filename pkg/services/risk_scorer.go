package services

import (
	"math"
	"sort"
	"time"

	"github.com/LunaGrandjean/LVMH-project/pkg/models"
)

// Factor weights. They sum to 1.0.
const (
	WeightCertification = 0.25
	WeightCompliance    = 0.20
	WeightGeopolitical  = 0.20
	WeightEnvironmental = 0.20
	WeightOperational   = 0.05
	WeightCapacity      = 0.10
)

// Baselines for factors without a dynamic signal.
const (
	OperationalBaseline = 0.2
	CapacityBaseline    = 0.3

	complianceBase       = 0.3
	complianceGeoFactor  = 0.3
	unknownCertTrust     = 0.70
	noCertificationsRisk = 1.0
)

// certificationTrust is how much each scheme lowers certification risk.
var certificationTrust = map[models.CertificationKind]float64{
	models.CertGOTS:     0.90,
	models.CertRWS:      0.88,
	models.CertGRS:      0.85,
	models.CertZDHC:     0.82,
	models.CertWRAPGold: 0.80,
}

// CertificationTrust returns the trust score of a scheme; unrecognized schemes get 0.70.
func CertificationTrust(kind models.CertificationKind) float64 {
	if trust, ok := certificationTrust[kind]; ok {
		return trust
	}
	return unknownCertTrust
}

// CertificationRisk is 1 minus the mean trust of the held schemes, or 1.0 when none are held.
func CertificationRisk(held []models.CertificationKind) float64 {
	if len(held) == 0 {
		return noCertificationsRisk
	}
	var total float64
	for _, kind := range held {
		total += CertificationTrust(kind)
	}
	return 1 - total/float64(len(held))
}

// ComplianceRisk derives regulatory exposure from the country table.
func ComplianceRisk(country string) float64 {
	return math.Min(1, complianceBase+complianceGeoFactor*CountryGeoRisk(country))
}

// ScoreSupplier computes the six-factor risk assessment of one supplier.
// External scores are used only when ec came from the enrichment source; a nil or fallback
// context scores from the static country table. The function keeps no state between calls.
func ScoreSupplier(s *models.Supplier, ec *models.ExternalContext, now time.Time) models.RiskAssessment {
	geo := CountryGeoRisk(s.Country)
	env := NeutralEnvironmentalRisk
	if ec.IsExternal() {
		geo = ec.GeopoliticalScore
		env = ec.EnvironmentalScore
	}

	factors := models.FactorBreakdown{
		Certification: factor(CertificationRisk(s.HeldCertifications()), WeightCertification),
		Compliance:    factor(ComplianceRisk(s.Country), WeightCompliance),
		Geopolitical:  factor(geo, WeightGeopolitical),
		Environmental: factor(env, WeightEnvironmental),
		Operational:   factor(OperationalBaseline, WeightOperational),
		Capacity:      factor(CapacityBaseline, WeightCapacity),
	}

	score := clamp01(factors.Certification.Contribution +
		factors.Compliance.Contribution +
		factors.Geopolitical.Contribution +
		factors.Environmental.Contribution +
		factors.Operational.Contribution +
		factors.Capacity.Contribution)

	return models.RiskAssessment{
		Score:             score,
		Level:             models.RiskLevelFromScore(score),
		Factors:           factors,
		NearestExpiryDays: NearestExpiryDays(s.ExpiryDates(), now),
	}
}

func factor(risk, weight float64) models.FactorScore {
	risk = clamp01(risk)
	return models.FactorScore{Risk: risk, Weight: weight, Contribution: risk * weight}
}

// CertificationAlerts lists every held certification of s with its days left and status,
// soonest expiry first.
func CertificationAlerts(s *models.Supplier, now time.Time) []models.CertificationAlert {
	alerts := make([]models.CertificationAlert, 0, len(s.Certifications))
	for _, kind := range s.HeldCertifications() {
		expiry := s.Certifications[kind]
		days := DaysUntil(expiry, now)
		alerts = append(alerts, models.CertificationAlert{
			Supplier:      s.Name,
			Country:       s.Country,
			Certification: kind,
			ExpiryDate:    expiry,
			DaysLeft:      days,
			Status:        models.CertificationStatusFromDays(days),
		})
	}
	sort.SliceStable(alerts, func(i, j int) bool { return alerts[i].DaysLeft < alerts[j].DaysLeft })
	return alerts
}
