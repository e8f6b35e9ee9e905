package models

import (
	"fmt"
	"time"
)

// RiskLevel is the categorical bucket derived from a risk score.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "Low"
	RiskLevelMedium   RiskLevel = "Medium"
	RiskLevelHigh     RiskLevel = "High"
	RiskLevelCritical RiskLevel = "Critical"
)

// RiskLevels lists the levels from least to most severe.
var RiskLevels = []RiskLevel{RiskLevelLow, RiskLevelMedium, RiskLevelHigh, RiskLevelCritical}

// Score thresholds on the [0,1] scale. Each is the inclusive lower bound of the next level.
const (
	MediumRiskThreshold   = 0.25
	HighRiskThreshold     = 0.50
	CriticalRiskThreshold = 0.75
)

// RiskLevelFromScore maps a score onto its level.
func RiskLevelFromScore(score float64) RiskLevel {
	switch {
	case score < MediumRiskThreshold:
		return RiskLevelLow
	case score < HighRiskThreshold:
		return RiskLevelMedium
	case score < CriticalRiskThreshold:
		return RiskLevelHigh
	default:
		return RiskLevelCritical
	}
}

// ParseRiskLevel accepts the exact level names.
func ParseRiskLevel(s string) (RiskLevel, error) {
	for _, l := range RiskLevels {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("invalid risk level: %q", s)
}

// IsElevated reports whether the level counts toward the "high risk" dashboard figure.
func (l RiskLevel) IsElevated() bool {
	return l == RiskLevelHigh || l == RiskLevelCritical
}

// FactorScore is one sub-risk of the model.
type FactorScore struct {
	Risk         float64 `json:"risk"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// FactorBreakdown exposes every sub-risk behind an overall score.
type FactorBreakdown struct {
	Certification FactorScore `json:"certification"`
	Compliance    FactorScore `json:"compliance"`
	Geopolitical  FactorScore `json:"geopolitical"`
	Environmental FactorScore `json:"environmental"`
	Operational   FactorScore `json:"operational"`
	Capacity      FactorScore `json:"capacity"`
}

// RiskAssessment is the derived, never-persisted result of scoring one supplier.
type RiskAssessment struct {
	Score   float64         `json:"score"`
	Level   RiskLevel       `json:"level"`
	Factors FactorBreakdown `json:"factors"`
	// NearestExpiryDays is the signed day count to the closest certification expiry.
	NearestExpiryDays int `json:"nearest_expiry_days"`
}

// CertificationStatus classifies a single held certification by days to expiry.
type CertificationStatus string

const (
	CertStatusExpired  CertificationStatus = "Expired"
	CertStatusCritical CertificationStatus = "Critical"
	CertStatusWarning  CertificationStatus = "Warning"
	CertStatusOK       CertificationStatus = "OK"
)

// Day thresholds for certification alerts.
const (
	CertCriticalDays = 30
	CertWarningDays  = 90
)

// CertificationStatusFromDays applies the alerting thresholds.
func CertificationStatusFromDays(days int) CertificationStatus {
	switch {
	case days < 0:
		return CertStatusExpired
	case days < CertCriticalDays:
		return CertStatusCritical
	case days < CertWarningDays:
		return CertStatusWarning
	default:
		return CertStatusOK
	}
}

// CertificationAlert is one row of the certification tracker.
type CertificationAlert struct {
	Supplier      string              `json:"supplier"`
	Country       string              `json:"country"`
	Certification CertificationKind   `json:"certification"`
	ExpiryDate    time.Time           `json:"expiry_date"`
	DaysLeft      int                 `json:"days_left"`
	Status        CertificationStatus `json:"status"`
}
