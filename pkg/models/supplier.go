package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DateLayout is the calendar date format used in the supplier table and the activity log.
const DateLayout = "2006-01-02"

// CertificationKind identifies one of the certification schemes tracked per supplier.
type CertificationKind string

const (
	CertGRS      CertificationKind = "GRS"
	CertZDHC     CertificationKind = "ZDHC"
	CertGOTS     CertificationKind = "GOTS"
	CertRWS      CertificationKind = "RWS"
	CertWRAPGold CertificationKind = "WRAP GOLD"
)

// CertificationKinds lists the known kinds in table column order.
var CertificationKinds = []CertificationKind{CertGRS, CertZDHC, CertGOTS, CertRWS, CertWRAPGold}

// ParseCertificationKind accepts the canonical names case-insensitively, plus "WRAP" as
// shorthand for WRAP GOLD.
func ParseCertificationKind(s string) (CertificationKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GRS":
		return CertGRS, nil
	case "ZDHC":
		return CertZDHC, nil
	case "GOTS":
		return CertGOTS, nil
	case "RWS":
		return CertRWS, nil
	case "WRAP", "WRAP GOLD", "WRAP-GOLD", "WRAP_GOLD":
		return CertWRAPGold, nil
	default:
		return "", fmt.Errorf("unknown certification type: %q", s)
	}
}

// ShortName is the label used on the certification tracker ("WRAP" rather than "WRAP GOLD").
func (k CertificationKind) ShortName() string {
	if k == CertWRAPGold {
		return "WRAP"
	}
	return string(k)
}

// AuditStatus is the outcome of a supplier's last audit.
type AuditStatus string

const (
	AuditPassed  AuditStatus = "Passed"
	AuditPending AuditStatus = "Pending"
	AuditFailed  AuditStatus = "Failed"
)

// ParseAuditStatus validates that s is exactly one of the three audit outcomes.
func ParseAuditStatus(s string) (AuditStatus, error) {
	switch AuditStatus(strings.TrimSpace(s)) {
	case AuditPassed:
		return AuditPassed, nil
	case AuditPending:
		return AuditPending, nil
	case AuditFailed:
		return AuditFailed, nil
	default:
		return "", fmt.Errorf("invalid audit status: %q (must be Passed, Pending or Failed)", s)
	}
}

// Valid reports whether a is one of the three audit outcomes. Tables may carry other text,
// which is kept verbatim so that saving does not rewrite it.
func (a AuditStatus) Valid() bool {
	return a == AuditPassed || a == AuditPending || a == AuditFailed
}

// RiskBucket is the coarse Low/Medium/High classification carried on the supplier row.
// Values outside the three buckets are preserved verbatim.
type RiskBucket string

const (
	BucketLow    RiskBucket = "Low"
	BucketMedium RiskBucket = "Medium"
	BucketHigh   RiskBucket = "High"
)

// DefaultIncidentType is assigned when a row flags incidents without naming a type.
const DefaultIncidentType = "Other"

// Supplier is one row of the canonical supplier table.
// Name is the stable join key across the table and the activity log.
type Supplier struct {
	Name               string `json:"name"`
	Country            string `json:"country"`
	City               string `json:"city"`
	Category           string `json:"category"`
	Address            string `json:"address,omitempty"`
	PostalCode         string `json:"postal_code,omitempty"`
	Employees          int    `json:"employees"`
	ProductionCapacity string `json:"production_capacity,omitempty"`
	CertificationsText string `json:"certifications"`
	CertificationScore string `json:"certification_score,omitempty"`

	// Certifications maps a held kind to its expiry date. Kinds that are not held are absent.
	Certifications map[CertificationKind]time.Time `json:"certification_expiry"`

	LastAuditDate *time.Time  `json:"last_audit_date,omitempty"`
	AuditStatus   AuditStatus `json:"audit_status"`
	NextAuditDate *time.Time  `json:"next_audit_date,omitempty"`

	HasIncidents bool   `json:"has_incidents"`
	IncidentType string `json:"incident_type,omitempty"`

	GeopoliticalRisk  RiskBucket `json:"geopolitical_risk"`
	EnvironmentalRisk RiskBucket `json:"environmental_risk"`
	ComplianceRisk    RiskBucket `json:"compliance_risk"`

	// Extra carries table columns this package does not model so they survive a rewrite.
	Extra map[string]string `json:"-"`
}

// HeldCertifications returns the held kinds in table column order.
func (s *Supplier) HeldCertifications() []CertificationKind {
	held := make([]CertificationKind, 0, len(s.Certifications))
	for _, k := range CertificationKinds {
		if _, ok := s.Certifications[k]; ok {
			held = append(held, k)
		}
	}
	// Kinds outside the known set can only come from programmatic construction.
	var extra []CertificationKind
	for k := range s.Certifications {
		if !isKnownKind(k) {
			extra = append(extra, k)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(held, extra...)
}

// ExpiryDates returns the expiry dates of all held certifications.
func (s *Supplier) ExpiryDates() []time.Time {
	dates := make([]time.Time, 0, len(s.Certifications))
	for _, k := range s.HeldCertifications() {
		dates = append(dates, s.Certifications[k])
	}
	return dates
}

// SetCertification records or renews the expiry date of a certification.
func (s *Supplier) SetCertification(kind CertificationKind, expiry time.Time) {
	if s.Certifications == nil {
		s.Certifications = make(map[CertificationKind]time.Time)
	}
	s.Certifications[kind] = expiry
}

// SetIncident flags an incident. An empty type falls back to DefaultIncidentType so the
// flag and the type always travel together.
func (s *Supplier) SetIncident(incidentType string) {
	incidentType = strings.TrimSpace(incidentType)
	if incidentType == "" {
		incidentType = DefaultIncidentType
	}
	s.HasIncidents = true
	s.IncidentType = incidentType
}

// ClearIncident removes the incident flag and its type together.
func (s *Supplier) ClearIncident() {
	s.HasIncidents = false
	s.IncidentType = ""
}

// NormalizeIncident enforces the flag/type invariant on a freshly loaded row.
func (s *Supplier) NormalizeIncident() {
	if s.HasIncidents || strings.TrimSpace(s.IncidentType) != "" {
		s.SetIncident(s.IncidentType)
	}
}

// Clone returns a deep copy so callers can mutate a working copy without touching the table.
func (s *Supplier) Clone() *Supplier {
	c := *s
	if s.Certifications != nil {
		c.Certifications = make(map[CertificationKind]time.Time, len(s.Certifications))
		for k, v := range s.Certifications {
			c.Certifications[k] = v
		}
	}
	if s.Extra != nil {
		c.Extra = make(map[string]string, len(s.Extra))
		for k, v := range s.Extra {
			c.Extra[k] = v
		}
	}
	if s.LastAuditDate != nil {
		d := *s.LastAuditDate
		c.LastAuditDate = &d
	}
	if s.NextAuditDate != nil {
		d := *s.NextAuditDate
		c.NextAuditDate = &d
	}
	return &c
}

// CertificationCount is the number of entries in the display summary ("GOTS, GRS").
func (s *Supplier) CertificationCount() int {
	if strings.TrimSpace(s.CertificationsText) == "" {
		return 0
	}
	return len(strings.Split(s.CertificationsText, ", "))
}

// ParseDate parses a table or form date. Empty values and pandas null markers yield nil.
// Timestamps are accepted and truncated to their calendar date.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if IsNullMarker(s) {
		return nil, nil
	}
	layouts := []string{DateLayout, time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d, nil
		}
	}
	return nil, fmt.Errorf("invalid date: %q", s)
}

// FormatDate renders an optional date; nil renders as an empty string, never "None".
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}

// IsNullMarker reports whether a cell should be read as absent.
func IsNullMarker(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "None", "none", "NaN", "nan", "NaT", "null":
		return true
	}
	return false
}

func isKnownKind(k CertificationKind) bool {
	for _, known := range CertificationKinds {
		if k == known {
			return true
		}
	}
	return false
}
