package models

// ScoredSupplier is a supplier row annotated with its derived assessment.
type ScoredSupplier struct {
	Supplier   *Supplier        `json:"supplier"`
	Assessment RiskAssessment   `json:"assessment"`
	Context    *ExternalContext `json:"context,omitempty"`
}

// SupplierSummary is the flattened row shown in lists and tables.
type SupplierSummary struct {
	Name           string      `json:"name"`
	Country        string      `json:"country"`
	City           string      `json:"city"`
	Category       string      `json:"category"`
	Certifications string      `json:"certifications"`
	RiskLevel      RiskLevel   `json:"risk_level"`
	Score          string      `json:"overall_risk_score"`
	AuditStatus    AuditStatus `json:"audit_status"`
	DaysToExpiry   int         `json:"days_to_expiry"`
	HasIncidents   bool        `json:"has_incidents"`

	GeopoliticalRisk  RiskBucket `json:"geopolitical_risk,omitempty"`
	EnvironmentalRisk RiskBucket `json:"environmental_risk,omitempty"`
}

// AlertKind classifies a dashboard alert.
type AlertKind string

const (
	AlertCertificationExpired  AlertKind = "certification_expired"
	AlertCertificationExpiring AlertKind = "certification_expiring"
	AlertFailedAudit           AlertKind = "failed_audit"
	AlertIncident              AlertKind = "incident"
)

// MaxDashboardAlerts and TopRiskCount bound the dashboard lists.
const (
	MaxDashboardAlerts = 10
	TopRiskCount       = 5
)

// PortfolioAlert is one line of the dashboard alert feed.
type PortfolioAlert struct {
	Kind     AlertKind `json:"kind"`
	Supplier string    `json:"supplier"`
	Country  string    `json:"country"`
	Message  string    `json:"message"`
}

// NamedCount pairs a label with a number of suppliers.
type NamedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Dashboard is the portfolio overview.
type Dashboard struct {
	TotalSuppliers   int               `json:"total_suppliers"`
	HighRisk         int               `json:"high_risk"`
	HighRiskPercent  int               `json:"high_risk_percent"`
	ExpiringSoon     int               `json:"expiring_soon"`
	WithIncidents    int               `json:"with_incidents"`
	RiskDistribution map[RiskLevel]int `json:"risk_distribution"`
	ByCountry        []NamedCount      `json:"by_country"`
	Alerts           []PortfolioAlert  `json:"alerts"`
	// TotalAlerts counts alerts before the display cap.
	TotalAlerts int               `json:"total_alerts"`
	TopRisk     []SupplierSummary `json:"top_risk"`
}

// DirectoryFilter narrows the supplier directory. An empty slice accepts every value.
type DirectoryFilter struct {
	RiskLevels    []RiskLevel
	Countries     []string
	AuditStatuses []AuditStatus
}

// Directory is a filtered supplier list, highest score first.
type Directory struct {
	Suppliers []SupplierSummary `json:"suppliers"`
	Shown     int               `json:"shown"`
	Total     int               `json:"total"`
}

// SupplierDetail is everything known about a single supplier.
type SupplierDetail struct {
	Supplier           *Supplier            `json:"supplier"`
	Assessment         RiskAssessment       `json:"assessment"`
	Score              string               `json:"overall_risk_score"`
	Certifications     []CertificationAlert `json:"certifications"`
	DaysUntilNextAudit *int                 `json:"days_until_next_audit,omitempty"`
	Context            ExternalContext      `json:"context"`
	// Warnings lists table values the engine could not interpret.
	Warnings []string `json:"warnings,omitempty"`
}

// CertificationTracker lists every held certification across the portfolio.
type CertificationTracker struct {
	All       []CertificationAlert `json:"all"`
	Critical  []CertificationAlert `json:"critical"`
	Compliant []CertificationAlert `json:"compliant"`
}

// RiskLevelAggregate summarizes the suppliers sharing one level.
type RiskLevelAggregate struct {
	Level        RiskLevel `json:"level"`
	Suppliers    int       `json:"suppliers"`
	MeanScore    float64   `json:"mean_score"`
	Incidents    int       `json:"incidents"`
	FailedAudits int       `json:"failed_audits"`
}

// CountryRiskProfile summarizes the suppliers of one country.
type CountryRiskProfile struct {
	Country     string  `json:"country"`
	MeanScore   float64 `json:"mean_score"`
	Suppliers   int     `json:"suppliers"`
	HighGeoRisk int     `json:"high_geo_risk"`
	HighEnvRisk int     `json:"high_env_risk"`
}

// RiskAssessmentView is the portfolio risk breakdown.
type RiskAssessmentView struct {
	ByLevel   []RiskLevelAggregate `json:"by_level"`
	ByCountry []CountryRiskProfile `json:"by_country"`
	Critical  []SupplierSummary    `json:"critical"`
}

// Analytics holds portfolio-wide figures.
type Analytics struct {
	TotalSuppliers      int          `json:"total_suppliers"`
	Countries           int          `json:"countries"`
	MeanScore           float64      `json:"mean_score"`
	MeanCertifications  float64      `json:"mean_certifications"`
	AuditComplianceRate float64      `json:"audit_compliance_rate"`
	PassedAudits        int          `json:"passed_audits"`
	ByCategory          []NamedCount `json:"by_category"`
}
