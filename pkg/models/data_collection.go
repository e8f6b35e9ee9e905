package models

import (
	"fmt"
	"time"
)

// IncidentSeverity grades a reported incident.
type IncidentSeverity string

const (
	SeverityLow      IncidentSeverity = "Low"
	SeverityMedium   IncidentSeverity = "Medium"
	SeverityHigh     IncidentSeverity = "High"
	SeverityCritical IncidentSeverity = "Critical"
)

// ParseIncidentSeverity validates a severity; empty defaults to Medium.
func ParseIncidentSeverity(s string) (IncidentSeverity, error) {
	switch IncidentSeverity(s) {
	case "":
		return SeverityMedium, nil
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return IncidentSeverity(s), nil
	}
	return "", fmt.Errorf("invalid severity: %q", s)
}

// IncidentStatus is the follow-up state of a reported incident.
type IncidentStatus string

const (
	IncidentOpen               IncidentStatus = "Open"
	IncidentUnderInvestigation IncidentStatus = "Under Investigation"
	IncidentResolved           IncidentStatus = "Resolved"
	IncidentMonitoring         IncidentStatus = "Monitoring"
)

// ParseIncidentStatus validates a status; empty defaults to Open.
func ParseIncidentStatus(s string) (IncidentStatus, error) {
	switch IncidentStatus(s) {
	case "":
		return IncidentOpen, nil
	case IncidentOpen, IncidentUnderInvestigation, IncidentResolved, IncidentMonitoring:
		return IncidentStatus(s), nil
	}
	return "", fmt.Errorf("invalid incident status: %q", s)
}

// CertificationUpdate renews or adds a certification.
type CertificationUpdate struct {
	Supplier     string
	CertType     CertificationKind
	ExpiryDate   time.Time
	IssueDate    *time.Time
	Notes        string
	FileUploaded bool
}

// AuditUpdate records the outcome of an audit.
type AuditUpdate struct {
	Supplier         string
	AuditType        string
	AuditDate        time.Time
	Status           AuditStatus
	Auditor          string
	NextAuditDate    *time.Time
	CorrectiveAction string
	Findings         string
}

// IncidentReport flags an incident against a supplier.
type IncidentReport struct {
	Supplier     string
	IncidentDate time.Time
	IncidentType string
	Severity     IncidentSeverity
	Description  string
	Source       string
	SourceURL    string
	Status       IncidentStatus
	Resolution   string
}

// BulkUploadColumns are the columns understood by a bulk upload; only supplier_name is required.
var BulkUploadColumns = []string{
	"supplier_name", "cert_type", "expiry_date", "audit_date",
	"audit_status", "next_audit_date", "incident_flag", "incident_type",
}

// BulkUploadResult reports an applied batch.
type BulkUploadResult struct {
	Processed int `json:"processed"`
}
