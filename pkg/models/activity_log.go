package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ActivityAction identifies the kind of operator mutation recorded in the activity log.
type ActivityAction string

const (
	ActionCertificationUpdate ActivityAction = "certification_update"
	ActionAuditUpdate         ActivityAction = "audit_update"
	ActionIncidentReport      ActivityAction = "incident_report"
	ActionIncidentCleared     ActivityAction = "incident_cleared"
	ActionBulkUpload          ActivityAction = "bulk_upload"
)

// ActivityActions lists every action kind accepted by history filters.
var ActivityActions = []ActivityAction{
	ActionCertificationUpdate,
	ActionAuditUpdate,
	ActionIncidentReport,
	ActionIncidentCleared,
	ActionBulkUpload,
}

// ParseActivityAction validates an action filter value.
func ParseActivityAction(s string) (ActivityAction, error) {
	for _, a := range ActivityActions {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("invalid action: %q", s)
}

// History query bounds.
const (
	MaxHistoryEntries  = 50
	DefaultHistoryDays = 30
	MaxHistoryDays     = 365
)

// ActivityLogEntry is one immutable line of the JSON-lines activity log.
// Only the fields relevant to Action are populated; readers ignore fields they don't know.
type ActivityLogEntry struct {
	ID        uuid.UUID      `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Action    ActivityAction `json:"action"`
	Supplier  string         `json:"supplier"`

	// certification_update
	CertType     string  `json:"cert_type,omitempty"`
	ExpiryDate   string  `json:"expiry_date,omitempty"`
	IssueDate    *string `json:"issue_date,omitempty"`
	Notes        string  `json:"notes,omitempty"`
	FileUploaded *bool   `json:"file_uploaded,omitempty"`

	// audit_update
	AuditType        string  `json:"audit_type,omitempty"`
	AuditDate        string  `json:"audit_date,omitempty"`
	Auditor          string  `json:"auditor,omitempty"`
	NextAudit        *string `json:"next_audit,omitempty"`
	CorrectiveAction *string `json:"corrective_action,omitempty"`
	Findings         string  `json:"findings,omitempty"`

	// audit_update and incident_report share the status key.
	Status string `json:"status,omitempty"`

	// incident_report
	IncidentDate string  `json:"incident_date,omitempty"`
	IncidentType string  `json:"incident_type,omitempty"`
	Severity     string  `json:"severity,omitempty"`
	Description  string  `json:"description,omitempty"`
	Source       string  `json:"source,omitempty"`
	SourceURL    string  `json:"source_url,omitempty"`
	Resolution   *string `json:"resolution,omitempty"`

	// incident_cleared
	PreviousIncidentType string `json:"previous_incident_type,omitempty"`

	// bulk_upload
	Data map[string]string `json:"data,omitempty"`
}

// ActivityFilter narrows an activity history query. Zero values mean "all".
type ActivityFilter struct {
	Action   ActivityAction
	Supplier string
	// DaysBack is the trailing window in days; values outside 1..365 use the default of 30.
	DaysBack int
	// Now anchors the window; zero means time.Now().
	Now time.Time
}

// Window returns the effective trailing window length in days.
func (f ActivityFilter) Window() int {
	if f.DaysBack < 1 || f.DaysBack > MaxHistoryDays {
		return DefaultHistoryDays
	}
	return f.DaysBack
}

// ActivityHistory is a capped, newest-first page of log entries.
type ActivityHistory struct {
	Entries []*ActivityLogEntry `json:"entries"`
	// Total counts all matches before the display cap was applied.
	Total int `json:"total"`
}
