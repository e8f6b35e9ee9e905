package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/LunaGrandjean/LVMH-project/pkg/models"
	"github.com/LunaGrandjean/LVMH-project/pkg/services"
)

// maxUploadBytes bounds a bulk upload body.
const maxUploadBytes = 10 << 20

// ============================================================================
// Request/Response Types
// ============================================================================

// CertificationUpdateRequest for POST /api/suppliers/{name}/certifications
type CertificationUpdateRequest struct {
	CertType     string `json:"cert_type"`
	ExpiryDate   string `json:"expiry_date"`
	IssueDate    string `json:"issue_date,omitempty"`
	Notes        string `json:"notes,omitempty"`
	FileUploaded bool   `json:"file_uploaded,omitempty"`
}

// AuditUpdateRequest for POST /api/suppliers/{name}/audits
type AuditUpdateRequest struct {
	AuditType        string `json:"audit_type"`
	AuditDate        string `json:"audit_date"`
	Status           string `json:"status"`
	Auditor          string `json:"auditor,omitempty"`
	NextAuditDate    string `json:"next_audit_date,omitempty"`
	CorrectiveAction string `json:"corrective_action,omitempty"`
	Findings         string `json:"findings,omitempty"`
}

// IncidentReportRequest for POST /api/suppliers/{name}/incidents
type IncidentReportRequest struct {
	IncidentDate string `json:"incident_date,omitempty"`
	IncidentType string `json:"incident_type"`
	Severity     string `json:"severity,omitempty"`
	Description  string `json:"description,omitempty"`
	Source       string `json:"source,omitempty"`
	SourceURL    string `json:"source_url,omitempty"`
	Status       string `json:"status,omitempty"`
	Resolution   string `json:"resolution,omitempty"`
}

// HistoryResponse for GET /api/history
type HistoryResponse struct {
	Entries   []*models.ActivityLogEntry `json:"entries"`
	Shown     int                        `json:"shown"`
	Total     int                        `json:"total"`
	Suppliers []string                   `json:"suppliers"`
}

// ============================================================================
// Handler
// ============================================================================

// DataCollectionHandler accepts operator edits and serves the activity history.
type DataCollectionHandler struct {
	dataCollection services.DataCollectionService
	logger         *zap.Logger
}

// NewDataCollectionHandler creates a new data collection handler.
func NewDataCollectionHandler(dataCollection services.DataCollectionService, logger *zap.Logger) *DataCollectionHandler {
	return &DataCollectionHandler{
		dataCollection: dataCollection,
		logger:         logger,
	}
}

// RegisterRoutes registers the data collection handler's routes on the given mux.
func (h *DataCollectionHandler) RegisterRoutes(mux *http.ServeMux) {
	base := "/api/suppliers/{name}"

	mux.HandleFunc("POST "+base+"/certifications", h.UpdateCertification)
	mux.HandleFunc("POST "+base+"/audits", h.RecordAudit)
	mux.HandleFunc("POST "+base+"/incidents", h.ReportIncident)
	mux.HandleFunc("DELETE "+base+"/incidents", h.ClearIncident)
	mux.HandleFunc("POST /api/bulk-upload", h.BulkUpload)
	mux.HandleFunc("GET /api/history", h.History)
}

func (h *DataCollectionHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", h.logger)
		return false
	}
	return true
}

// UpdateCertification handles POST /api/suppliers/{name}/certifications
func (h *DataCollectionHandler) UpdateCertification(w http.ResponseWriter, r *http.Request) {
	name, ok := ParseSupplierName(w, r, h.logger)
	if !ok {
		return
	}
	var req CertificationUpdateRequest
	if !h.decode(w, r, &req) {
		return
	}

	expiry, err := parseRequiredDate("expiry_date", req.ExpiryDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error(), h.logger)
		return
	}
	issued, err := parseOptionalDate("issue_date", req.IssueDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error(), h.logger)
		return
	}

	entry, err := h.dataCollection.UpdateCertification(r.Context(), models.CertificationUpdate{
		Supplier:     name,
		CertType:     models.CertificationKind(req.CertType),
		ExpiryDate:   expiry,
		IssueDate:    issued,
		Notes:        req.Notes,
		FileUploaded: req.FileUploaded,
	})
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeData(w, http.StatusCreated, entry, h.logger)
}

// RecordAudit handles POST /api/suppliers/{name}/audits
func (h *DataCollectionHandler) RecordAudit(w http.ResponseWriter, r *http.Request) {
	name, ok := ParseSupplierName(w, r, h.logger)
	if !ok {
		return
	}
	var req AuditUpdateRequest
	if !h.decode(w, r, &req) {
		return
	}

	auditDate, err := parseRequiredDate("audit_date", req.AuditDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error(), h.logger)
		return
	}
	next, err := parseOptionalDate("next_audit_date", req.NextAuditDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error(), h.logger)
		return
	}

	entry, err := h.dataCollection.RecordAudit(r.Context(), models.AuditUpdate{
		Supplier:         name,
		AuditType:        req.AuditType,
		AuditDate:        auditDate,
		Status:           models.AuditStatus(req.Status),
		Auditor:          req.Auditor,
		NextAuditDate:    next,
		CorrectiveAction: req.CorrectiveAction,
		Findings:         req.Findings,
	})
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeData(w, http.StatusCreated, entry, h.logger)
}

// ReportIncident handles POST /api/suppliers/{name}/incidents
func (h *DataCollectionHandler) ReportIncident(w http.ResponseWriter, r *http.Request) {
	name, ok := ParseSupplierName(w, r, h.logger)
	if !ok {
		return
	}
	var req IncidentReportRequest
	if !h.decode(w, r, &req) {
		return
	}

	report := models.IncidentReport{
		Supplier:     name,
		IncidentType: req.IncidentType,
		Severity:     models.IncidentSeverity(req.Severity),
		Description:  req.Description,
		Source:       req.Source,
		SourceURL:    req.SourceURL,
		Status:       models.IncidentStatus(req.Status),
		Resolution:   req.Resolution,
	}
	incidentDate, err := parseOptionalDate("incident_date", req.IncidentDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error(), h.logger)
		return
	}
	if incidentDate != nil {
		report.IncidentDate = *incidentDate
	}

	entry, err := h.dataCollection.ReportIncident(r.Context(), report)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeData(w, http.StatusCreated, entry, h.logger)
}

// ClearIncident handles DELETE /api/suppliers/{name}/incidents
func (h *DataCollectionHandler) ClearIncident(w http.ResponseWriter, r *http.Request) {
	name, ok := ParseSupplierName(w, r, h.logger)
	if !ok {
		return
	}

	entry, err := h.dataCollection.ClearIncident(r.Context(), name)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, entry, h.logger)
}

// BulkUpload handles POST /api/bulk-upload with a CSV body.
func (h *DataCollectionHandler) BulkUpload(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxUploadBytes)

	result, err := h.dataCollection.BulkUpload(r.Context(), body)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, result, h.logger)
}

// History handles GET /api/history?action=&supplier=&days=
func (h *DataCollectionHandler) History(w http.ResponseWriter, r *http.Request) {
	filter, err := parseActivityFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_filter", err.Error(), h.logger)
		return
	}

	history, err := h.dataCollection.History(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	suppliers, err := h.dataCollection.HistorySuppliers(r.Context())
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	entries := history.Entries
	if entries == nil {
		entries = []*models.ActivityLogEntry{}
	}
	writeData(w, http.StatusOK, HistoryResponse{
		Entries:   entries,
		Shown:     len(entries),
		Total:     history.Total,
		Suppliers: suppliers,
	}, h.logger)
}
