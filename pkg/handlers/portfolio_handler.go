package handlers

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/LunaGrandjean/LVMH-project/pkg/report"
	"github.com/LunaGrandjean/LVMH-project/pkg/services"
)

// PortfolioHandler serves the read-only supplier views and the CSV export.
type PortfolioHandler struct {
	portfolio services.PortfolioService
	logger    *zap.Logger
	now       func() time.Time
}

// NewPortfolioHandler creates a new portfolio handler.
func NewPortfolioHandler(portfolio services.PortfolioService, logger *zap.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		portfolio: portfolio,
		logger:    logger,
		now:       time.Now,
	}
}

// RegisterRoutes registers the portfolio handler's routes on the given mux.
func (h *PortfolioHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/dashboard", h.Dashboard)
	mux.HandleFunc("GET /api/suppliers", h.Directory)
	mux.HandleFunc("GET /api/suppliers/{name}", h.Detail)
	mux.HandleFunc("GET /api/certifications", h.CertificationTracker)
	mux.HandleFunc("GET /api/risk-assessment", h.RiskAssessment)
	mux.HandleFunc("GET /api/analytics", h.Analytics)
	mux.HandleFunc("GET /api/export", h.Export)
}

// Dashboard handles GET /api/dashboard
func (h *PortfolioHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.portfolio.Dashboard(r.Context())
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, d, h.logger)
}

// Directory handles GET /api/suppliers?risk=&country=&audit=
func (h *PortfolioHandler) Directory(w http.ResponseWriter, r *http.Request) {
	filter, err := parseDirectoryFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_filter", err.Error(), h.logger)
		return
	}

	dir, err := h.portfolio.Directory(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, dir, h.logger)
}

// Detail handles GET /api/suppliers/{name}
func (h *PortfolioHandler) Detail(w http.ResponseWriter, r *http.Request) {
	name, ok := ParseSupplierName(w, r, h.logger)
	if !ok {
		return
	}

	detail, err := h.portfolio.Detail(r.Context(), name)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, detail, h.logger)
}

// CertificationTracker handles GET /api/certifications
func (h *PortfolioHandler) CertificationTracker(w http.ResponseWriter, r *http.Request) {
	tracker, err := h.portfolio.CertificationTracker(r.Context())
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, tracker, h.logger)
}

// RiskAssessment handles GET /api/risk-assessment
func (h *PortfolioHandler) RiskAssessment(w http.ResponseWriter, r *http.Request) {
	view, err := h.portfolio.RiskAssessment(r.Context())
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, view, h.logger)
}

// Analytics handles GET /api/analytics
func (h *PortfolioHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	a, err := h.portfolio.Analytics(r.Context())
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, a, h.logger)
}

// Export handles GET /api/export and streams the report as a CSV attachment.
func (h *PortfolioHandler) Export(w http.ResponseWriter, r *http.Request) {
	rows, err := h.portfolio.ExportRows(r.Context())
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	// Render fully before writing headers so a failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := report.WriteSupplierReport(&buf, rows); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename(h.now())+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("Failed to write export", zap.Error(err))
	}
}
