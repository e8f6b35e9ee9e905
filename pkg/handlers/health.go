package handlers

import (
	"net/http"
	"os"
	"runtime"

	"go.uber.org/zap"

	"github.com/LunaGrandjean/LVMH-project/pkg/config"
)

// PingResponse describes the running risk engine and where it reads its data from.
type PingResponse struct {
	Status             string `json:"status"`
	Version            string `json:"version"`
	Service            string `json:"service"`
	GoVersion          string `json:"go_version"`
	Environment        string `json:"environment"`
	SupplierTable      string `json:"supplier_table"`
	EnrichmentEnabled  bool   `json:"enrichment_enabled"`
	EnrichmentProvider string `json:"enrichment_provider,omitempty"`
	EnrichmentModel    string `json:"enrichment_model,omitempty"`
}

// HealthHandler serves liveness, readiness and build information.
type HealthHandler struct {
	cfg    *config.Config
	logger *zap.Logger
}

func NewHealthHandler(cfg *config.Config, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, logger: logger}
}

func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ready", h.Ready)
	mux.HandleFunc("GET /ping", h.Ping)
}

// Health answers as long as the process serves HTTP.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports 503 when the supplier table is missing or is not a regular file.
// Enrichment is never part of readiness: the engine scores offline.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	path := h.cfg.Data.SupplierTablePath
	info, err := os.Stat(path)
	if err == nil && !info.Mode().IsRegular() {
		err = os.ErrInvalid
	}
	if err != nil {
		h.logger.Warn("Supplier table not ready", zap.String("path", path), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "table_unavailable", "supplier table is not readable", h.logger)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	response := PingResponse{
		Status:            "ok",
		Version:           h.cfg.Version,
		Service:           "supplier-risk-engine",
		GoVersion:         runtime.Version(),
		Environment:       h.cfg.Env,
		SupplierTable:     h.cfg.Data.SupplierTablePath,
		EnrichmentEnabled: h.cfg.Enrichment.Enabled(),
	}
	if response.EnrichmentEnabled {
		response.EnrichmentProvider = h.cfg.Enrichment.Provider
		response.EnrichmentModel = h.cfg.Enrichment.Model
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}
