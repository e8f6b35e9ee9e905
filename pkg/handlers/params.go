package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/LunaGrandjean/LVMH-project/pkg/models"
)

// ParseSupplierName extracts the supplier name from the request path.
// Returns false after writing an error response when it is missing.
// Expects path parameter: name
func ParseSupplierName(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (string, bool) {
	name := strings.TrimSpace(r.PathValue("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "invalid_supplier", "Supplier name is required", logger)
		return "", false
	}
	return name, true
}

// queryList reads a multi-valued query parameter given either repeated or comma-separated.
func queryList(r *http.Request, key string) []string {
	var out []string
	for _, raw := range r.URL.Query()[key] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// parseDirectoryFilter reads ?risk=&country=&audit= into a filter.
func parseDirectoryFilter(r *http.Request) (models.DirectoryFilter, error) {
	var filter models.DirectoryFilter
	for _, v := range queryList(r, "risk") {
		level, err := models.ParseRiskLevel(v)
		if err != nil {
			return filter, err
		}
		filter.RiskLevels = append(filter.RiskLevels, level)
	}
	for _, v := range queryList(r, "audit") {
		status, err := models.ParseAuditStatus(v)
		if err != nil {
			return filter, err
		}
		filter.AuditStatuses = append(filter.AuditStatuses, status)
	}
	filter.Countries = queryList(r, "country")
	return filter, nil
}

// parseActivityFilter reads ?action=&supplier=&days= into a filter.
func parseActivityFilter(r *http.Request) (models.ActivityFilter, error) {
	q := r.URL.Query()
	filter := models.ActivityFilter{Supplier: strings.TrimSpace(q.Get("supplier"))}
	if action := q.Get("action"); action != "" {
		a, err := models.ParseActivityAction(action)
		if err != nil {
			return filter, err
		}
		filter.Action = a
	}
	if days := q.Get("days"); days != "" {
		n, err := strconv.Atoi(days)
		if err != nil || n < 1 || n > models.MaxHistoryDays {
			return filter, fmt.Errorf("days must be between 1 and %d", models.MaxHistoryDays)
		}
		filter.DaysBack = n
	}
	return filter, nil
}

// parseRequiredDate parses a YYYY-MM-DD request field.
func parseRequiredDate(field, value string) (time.Time, error) {
	d, err := parseOptionalDate(field, value)
	if err != nil {
		return time.Time{}, err
	}
	if d == nil {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}
	return *d, nil
}

func parseOptionalDate(field, value string) (*time.Time, error) {
	d, err := models.ParseDate(value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}
