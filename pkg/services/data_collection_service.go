package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/LunaGrandjean/LVMH-project/pkg/apperrors"
	"github.com/LunaGrandjean/LVMH-project/pkg/models"
	"github.com/LunaGrandjean/LVMH-project/pkg/repositories"
)

// DataCollectionService applies operator edits to the supplier table and records each one in
// the activity log. Every action reloads the table, applies one mutation, persists the table
// and then appends the log entry.
type DataCollectionService interface {
	UpdateCertification(ctx context.Context, update models.CertificationUpdate) (*models.ActivityLogEntry, error)
	RecordAudit(ctx context.Context, update models.AuditUpdate) (*models.ActivityLogEntry, error)
	ReportIncident(ctx context.Context, report models.IncidentReport) (*models.ActivityLogEntry, error)
	// ClearIncident returns apperrors.ErrNoIncident when the supplier has no incident flagged.
	ClearIncident(ctx context.Context, supplier string) (*models.ActivityLogEntry, error)

	// BulkUpload applies a CSV batch. Every row is checked against the table first; if any row
	// names an unknown supplier a *apperrors.BulkValidationError is returned and nothing is written.
	BulkUpload(ctx context.Context, src io.Reader) (*models.BulkUploadResult, error)

	History(ctx context.Context, filter models.ActivityFilter) (*models.ActivityHistory, error)
	HistorySuppliers(ctx context.Context) ([]string, error)
}

type dataCollectionService struct {
	suppliers repositories.SupplierRepository
	activity  repositories.ActivityLogRepository
	logger    *zap.Logger

	// mu serializes read-modify-write cycles on the table.
	mu sync.Mutex
}

func NewDataCollectionService(
	suppliers repositories.SupplierRepository,
	activity repositories.ActivityLogRepository,
	logger *zap.Logger,
) DataCollectionService {
	return &dataCollectionService{
		suppliers: suppliers,
		activity:  activity,
		logger:    logger.Named("data-collection"),
	}
}

var _ DataCollectionService = (*dataCollectionService)(nil)

// mutate runs apply against the named supplier and persists the table, then appends the entry
// apply returns.
func (s *dataCollectionService) mutate(
	ctx context.Context,
	name string,
	apply func(sup *models.Supplier) (*models.ActivityLogEntry, error),
) (*models.ActivityLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	suppliers, err := s.suppliers.Load(ctx)
	if err != nil {
		return nil, err
	}
	sup := findSupplier(suppliers, name)
	if sup == nil {
		return nil, fmt.Errorf("supplier %q: %w", name, apperrors.ErrUnknownSupplier)
	}

	entry, err := apply(sup)
	if err != nil {
		return nil, err
	}
	entry.Supplier = sup.Name

	if err := s.suppliers.Save(ctx, suppliers); err != nil {
		return nil, err
	}
	if err := s.activity.Append(ctx, entry); err != nil {
		s.logger.Error("Table updated but activity entry was not recorded",
			zap.String("supplier", sup.Name),
			zap.String("action", string(entry.Action)),
			zap.Error(err))
		return nil, fmt.Errorf("record %s: %w", entry.Action, err)
	}
	return entry, nil
}

func findSupplier(suppliers []*models.Supplier, name string) *models.Supplier {
	for _, sup := range suppliers {
		if sup.Name == name {
			return sup
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperrors.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func optionalDateString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := models.FormatDate(t)
	return &s
}

func optionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (s *dataCollectionService) UpdateCertification(ctx context.Context, update models.CertificationUpdate) (*models.ActivityLogEntry, error) {
	kind, err := models.ParseCertificationKind(string(update.CertType))
	if err != nil {
		return nil, invalid("%v", err)
	}
	if update.ExpiryDate.IsZero() {
		return nil, invalid("expiry date is required")
	}

	return s.mutate(ctx, update.Supplier, func(sup *models.Supplier) (*models.ActivityLogEntry, error) {
		sup.SetCertification(kind, update.ExpiryDate)

		fileUploaded := update.FileUploaded
		return &models.ActivityLogEntry{
			Action:       models.ActionCertificationUpdate,
			CertType:     string(kind),
			ExpiryDate:   models.FormatDate(&update.ExpiryDate),
			IssueDate:    optionalDateString(update.IssueDate),
			Notes:        update.Notes,
			FileUploaded: &fileUploaded,
		}, nil
	})
}

func (s *dataCollectionService) RecordAudit(ctx context.Context, update models.AuditUpdate) (*models.ActivityLogEntry, error) {
	status, err := models.ParseAuditStatus(string(update.Status))
	if err != nil {
		return nil, invalid("%v", err)
	}
	if update.AuditDate.IsZero() {
		return nil, invalid("audit date is required")
	}

	return s.mutate(ctx, update.Supplier, func(sup *models.Supplier) (*models.ActivityLogEntry, error) {
		auditDate := update.AuditDate
		sup.LastAuditDate = &auditDate
		sup.AuditStatus = status
		if update.NextAuditDate != nil {
			next := *update.NextAuditDate
			sup.NextAuditDate = &next
		}

		entry := &models.ActivityLogEntry{
			Action:    models.ActionAuditUpdate,
			AuditType: update.AuditType,
			AuditDate: models.FormatDate(&auditDate),
			Status:    string(status),
			Auditor:   update.Auditor,
			NextAudit: optionalDateString(update.NextAuditDate),
			Findings:  update.Findings,
		}
		// Corrective actions only apply to failed audits.
		if status == models.AuditFailed {
			entry.CorrectiveAction = optionalText(update.CorrectiveAction)
		}
		return entry, nil
	})
}

func (s *dataCollectionService) ReportIncident(ctx context.Context, report models.IncidentReport) (*models.ActivityLogEntry, error) {
	severity, err := models.ParseIncidentSeverity(string(report.Severity))
	if err != nil {
		return nil, invalid("%v", err)
	}
	status, err := models.ParseIncidentStatus(string(report.Status))
	if err != nil {
		return nil, invalid("%v", err)
	}
	incidentDate := report.IncidentDate
	if incidentDate.IsZero() {
		incidentDate = time.Now().UTC()
	}

	return s.mutate(ctx, report.Supplier, func(sup *models.Supplier) (*models.ActivityLogEntry, error) {
		sup.SetIncident(report.IncidentType)

		entry := &models.ActivityLogEntry{
			Action:       models.ActionIncidentReport,
			IncidentDate: incidentDate.Format(models.DateLayout),
			IncidentType: sup.IncidentType,
			Severity:     string(severity),
			Description:  report.Description,
			Source:       report.Source,
			SourceURL:    report.SourceURL,
			Status:       string(status),
		}
		if status != models.IncidentOpen {
			entry.Resolution = optionalText(report.Resolution)
		}
		return entry, nil
	})
}

func (s *dataCollectionService) ClearIncident(ctx context.Context, supplier string) (*models.ActivityLogEntry, error) {
	return s.mutate(ctx, supplier, func(sup *models.Supplier) (*models.ActivityLogEntry, error) {
		if !sup.HasIncidents {
			return nil, fmt.Errorf("supplier %q: %w", sup.Name, apperrors.ErrNoIncident)
		}
		previous := sup.IncidentType
		sup.ClearIncident()
		return &models.ActivityLogEntry{
			Action:               models.ActionIncidentCleared,
			PreviousIncidentType: previous,
		}, nil
	})
}

// bulkRow is one parsed upload line; cells holds every column of the row by header name.
type bulkRow struct {
	line  int
	cells map[string]string
}

func (r bulkRow) get(column string) (string, bool) {
	v, ok := r.cells[column]
	if !ok || models.IsNullMarker(v) {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func readBulkRows(src io.Reader) ([]bulkRow, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, invalid("upload is empty")
	}
	if err != nil {
		return nil, invalid("read upload header: %v", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	if !contains(header, "supplier_name") {
		return nil, &apperrors.BulkValidationError{Errors: []string{"missing required column: supplier_name"}}
	}

	var rows []bulkRow
	for idx := 0; ; idx++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, invalid("read upload: %v", err)
		}
		cells := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				cells[col] = record[i]
			} else {
				cells[col] = ""
			}
		}
		// Row numbers match the spreadsheet view: the header is row 1.
		rows = append(rows, bulkRow{line: idx + 2, cells: cells})
	}
	if len(rows) == 0 {
		return nil, invalid("upload has no rows")
	}
	return rows, nil
}

func (s *dataCollectionService) BulkUpload(ctx context.Context, src io.Reader) (*models.BulkUploadResult, error) {
	rows, err := readBulkRows(src)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	suppliers, err := s.suppliers.Load(ctx)
	if err != nil {
		return nil, err
	}

	var problems []string
	for _, row := range rows {
		name, _ := row.get("supplier_name")
		if findSupplier(suppliers, name) == nil {
			problems = append(problems, fmt.Sprintf("Row %d: Supplier '%s' not found in database", row.line, name))
		}
	}
	if len(problems) > 0 {
		s.logger.Warn("Rejected bulk upload",
			zap.Int("rows", len(rows)),
			zap.Int("errors", len(problems)))
		return nil, &apperrors.BulkValidationError{Errors: problems}
	}

	for _, row := range rows {
		name, _ := row.get("supplier_name")
		s.applyBulkRow(findSupplier(suppliers, name), row)
	}

	if err := s.suppliers.Save(ctx, suppliers); err != nil {
		return nil, err
	}

	for _, row := range rows {
		name, _ := row.get("supplier_name")
		entry := &models.ActivityLogEntry{
			Action:   models.ActionBulkUpload,
			Supplier: name,
			Data:     row.cells,
		}
		if err := s.activity.Append(ctx, entry); err != nil {
			s.logger.Error("Table updated but bulk entry was not recorded",
				zap.String("supplier", name),
				zap.Int("row", row.line),
				zap.Error(err))
			return nil, fmt.Errorf("record bulk upload row %d: %w", row.line, err)
		}
	}

	s.logger.Info("Applied bulk upload", zap.Int("rows", len(rows)))
	return &models.BulkUploadResult{Processed: len(rows)}, nil
}

// applyBulkRow copies the populated cells of row onto sup. Cells that cannot be interpreted are
// skipped; only supplier existence gates a batch.
func (s *dataCollectionService) applyBulkRow(sup *models.Supplier, row bulkRow) {
	if certType, ok := row.get("cert_type"); ok {
		kind, kindErr := models.ParseCertificationKind(certType)
		expiry := s.bulkDate(sup.Name, row, "expiry_date")
		if kindErr == nil && expiry != nil {
			sup.SetCertification(kind, *expiry)
		}
	}

	if auditDate := s.bulkDate(sup.Name, row, "audit_date"); auditDate != nil {
		sup.LastAuditDate = auditDate
	}
	if raw, ok := row.get("audit_status"); ok {
		if status, err := models.ParseAuditStatus(raw); err == nil {
			sup.AuditStatus = status
		} else {
			s.logger.Warn("Skipping bulk audit status",
				zap.String("supplier", sup.Name),
				zap.Int("row", row.line),
				zap.Error(err))
		}
	}
	if next := s.bulkDate(sup.Name, row, "next_audit_date"); next != nil {
		sup.NextAuditDate = next
	}

	incidentType, hasType := row.get("incident_type")
	if flag, ok := row.get("incident_flag"); ok {
		if repositories.ParseBool(flag) {
			if !hasType {
				incidentType = sup.IncidentType
			}
			sup.SetIncident(incidentType)
		} else {
			sup.ClearIncident()
		}
	} else if hasType {
		sup.SetIncident(incidentType)
	}
}

func (s *dataCollectionService) bulkDate(supplier string, row bulkRow, column string) *time.Time {
	raw, ok := row.get(column)
	if !ok {
		return nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		s.logger.Warn("Skipping bulk date",
			zap.String("supplier", supplier),
			zap.String("column", column),
			zap.Int("row", row.line),
			zap.Error(err))
		return nil
	}
	return d
}

func (s *dataCollectionService) History(ctx context.Context, filter models.ActivityFilter) (*models.ActivityHistory, error) {
	return s.activity.Query(ctx, filter)
}

func (s *dataCollectionService) HistorySuppliers(ctx context.Context) ([]string, error) {
	return s.activity.Suppliers(ctx)
}
