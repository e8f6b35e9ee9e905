package repositories

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/LunaGrandjean/LVMH-project/pkg/apperrors"
	"github.com/LunaGrandjean/LVMH-project/pkg/models"
)

// Supplier table columns in canonical write order.
const (
	colName               = "name"
	colCountry            = "country"
	colCity               = "city"
	colCategory           = "category"
	colAddress            = "address"
	colPostalCode         = "postal_code"
	colEmployees          = "employees"
	colProductionCapacity = "production_capacity"
	colCertifications     = "certifications"
	colCertificationScore = "certification_score"
	colLastAuditDate      = "last_audit_date"
	colAuditStatus        = "audit_status"
	colNextAuditDate      = "next_audit_date"
	colHasIncidents       = "has_incidents"
	colIncidentType       = "incident_type"
	colGeopoliticalRisk   = "geopolitical_risk"
	colEnvironmentalRisk  = "environmental_risk"
	colComplianceRisk     = "compliance_risk"
)

// certificationColumns maps each kind to its expiry column. RWS keeps the historical
// "rwas_expiry" name.
var certificationColumns = map[models.CertificationKind]string{
	models.CertGRS:      "grs_expiry",
	models.CertZDHC:     "zdhc_expiry",
	models.CertGOTS:     "gots_expiry",
	models.CertRWS:      "rwas_expiry",
	models.CertWRAPGold: "wrap_expiry",
}

// SupplierColumns is the canonical header of the supplier table.
var SupplierColumns = []string{
	colName, colCountry, colCity, colCategory, colAddress, colPostalCode, colEmployees,
	colProductionCapacity, colCertifications, colCertificationScore,
	"grs_expiry", "zdhc_expiry", "gots_expiry", "rwas_expiry", "wrap_expiry",
	colLastAuditDate, colAuditStatus, colNextAuditDate, colHasIncidents, colIncidentType,
	colGeopoliticalRisk, colEnvironmentalRisk, colComplianceRisk,
}

// SupplierRepository loads and persists the canonical supplier table.
type SupplierRepository interface {
	// Load reads every supplier row. Any failure to open or parse the table is an error.
	Load(ctx context.Context) ([]*models.Supplier, error)

	// Save replaces the table atomically: readers see either the old or the new table.
	Save(ctx context.Context, suppliers []*models.Supplier) error

	// Path returns the table location.
	Path() string
}

type csvSupplierRepository struct {
	path   string
	logger *zap.Logger
}

// NewSupplierRepository creates a repository over a CSV file.
func NewSupplierRepository(path string, logger *zap.Logger) SupplierRepository {
	return &csvSupplierRepository{
		path:   path,
		logger: logger.Named("supplier-repository"),
	}
}

var _ SupplierRepository = (*csvSupplierRepository)(nil)

func (r *csvSupplierRepository) Path() string {
	return r.path
}

func (r *csvSupplierRepository) Load(ctx context.Context) ([]*models.Supplier, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(r.path)
	if err != nil {
		return nil, &apperrors.TableError{Op: "load", Err: err}
	}
	defer f.Close()

	suppliers, err := r.decode(f)
	if err != nil {
		return nil, &apperrors.TableError{Op: "load", Err: err}
	}
	return suppliers, nil
}

func (r *csvSupplierRepository) decode(src io.Reader) ([]*models.Supplier, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("table is empty")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	if _, ok := index[colName]; !ok {
		return nil, fmt.Errorf("missing required column %q", colName)
	}

	known := make(map[string]bool, len(SupplierColumns))
	for _, c := range SupplierColumns {
		known[c] = true
	}

	var suppliers []*models.Supplier
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}

		cell := func(col string) string {
			if i, ok := index[col]; ok && i < len(record) {
				v := strings.TrimSpace(record[i])
				if models.IsNullMarker(v) {
					return ""
				}
				return v
			}
			return ""
		}

		s := r.decodeRow(line, cell)
		if s == nil {
			continue
		}
		for col, i := range index {
			if !known[col] && i < len(record) {
				if s.Extra == nil {
					s.Extra = make(map[string]string)
				}
				s.Extra[col] = record[i]
			}
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, nil
}

func (r *csvSupplierRepository) decodeRow(line int, cell func(string) string) *models.Supplier {
	name := cell(colName)
	if name == "" {
		r.logger.Warn("Skipping supplier row without a name", zap.Int("row", line))
		return nil
	}

	s := &models.Supplier{
		Name:               name,
		Country:            cell(colCountry),
		City:               cell(colCity),
		Category:           cell(colCategory),
		Address:            cell(colAddress),
		PostalCode:         cell(colPostalCode),
		ProductionCapacity: cell(colProductionCapacity),
		CertificationsText: cell(colCertifications),
		CertificationScore: cell(colCertificationScore),
		IncidentType:       cell(colIncidentType),
		GeopoliticalRisk:   models.RiskBucket(cell(colGeopoliticalRisk)),
		EnvironmentalRisk:  models.RiskBucket(cell(colEnvironmentalRisk)),
		ComplianceRisk:     models.RiskBucket(cell(colComplianceRisk)),
	}

	if v := cell(colEmployees); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			r.logger.Warn("Ignoring invalid employee count",
				zap.String("supplier", name), zap.String("value", v))
		} else {
			s.Employees = int(n)
		}
	}

	for _, kind := range models.CertificationKinds {
		raw := cell(certificationColumns[kind])
		expiry, err := models.ParseDate(raw)
		if err != nil {
			r.logger.Warn("Treating unparsable certification date as absent",
				zap.String("supplier", name),
				zap.String("certification", string(kind)),
				zap.String("value", raw))
			continue
		}
		if expiry != nil {
			s.SetCertification(kind, *expiry)
		}
	}

	s.LastAuditDate = r.optionalDate(name, colLastAuditDate, cell(colLastAuditDate))
	s.NextAuditDate = r.optionalDate(name, colNextAuditDate, cell(colNextAuditDate))

	if v := cell(colAuditStatus); v != "" {
		status, err := models.ParseAuditStatus(v)
		if err != nil {
			r.logger.Warn("Keeping unrecognized audit status verbatim",
				zap.String("supplier", name), zap.String("value", v))
			status = models.AuditStatus(v)
		}
		s.AuditStatus = status
	}

	s.HasIncidents = ParseBool(cell(colHasIncidents))
	s.NormalizeIncident()
	return s
}

func (r *csvSupplierRepository) optionalDate(supplier, column, raw string) *time.Time {
	d, err := models.ParseDate(raw)
	if err != nil {
		r.logger.Warn("Treating unparsable date as absent",
			zap.String("supplier", supplier),
			zap.String("column", column),
			zap.String("value", raw))
		return nil
	}
	return d
}

func (r *csvSupplierRepository) Save(ctx context.Context, suppliers []*models.Supplier) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return &apperrors.TableError{Op: "save", Err: err}
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	// CreateTemp uses 0600; the replacement keeps the table's current mode.
	mode := os.FileMode(0o644)
	if info, err := os.Stat(r.path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		return &apperrors.TableError{Op: "save", Err: err}
	}

	if err := EncodeSuppliers(tmp, suppliers); err != nil {
		return &apperrors.TableError{Op: "save", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return &apperrors.TableError{Op: "save", Err: fmt.Errorf("sync: %w", err)}
	}
	if err := tmp.Close(); err != nil {
		return &apperrors.TableError{Op: "save", Err: fmt.Errorf("close: %w", err)}
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return &apperrors.TableError{Op: "save", Err: fmt.Errorf("rename: %w", err)}
	}
	committed = true

	r.logger.Debug("Saved supplier table",
		zap.String("path", r.path),
		zap.Int("rows", len(suppliers)))
	return nil
}

// EncodeSuppliers writes the table as CSV: canonical columns first, then any extra columns
// carried by the rows in sorted order.
func EncodeSuppliers(w io.Writer, suppliers []*models.Supplier) error {
	extraSet := make(map[string]struct{})
	for _, s := range suppliers {
		for k := range s.Extra {
			extraSet[k] = struct{}{}
		}
	}
	extras := make([]string, 0, len(extraSet))
	for k := range extraSet {
		extras = append(extras, k)
	}
	sort.Strings(extras)

	writer := csv.NewWriter(w)
	if err := writer.Write(append(append([]string{}, SupplierColumns...), extras...)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, s := range suppliers {
		record := []string{
			s.Name, s.Country, s.City, s.Category, s.Address, s.PostalCode,
			formatEmployees(s.Employees), s.ProductionCapacity, s.CertificationsText, s.CertificationScore,
		}
		for _, kind := range models.CertificationKinds {
			record = append(record, formatCertification(s, kind))
		}
		record = append(record,
			models.FormatDate(s.LastAuditDate),
			string(s.AuditStatus),
			models.FormatDate(s.NextAuditDate),
			FormatBool(s.HasIncidents),
			s.IncidentType,
			string(s.GeopoliticalRisk),
			string(s.EnvironmentalRisk),
			string(s.ComplianceRisk),
		)
		for _, k := range extras {
			record = append(record, s.Extra[k])
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row %q: %w", s.Name, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatCertification(s *models.Supplier, kind models.CertificationKind) string {
	expiry, ok := s.Certifications[kind]
	if !ok {
		return ""
	}
	return models.FormatDate(&expiry)
}

func formatEmployees(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// ParseBool reads the truthy spellings found in spreadsheets and pandas exports.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y", "t":
		return true
	}
	return false
}

// FormatBool writes booleans the way the table has always stored them.
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
