// Package report renders the annotated supplier table as a downloadable CSV.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/LunaGrandjean/LVMH-project/pkg/models"
)

// ScorePrecision is the number of decimals published for a risk score.
const ScorePrecision = 3

// Columns is the export header.
var Columns = []string{
	"name", "country", "category", "certifications",
	"risk_level", "overall_risk_score", "audit_status", "days_to_expiry",
}

// Row is one exported supplier.
type Row struct {
	Name           string
	Country        string
	Category       string
	Certifications string
	RiskLevel      models.RiskLevel
	Score          decimal.Decimal
	AuditStatus    string
	DaysToExpiry   int
}

// NewRow builds an export row from a supplier and its assessment.
func NewRow(s *models.Supplier, a models.RiskAssessment) Row {
	return Row{
		Name:           s.Name,
		Country:        s.Country,
		Category:       s.Category,
		Certifications: s.CertificationsText,
		RiskLevel:      a.Level,
		Score:          RoundScore(a.Score),
		AuditStatus:    string(s.AuditStatus),
		DaysToExpiry:   a.NearestExpiryDays,
	}
}

// RoundScore rounds a score to the published precision.
func RoundScore(score float64) decimal.Decimal {
	return decimal.NewFromFloat(score).Round(ScorePrecision)
}

// FormatScore renders a score exactly as it appears in exports and views.
func FormatScore(score float64) string {
	return decimal.NewFromFloat(score).StringFixed(ScorePrecision)
}

// Filename returns the export name for the given day.
func Filename(now time.Time) string {
	return fmt.Sprintf("supplier_risk_report_%s.csv", now.Format("20060102"))
}

// WriteSupplierReport writes rows as CSV with the Columns header.
func WriteSupplierReport(w io.Writer, rows []Row) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Columns); err != nil {
		return fmt.Errorf("write report header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.Name,
			row.Country,
			row.Category,
			row.Certifications,
			string(row.RiskLevel),
			row.Score.StringFixed(ScorePrecision),
			row.AuditStatus,
			strconv.Itoa(row.DaysToExpiry),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write report row %q: %w", row.Name, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ParseSupplierReport reads a report produced by WriteSupplierReport.
func ParseSupplierReport(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read report header: %w", err)
	}
	if strings.Join(header, ",") != strings.Join(Columns, ",") {
		return nil, fmt.Errorf("unexpected report header: %v", header)
	}

	var rows []Row
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read report row %d: %w", line, err)
		}
		score, err := decimal.NewFromString(record[5])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid score %q: %w", line, record[5], err)
		}
		days, err := strconv.Atoi(record[7])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid days_to_expiry %q: %w", line, record[7], err)
		}
		rows = append(rows, Row{
			Name:           record[0],
			Country:        record[1],
			Category:       record[2],
			Certifications: record[3],
			RiskLevel:      models.RiskLevel(record[4]),
			Score:          score,
			AuditStatus:    record[6],
			DaysToExpiry:   days,
		})
	}
	return rows, nil
}
