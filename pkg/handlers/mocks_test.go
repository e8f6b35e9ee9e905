package handlers

import (
	"context"
	"io"

	"github.com/LunaGrandjean/LVMH-project/pkg/models"
	"github.com/LunaGrandjean/LVMH-project/pkg/report"
	"github.com/LunaGrandjean/LVMH-project/pkg/services"
)

// mockPortfolioService returns canned views; err, when set, is returned by every method.
type mockPortfolioService struct {
	scored     []*models.ScoredSupplier
	dashboard  *models.Dashboard
	detail     *models.SupplierDetail
	rows       []report.Row
	err        error
	lastFilter models.DirectoryFilter
	lastName   string
}

var _ services.PortfolioService = (*mockPortfolioService)(nil)

func (m *mockPortfolioService) Annotate(ctx context.Context) ([]*models.ScoredSupplier, error) {
	return m.scored, m.err
}

func (m *mockPortfolioService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.dashboard, nil
}

func (m *mockPortfolioService) Directory(ctx context.Context, filter models.DirectoryFilter) (*models.Directory, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, m.err
	}
	return &models.Directory{Suppliers: []models.SupplierSummary{}, Total: len(m.scored)}, nil
}

func (m *mockPortfolioService) Detail(ctx context.Context, name string) (*models.SupplierDetail, error) {
	m.lastName = name
	if m.err != nil {
		return nil, m.err
	}
	return m.detail, nil
}

func (m *mockPortfolioService) CertificationTracker(ctx context.Context) (*models.CertificationTracker, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.CertificationTracker{}, nil
}

func (m *mockPortfolioService) RiskAssessment(ctx context.Context) (*models.RiskAssessmentView, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.RiskAssessmentView{}, nil
}

func (m *mockPortfolioService) Analytics(ctx context.Context) (*models.Analytics, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Analytics{TotalSuppliers: len(m.scored)}, nil
}

func (m *mockPortfolioService) ExportRows(ctx context.Context) ([]report.Row, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rows, nil
}

// mockDataCollectionService records the last request of each kind.
type mockDataCollectionService struct {
	err error

	certUpdate     models.CertificationUpdate
	auditUpdate    models.AuditUpdate
	incidentReport models.IncidentReport
	clearedName    string
	uploaded       string
	historyFilter  models.ActivityFilter
	history        *models.ActivityHistory
}

var _ services.DataCollectionService = (*mockDataCollectionService)(nil)

func (m *mockDataCollectionService) entry(action models.ActivityAction, supplier string) (*models.ActivityLogEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.ActivityLogEntry{Action: action, Supplier: supplier}, nil
}

func (m *mockDataCollectionService) UpdateCertification(ctx context.Context, update models.CertificationUpdate) (*models.ActivityLogEntry, error) {
	m.certUpdate = update
	return m.entry(models.ActionCertificationUpdate, update.Supplier)
}

func (m *mockDataCollectionService) RecordAudit(ctx context.Context, update models.AuditUpdate) (*models.ActivityLogEntry, error) {
	m.auditUpdate = update
	return m.entry(models.ActionAuditUpdate, update.Supplier)
}

func (m *mockDataCollectionService) ReportIncident(ctx context.Context, report models.IncidentReport) (*models.ActivityLogEntry, error) {
	m.incidentReport = report
	return m.entry(models.ActionIncidentReport, report.Supplier)
}

func (m *mockDataCollectionService) ClearIncident(ctx context.Context, supplier string) (*models.ActivityLogEntry, error) {
	m.clearedName = supplier
	return m.entry(models.ActionIncidentCleared, supplier)
}

func (m *mockDataCollectionService) BulkUpload(ctx context.Context, src io.Reader) (*models.BulkUploadResult, error) {
	body, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	m.uploaded = string(body)
	if m.err != nil {
		return nil, m.err
	}
	return &models.BulkUploadResult{Processed: 1}, nil
}

func (m *mockDataCollectionService) History(ctx context.Context, filter models.ActivityFilter) (*models.ActivityHistory, error) {
	m.historyFilter = filter
	if m.err != nil {
		return nil, m.err
	}
	if m.history != nil {
		return m.history, nil
	}
	return &models.ActivityHistory{}, nil
}

func (m *mockDataCollectionService) HistorySuppliers(ctx context.Context) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []string{"Delta Knits"}, nil
}
