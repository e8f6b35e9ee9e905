package services

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LunaGrandjean/LVMH-project/pkg/apperrors"
	"github.com/LunaGrandjean/LVMH-project/pkg/llm"
	"github.com/LunaGrandjean/LVMH-project/pkg/models"
	"github.com/LunaGrandjean/LVMH-project/pkg/repositories"
)

var portfolioNow = time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

func datePtr(t time.Time) *time.Time {
	return &t
}

// samplePortfolio returns four suppliers covering every risk level but Low.
func samplePortfolio() []*models.Supplier {
	return []*models.Supplier{
		{
			Name: "Paolo Tessitura", Country: "Italy", City: "Como", Category: "Silk",
			CertificationsText: "GOTS",
			Certifications:     map[models.CertificationKind]time.Time{models.CertGOTS: portfolioNow.AddDate(0, 0, 400)},
			AuditStatus:        models.AuditPassed,
			NextAuditDate:      datePtr(portfolioNow.AddDate(0, 0, 45)),
			GeopoliticalRisk:   models.BucketLow,
			EnvironmentalRisk:  models.BucketLow,
		},
		{
			Name: "Delta Knits", Country: "Bangladesh", City: "Dhaka", Category: "Denim",
			AuditStatus:       models.AuditFailed,
			HasIncidents:      true,
			IncidentType:      "Labor Violation",
			GeopoliticalRisk:  models.BucketMedium,
			EnvironmentalRisk: models.BucketHigh,
		},
		{
			Name: "Yangon Dye Works", Country: "Myanmar", City: "Yangon", Category: "Dyeing",
			AuditStatus:       models.AuditPending,
			GeopoliticalRisk:  models.BucketHigh,
			EnvironmentalRisk: models.BucketHigh,
		},
		{
			Name: "Porto Leather", Country: "Portugal", City: "Porto", Category: "Leather",
			CertificationsText: "GRS, RWS",
			Certifications: map[models.CertificationKind]time.Time{
				models.CertGRS: portfolioNow.AddDate(0, 0, -3),
				models.CertRWS: portfolioNow.AddDate(0, 0, 10),
			},
			AuditStatus: models.AuditPassed,
		},
	}
}

func newTestSupplierRepo(t *testing.T, suppliers []*models.Supplier) repositories.SupplierRepository {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, repositories.EncodeSuppliers(&buf, suppliers))
	path := filepath.Join(t.TempDir(), "suppliers.csv")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return repositories.NewSupplierRepository(path, zap.NewNop())
}

// myanmarOnlyClient enriches Myanmar at maximum risk and fails every other location.
func myanmarOnlyClient() *llm.MockLLMClient {
	mock := llm.NewMockLLMClient()
	mock.GenerateResponseFunc = func(_ context.Context, prompt, _ string, _ float64) (*llm.GenerateResponseResult, error) {
		if strings.Contains(prompt, "Country: Myanmar") {
			return &llm.GenerateResponseResult{Content: `{"geopolitical_factors":"military rule","geopolitical_score":1.0,"environmental_factors":"untreated effluent","environmental_score":1.0,"climate_risk":"High","supply_chain_disruption_risk":"High"}`}, nil
		}
		return nil, errors.New("dial tcp: connection refused")
	}
	return mock
}

func newTestPortfolioService(t *testing.T, suppliers []*models.Supplier) PortfolioService {
	t.Helper()
	resolver := newTestResolver(myanmarOnlyClient(), ContextResolverConfig{Concurrency: 2})
	svc := NewPortfolioService(newTestSupplierRepo(t, suppliers), resolver, nil, zap.NewNop())
	svc.(*portfolioService).now = func() time.Time { return portfolioNow }
	return svc
}

func TestPortfolioService_Annotate(t *testing.T) {
	svc := newTestPortfolioService(t, samplePortfolio())

	scored, err := svc.Annotate(context.Background())
	require.NoError(t, err)
	require.Len(t, scored, 4)

	names := make([]string, len(scored))
	for i, sc := range scored {
		names[i] = sc.Supplier.Name
	}
	assert.Equal(t, []string{"Paolo Tessitura", "Delta Knits", "Yangon Dye Works", "Porto Leather"}, names, "table order is kept")

	assert.InDelta(t, 0.277, scored[0].Assessment.Score, 1e-9)
	assert.Equal(t, models.RiskLevelMedium, scored[0].Assessment.Level)

	assert.InDelta(t, 0.619, scored[1].Assessment.Score, 1e-9)
	assert.Equal(t, models.RiskLevelHigh, scored[1].Assessment.Level)
	assert.Equal(t, FarFutureDays, scored[1].Assessment.NearestExpiryDays)
	assert.Equal(t, models.ContextSourceFallback, scored[1].Context.Source)
	assert.NotEmpty(t, scored[1].Context.Error)

	assert.InDelta(t, 0.801, scored[2].Assessment.Score, 1e-9)
	assert.Equal(t, models.RiskLevelCritical, scored[2].Assessment.Level)
	assert.Equal(t, models.ContextSourceExternal, scored[2].Context.Source)

	assert.Equal(t, -3, scored[3].Assessment.NearestExpiryDays)
}

func TestPortfolioService_Dashboard(t *testing.T) {
	svc := newTestPortfolioService(t, samplePortfolio())

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, d.TotalSuppliers)
	assert.Equal(t, 2, d.HighRisk)
	assert.Equal(t, 50, d.HighRiskPercent)
	assert.Equal(t, 1, d.ExpiringSoon, "suppliers without certifications never count as expiring")
	assert.Equal(t, 1, d.WithIncidents)
	assert.Equal(t, map[models.RiskLevel]int{
		models.RiskLevelMedium:   2,
		models.RiskLevelHigh:     1,
		models.RiskLevelCritical: 1,
	}, d.RiskDistribution)
	assert.Len(t, d.ByCountry, 4)

	require.Len(t, d.Alerts, 3)
	assert.Equal(t, 3, d.TotalAlerts)
	assert.Equal(t, models.PortfolioAlert{
		Kind: models.AlertCertificationExpired, Supplier: "Porto Leather", Country: "Portugal",
		Message: "CERTIFICATION EXPIRED 3 days ago",
	}, d.Alerts[0])
	assert.Equal(t, models.AlertFailedAudit, d.Alerts[1].Kind)
	assert.Equal(t, "Delta Knits", d.Alerts[1].Supplier)
	assert.Equal(t, models.AlertIncident, d.Alerts[2].Kind)
	assert.Equal(t, "LABOR VIOLATION reported", d.Alerts[2].Message)

	require.Len(t, d.TopRisk, 4)
	assert.Equal(t, "Yangon Dye Works", d.TopRisk[0].Name)
	assert.Equal(t, "0.801", d.TopRisk[0].Score)
	assert.Equal(t, "Delta Knits", d.TopRisk[1].Name)
	assert.Equal(t, "Porto Leather", d.TopRisk[2].Name)
	assert.Equal(t, "Paolo Tessitura", d.TopRisk[3].Name)
}

func TestPortfolioService_DashboardCapsAlertsAndTopRisk(t *testing.T) {
	var suppliers []*models.Supplier
	for i := 0; i < 12; i++ {
		suppliers = append(suppliers, &models.Supplier{
			Name:         "Failed " + string(rune('A'+i)),
			Country:      "France",
			City:         "Lyon",
			AuditStatus:  models.AuditFailed,
			HasIncidents: true,
			IncidentType: "Quality Issue",
		})
	}
	svc := newTestPortfolioService(t, suppliers)

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)

	assert.Len(t, d.Alerts, models.MaxDashboardAlerts)
	assert.Equal(t, 24, d.TotalAlerts)
	assert.Len(t, d.TopRisk, models.TopRiskCount)
	for _, a := range d.Alerts {
		assert.Equal(t, models.AlertFailedAudit, a.Kind, "failed audits are listed before incidents")
	}
}

func TestPortfolioService_Directory(t *testing.T) {
	svc := newTestPortfolioService(t, samplePortfolio())
	ctx := context.Background()

	all, err := svc.Directory(ctx, models.DirectoryFilter{})
	require.NoError(t, err)
	assert.Equal(t, 4, all.Shown)
	assert.Equal(t, 4, all.Total)
	assert.Equal(t, "Yangon Dye Works", all.Suppliers[0].Name)

	medium, err := svc.Directory(ctx, models.DirectoryFilter{RiskLevels: []models.RiskLevel{models.RiskLevelMedium}})
	require.NoError(t, err)
	require.Equal(t, 2, medium.Shown)
	assert.Equal(t, 4, medium.Total)
	assert.Equal(t, "Porto Leather", medium.Suppliers[0].Name, "sorted by score descending")
	assert.Equal(t, "Paolo Tessitura", medium.Suppliers[1].Name)

	combined, err := svc.Directory(ctx, models.DirectoryFilter{
		Countries:     []string{"Bangladesh", "Myanmar"},
		AuditStatuses: []models.AuditStatus{models.AuditFailed},
	})
	require.NoError(t, err)
	require.Len(t, combined.Suppliers, 1)
	assert.Equal(t, "Delta Knits", combined.Suppliers[0].Name)

	none, err := svc.Directory(ctx, models.DirectoryFilter{Countries: []string{"Peru"}})
	require.NoError(t, err)
	assert.Equal(t, 0, none.Shown)
	assert.NotNil(t, none.Suppliers)
}

func TestPortfolioService_Detail(t *testing.T) {
	svc := newTestPortfolioService(t, samplePortfolio())
	ctx := context.Background()

	detail, err := svc.Detail(ctx, "Yangon Dye Works")
	require.NoError(t, err)
	assert.Equal(t, "0.801", detail.Score)
	assert.Equal(t, models.ContextSourceExternal, detail.Context.Source)
	assert.Equal(t, "military rule", detail.Context.GeopoliticalFactors)
	assert.InDelta(t, 1.0, detail.Assessment.Factors.Certification.Risk, 1e-9)
	assert.Empty(t, detail.Certifications)
	assert.Nil(t, detail.DaysUntilNextAudit)

	paolo, err := svc.Detail(ctx, "Paolo Tessitura")
	require.NoError(t, err)
	require.NotNil(t, paolo.DaysUntilNextAudit)
	assert.Equal(t, 45, *paolo.DaysUntilNextAudit)
	require.Len(t, paolo.Certifications, 1)
	assert.Equal(t, models.CertStatusOK, paolo.Certifications[0].Status)

	_, err = svc.Detail(ctx, "Nobody")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPortfolioService_DetailFlagsUnrecognizedAuditStatus(t *testing.T) {
	suppliers := samplePortfolio()
	suppliers[0].AuditStatus = models.AuditStatus("In review")
	svc := newTestPortfolioService(t, suppliers)

	detail, err := svc.Detail(context.Background(), "Paolo Tessitura")
	require.NoError(t, err)
	assert.Equal(t, models.AuditStatus("In review"), detail.Supplier.AuditStatus)
	require.Len(t, detail.Warnings, 1)
	assert.Contains(t, detail.Warnings[0], `"In review"`)

	clean, err := svc.Detail(context.Background(), "Delta Knits")
	require.NoError(t, err)
	assert.Empty(t, clean.Warnings)
}

func TestPortfolioService_CertificationTracker(t *testing.T) {
	svc := newTestPortfolioService(t, samplePortfolio())

	tracker, err := svc.CertificationTracker(context.Background())
	require.NoError(t, err)

	require.Len(t, tracker.All, 3)
	assert.Equal(t, models.CertGRS, tracker.All[0].Certification)
	assert.Equal(t, -3, tracker.All[0].DaysLeft)
	assert.Equal(t, models.CertStatusExpired, tracker.All[0].Status)
	assert.Equal(t, models.CertRWS, tracker.All[1].Certification)
	assert.Equal(t, models.CertStatusCritical, tracker.All[1].Status)

	assert.Len(t, tracker.Critical, 2)
	require.Len(t, tracker.Compliant, 1)
	assert.Equal(t, "Paolo Tessitura", tracker.Compliant[0].Supplier)
}

func TestPortfolioService_RiskAssessment(t *testing.T) {
	svc := newTestPortfolioService(t, samplePortfolio())

	view, err := svc.RiskAssessment(context.Background())
	require.NoError(t, err)

	require.Len(t, view.ByLevel, 3, "levels without suppliers are omitted")
	assert.Equal(t, models.RiskLevelAggregate{Level: models.RiskLevelMedium, Suppliers: 2, MeanScore: 0.28}, view.ByLevel[0])
	assert.Equal(t, models.RiskLevelAggregate{Level: models.RiskLevelHigh, Suppliers: 1, MeanScore: 0.62, Incidents: 1, FailedAudits: 1}, view.ByLevel[1])
	assert.Equal(t, models.RiskLevelCritical, view.ByLevel[2].Level)

	require.Len(t, view.ByCountry, 4)
	assert.Equal(t, models.CountryRiskProfile{Country: "Myanmar", MeanScore: 0.8, Suppliers: 1, HighGeoRisk: 1, HighEnvRisk: 1}, view.ByCountry[0])
	assert.Equal(t, "Bangladesh", view.ByCountry[1].Country)
	assert.Equal(t, 1, view.ByCountry[1].HighEnvRisk)

	require.Len(t, view.Critical, 1)
	assert.Equal(t, "Yangon Dye Works", view.Critical[0].Name)
}

func TestPortfolioService_Analytics(t *testing.T) {
	svc := newTestPortfolioService(t, samplePortfolio())

	a, err := svc.Analytics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, a.TotalSuppliers)
	assert.Equal(t, 4, a.Countries)
	assert.Equal(t, 2, a.PassedAudits)
	assert.InDelta(t, 50.0, a.AuditComplianceRate, 1e-9)
	assert.InDelta(t, 0.8, a.MeanCertifications, 1e-9)
	assert.InDelta(t, 0.5, a.MeanScore, 1e-9)
	assert.Equal(t, []models.NamedCount{
		{Name: "Denim", Count: 1},
		{Name: "Dyeing", Count: 1},
		{Name: "Leather", Count: 1},
		{Name: "Silk", Count: 1},
	}, a.ByCategory)
}

func TestPortfolioService_ExportRows(t *testing.T) {
	svc := newTestPortfolioService(t, samplePortfolio())

	rows, err := svc.ExportRows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Paolo Tessitura", rows[0].Name)
	assert.Equal(t, "0.277", rows[0].Score.StringFixed(3))
	assert.Equal(t, FarFutureDays, rows[1].DaysToExpiry)
}

func TestPortfolioService_MissingTable(t *testing.T) {
	repo := repositories.NewSupplierRepository(filepath.Join(t.TempDir(), "missing.csv"), zap.NewNop())
	svc := NewPortfolioService(repo, newTestResolver(nil, ContextResolverConfig{}), nil, zap.NewNop())

	_, err := svc.Dashboard(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load supplier table")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
