package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/LunaGrandjean/LVMH-project/pkg/apperrors"
	"github.com/LunaGrandjean/LVMH-project/pkg/metrics"
	"github.com/LunaGrandjean/LVMH-project/pkg/models"
	"github.com/LunaGrandjean/LVMH-project/pkg/report"
	"github.com/LunaGrandjean/LVMH-project/pkg/repositories"
)

// aggregatePrecision is the number of decimals kept on portfolio means.
const aggregatePrecision = 2

// PortfolioService scores the supplier table and derives the read-only portfolio views.
// Every call reloads the table so views always reflect the latest operator writes.
type PortfolioService interface {
	// Annotate loads the table, resolves each location and scores every supplier, in table order.
	Annotate(ctx context.Context) ([]*models.ScoredSupplier, error)
	Dashboard(ctx context.Context) (*models.Dashboard, error)
	Directory(ctx context.Context, filter models.DirectoryFilter) (*models.Directory, error)
	// Detail returns apperrors.ErrNotFound when no supplier has the given name.
	Detail(ctx context.Context, name string) (*models.SupplierDetail, error)
	CertificationTracker(ctx context.Context) (*models.CertificationTracker, error)
	RiskAssessment(ctx context.Context) (*models.RiskAssessmentView, error)
	Analytics(ctx context.Context) (*models.Analytics, error)
	// ExportRows returns the annotated table in export form.
	ExportRows(ctx context.Context) ([]report.Row, error)
}

type portfolioService struct {
	suppliers repositories.SupplierRepository
	resolver  ContextResolver
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

func NewPortfolioService(
	suppliers repositories.SupplierRepository,
	resolver ContextResolver,
	m *metrics.Metrics,
	logger *zap.Logger,
) PortfolioService {
	return &portfolioService{
		suppliers: suppliers,
		resolver:  resolver,
		metrics:   m,
		logger:    logger.Named("portfolio-service"),
		now:       time.Now,
	}
}

var _ PortfolioService = (*portfolioService)(nil)

func requestFor(s *models.Supplier) ResolveRequest {
	return ResolveRequest{
		Country:      s.Country,
		City:         s.City,
		SupplierName: s.Name,
		Category:     s.Category,
	}
}

func (s *portfolioService) Annotate(ctx context.Context) ([]*models.ScoredSupplier, error) {
	suppliers, err := s.suppliers.Load(ctx)
	if err != nil {
		return nil, err
	}

	reqs := make([]ResolveRequest, len(suppliers))
	for i, sup := range suppliers {
		reqs[i] = requestFor(sup)
	}
	contexts := s.resolver.ResolveAll(ctx, reqs)

	now := s.now()
	scored := make([]*models.ScoredSupplier, 0, len(suppliers))
	for i, sup := range suppliers {
		ec := contexts[reqs[i].Key()]
		assessment := ScoreSupplier(sup, &ec, now)
		s.metrics.IncrementRiskLevel(string(assessment.Level))
		scored = append(scored, &models.ScoredSupplier{
			Supplier:   sup,
			Assessment: assessment,
			Context:    &ec,
		})
	}

	s.logger.Debug("Annotated supplier table",
		zap.Int("suppliers", len(scored)),
		zap.Int("locations", len(contexts)))

	return scored, nil
}

func (s *portfolioService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	scored, err := s.Annotate(ctx)
	if err != nil {
		return nil, err
	}

	d := &models.Dashboard{
		TotalSuppliers:   len(scored),
		RiskDistribution: make(map[models.RiskLevel]int, len(models.RiskLevels)),
		Alerts:           []models.PortfolioAlert{},
	}
	countries := make(map[string]int)

	var expiring, failed, incidents []*models.ScoredSupplier
	for _, sc := range scored {
		d.RiskDistribution[sc.Assessment.Level]++
		countries[sc.Supplier.Country]++
		if sc.Assessment.Level.IsElevated() {
			d.HighRisk++
		}
		if sc.Assessment.NearestExpiryDays < models.CertCriticalDays {
			d.ExpiringSoon++
			expiring = append(expiring, sc)
		}
		if sc.Supplier.AuditStatus == models.AuditFailed {
			failed = append(failed, sc)
		}
		if sc.Supplier.HasIncidents {
			d.WithIncidents++
			incidents = append(incidents, sc)
		}
	}
	if d.TotalSuppliers > 0 {
		d.HighRiskPercent = d.HighRisk * 100 / d.TotalSuppliers
	}
	d.ByCountry = sortedCounts(countries)

	sort.SliceStable(expiring, func(i, j int) bool {
		return expiring[i].Assessment.NearestExpiryDays < expiring[j].Assessment.NearestExpiryDays
	})
	var alerts []models.PortfolioAlert
	for _, sc := range expiring {
		days := sc.Assessment.NearestExpiryDays
		if days < 0 {
			alerts = append(alerts, alertFor(sc, models.AlertCertificationExpired,
				fmt.Sprintf("CERTIFICATION EXPIRED %d days ago", -days)))
		} else {
			alerts = append(alerts, alertFor(sc, models.AlertCertificationExpiring,
				fmt.Sprintf("Certification expires in %d days", days)))
		}
	}
	for _, sc := range failed {
		alerts = append(alerts, alertFor(sc, models.AlertFailedAudit, "FAILED AUDIT - Immediate action required"))
	}
	for _, sc := range incidents {
		alerts = append(alerts, alertFor(sc, models.AlertIncident,
			strings.ToUpper(sc.Supplier.IncidentType)+" reported"))
	}
	d.TotalAlerts = len(alerts)
	if len(alerts) > models.MaxDashboardAlerts {
		alerts = alerts[:models.MaxDashboardAlerts]
	}
	if alerts != nil {
		d.Alerts = alerts
	}

	byScore := sortedByScore(scored)
	if len(byScore) > models.TopRiskCount {
		byScore = byScore[:models.TopRiskCount]
	}
	d.TopRisk = summaries(byScore)

	return d, nil
}

func (s *portfolioService) Directory(ctx context.Context, filter models.DirectoryFilter) (*models.Directory, error) {
	scored, err := s.Annotate(ctx)
	if err != nil {
		return nil, err
	}

	var shown []*models.ScoredSupplier
	for _, sc := range scored {
		if matchesFilter(sc, filter) {
			shown = append(shown, sc)
		}
	}

	return &models.Directory{
		Suppliers: summaries(sortedByScore(shown)),
		Shown:     len(shown),
		Total:     len(scored),
	}, nil
}

func matchesFilter(sc *models.ScoredSupplier, filter models.DirectoryFilter) bool {
	if len(filter.RiskLevels) > 0 && !contains(filter.RiskLevels, sc.Assessment.Level) {
		return false
	}
	if len(filter.Countries) > 0 && !contains(filter.Countries, sc.Supplier.Country) {
		return false
	}
	if len(filter.AuditStatuses) > 0 && !contains(filter.AuditStatuses, sc.Supplier.AuditStatus) {
		return false
	}
	return true
}

func contains[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func (s *portfolioService) Detail(ctx context.Context, name string) (*models.SupplierDetail, error) {
	suppliers, err := s.suppliers.Load(ctx)
	if err != nil {
		return nil, err
	}

	var sup *models.Supplier
	for _, candidate := range suppliers {
		if candidate.Name == name {
			sup = candidate
			break
		}
	}
	if sup == nil {
		return nil, fmt.Errorf("supplier %q: %w", name, apperrors.ErrNotFound)
	}

	now := s.now()
	ec := s.resolver.Resolve(ctx, requestFor(sup))
	assessment := ScoreSupplier(sup, &ec, now)

	detail := &models.SupplierDetail{
		Supplier:       sup,
		Assessment:     assessment,
		Score:          report.FormatScore(assessment.Score),
		Certifications: CertificationAlerts(sup, now),
		Context:        ec,
	}
	if sup.NextAuditDate != nil {
		days := DaysUntil(*sup.NextAuditDate, now)
		detail.DaysUntilNextAudit = &days
	}
	if sup.AuditStatus != "" && !sup.AuditStatus.Valid() {
		detail.Warnings = append(detail.Warnings, fmt.Sprintf(
			"unrecognized audit status %q (expected Passed, Pending or Failed)", sup.AuditStatus))
	}
	return detail, nil
}

func (s *portfolioService) CertificationTracker(ctx context.Context) (*models.CertificationTracker, error) {
	suppliers, err := s.suppliers.Load(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	tracker := &models.CertificationTracker{
		All:       []models.CertificationAlert{},
		Critical:  []models.CertificationAlert{},
		Compliant: []models.CertificationAlert{},
	}
	for _, sup := range suppliers {
		tracker.All = append(tracker.All, CertificationAlerts(sup, now)...)
	}
	sort.SliceStable(tracker.All, func(i, j int) bool { return tracker.All[i].DaysLeft < tracker.All[j].DaysLeft })

	for _, alert := range tracker.All {
		switch {
		case alert.DaysLeft < models.CertCriticalDays:
			tracker.Critical = append(tracker.Critical, alert)
		case alert.DaysLeft >= models.CertWarningDays:
			tracker.Compliant = append(tracker.Compliant, alert)
		}
	}
	return tracker, nil
}

func (s *portfolioService) RiskAssessment(ctx context.Context) (*models.RiskAssessmentView, error) {
	scored, err := s.Annotate(ctx)
	if err != nil {
		return nil, err
	}

	view := &models.RiskAssessmentView{
		ByLevel:   []models.RiskLevelAggregate{},
		ByCountry: []models.CountryRiskProfile{},
	}

	for _, level := range models.RiskLevels {
		agg := models.RiskLevelAggregate{Level: level}
		var scores []float64
		for _, sc := range scored {
			if sc.Assessment.Level != level {
				continue
			}
			agg.Suppliers++
			scores = append(scores, sc.Assessment.Score)
			if sc.Supplier.HasIncidents {
				agg.Incidents++
			}
			if sc.Supplier.AuditStatus == models.AuditFailed {
				agg.FailedAudits++
			}
		}
		if agg.Suppliers == 0 {
			continue
		}
		agg.MeanScore = mean(scores)
		view.ByLevel = append(view.ByLevel, agg)
	}

	byCountry := make(map[string]*models.CountryRiskProfile)
	countryScores := make(map[string][]float64)
	for _, sc := range scored {
		country := sc.Supplier.Country
		profile, ok := byCountry[country]
		if !ok {
			profile = &models.CountryRiskProfile{Country: country}
			byCountry[country] = profile
		}
		profile.Suppliers++
		countryScores[country] = append(countryScores[country], sc.Assessment.Score)
		if sc.Supplier.GeopoliticalRisk == models.BucketHigh {
			profile.HighGeoRisk++
		}
		if sc.Supplier.EnvironmentalRisk == models.BucketHigh {
			profile.HighEnvRisk++
		}
	}
	for country, profile := range byCountry {
		profile.MeanScore = mean(countryScores[country])
		view.ByCountry = append(view.ByCountry, *profile)
	}
	sort.Slice(view.ByCountry, func(i, j int) bool {
		if view.ByCountry[i].MeanScore != view.ByCountry[j].MeanScore {
			return view.ByCountry[i].MeanScore > view.ByCountry[j].MeanScore
		}
		return view.ByCountry[i].Country < view.ByCountry[j].Country
	})

	var critical []*models.ScoredSupplier
	for _, sc := range scored {
		if sc.Assessment.Level == models.RiskLevelCritical {
			critical = append(critical, sc)
		}
	}
	view.Critical = summaries(critical)

	return view, nil
}

func (s *portfolioService) Analytics(ctx context.Context) (*models.Analytics, error) {
	scored, err := s.Annotate(ctx)
	if err != nil {
		return nil, err
	}

	a := &models.Analytics{TotalSuppliers: len(scored)}
	if len(scored) == 0 {
		a.ByCategory = []models.NamedCount{}
		return a, nil
	}

	countries := make(map[string]struct{})
	categories := make(map[string]int)
	scores := make([]float64, 0, len(scored))
	certCounts := make([]float64, 0, len(scored))
	for _, sc := range scored {
		countries[sc.Supplier.Country] = struct{}{}
		categories[sc.Supplier.Category]++
		scores = append(scores, sc.Assessment.Score)
		certCounts = append(certCounts, float64(sc.Supplier.CertificationCount()))
		if sc.Supplier.AuditStatus == models.AuditPassed {
			a.PassedAudits++
		}
	}

	a.Countries = len(countries)
	a.MeanScore = mean(scores)
	a.MeanCertifications = decimal.NewFromFloat(mean(certCounts)).Round(1).InexactFloat64()
	a.AuditComplianceRate = decimal.NewFromInt(int64(a.PassedAudits)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(len(scored)))).
		Round(1).
		InexactFloat64()
	a.ByCategory = sortedCounts(categories)

	return a, nil
}

func (s *portfolioService) ExportRows(ctx context.Context) ([]report.Row, error) {
	scored, err := s.Annotate(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]report.Row, 0, len(scored))
	for _, sc := range scored {
		rows = append(rows, report.NewRow(sc.Supplier, sc.Assessment))
	}
	return rows, nil
}

func alertFor(sc *models.ScoredSupplier, kind models.AlertKind, message string) models.PortfolioAlert {
	return models.PortfolioAlert{
		Kind:     kind,
		Supplier: sc.Supplier.Name,
		Country:  sc.Supplier.Country,
		Message:  message,
	}
}

// sortedByScore returns a copy ordered by score, highest first; ties keep table order.
func sortedByScore(scored []*models.ScoredSupplier) []*models.ScoredSupplier {
	out := make([]*models.ScoredSupplier, len(scored))
	copy(out, scored)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Assessment.Score > out[j].Assessment.Score })
	return out
}

func summaries(scored []*models.ScoredSupplier) []models.SupplierSummary {
	out := make([]models.SupplierSummary, 0, len(scored))
	for _, sc := range scored {
		sup := sc.Supplier
		out = append(out, models.SupplierSummary{
			Name:              sup.Name,
			Country:           sup.Country,
			City:              sup.City,
			Category:          sup.Category,
			Certifications:    sup.CertificationsText,
			RiskLevel:         sc.Assessment.Level,
			Score:             report.FormatScore(sc.Assessment.Score),
			AuditStatus:       sup.AuditStatus,
			DaysToExpiry:      sc.Assessment.NearestExpiryDays,
			HasIncidents:      sup.HasIncidents,
			GeopoliticalRisk:  sup.GeopoliticalRisk,
			EnvironmentalRisk: sup.EnvironmentalRisk,
		})
	}
	return out
}

// sortedCounts orders counts descending, then by name.
func sortedCounts(counts map[string]int) []models.NamedCount {
	out := make([]models.NamedCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, models.NamedCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	return sum.Div(decimal.NewFromInt(int64(len(values)))).Round(aggregatePrecision).InexactFloat64()
}
