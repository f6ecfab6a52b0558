package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/gym-ops-api/internal/dto"
	"github.com/noah-isme/gym-ops-api/internal/models"
	"github.com/noah-isme/gym-ops-api/pkg/middleware/requestid"
)

const (
	componentOpportunities = "revenue_opportunities"
	componentRisks         = "retention_risks"
	componentChurn         = "churn_forecast"
	componentRevenue       = "revenue_forecast"
	componentOccupancy     = "peak_hour_forecast"
	componentRenewals      = "renewal_offers"

	insightsCachePattern = "insights:*"
	occupancyModelLabel  = "synthetic"
)

// MemberQuerier reads member records.
type MemberQuerier interface {
	QueryMembers(ctx context.Context, filter models.MemberFilter) ([]models.Member, error)
}

// AttendanceQuerier reads attendance records.
type AttendanceQuerier interface {
	QueryAttendance(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error)
}

// PaymentQuerier reads payment records.
type PaymentQuerier interface {
	QueryPayments(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error)
}

// InsightsServiceConfig tunes the aggregator.
type InsightsServiceConfig struct {
	CacheTTL        time.Duration
	FunctionTimeout time.Duration
	Engine          InsightsEngineConfig
}

// InsightsServiceParams groups constructor dependencies.
type InsightsServiceParams struct {
	Members    MemberQuerier
	Attendance AttendanceQuerier
	Payments   PaymentQuerier
	Cache      *CacheService
	Metrics    *MetricsService
	Logger     *zap.Logger
	Random     RandomSource
	Config     InsightsServiceConfig
}

// InsightsService runs the six analytics functions over the store and merges
// them into one report. Every function degrades to an empty list on failure.
type InsightsService struct {
	members    MemberQuerier
	attendance AttendanceQuerier
	payments   PaymentQuerier
	cache      *CacheService
	metrics    *MetricsService
	logger     *zap.Logger
	random     RandomSource
	now        func() time.Time
	cfg        InsightsServiceConfig
}

// NewInsightsService constructs an InsightsService with sane defaults.
func NewInsightsService(params InsightsServiceParams) *InsightsService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if cfg.FunctionTimeout <= 0 {
		cfg.FunctionTimeout = 5 * time.Second
	}
	cfg.Engine = cfg.Engine.withDefaults()
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var random RandomSource
	if params.Random != nil {
		random = &lockedRandom{src: params.Random}
	}
	return &InsightsService{
		members:    params.Members,
		attendance: params.Attendance,
		payments:   params.Payments,
		cache:      params.Cache,
		metrics:    params.Metrics,
		logger:     logger,
		random:     random,
		now:        time.Now,
		cfg:        cfg,
	}
}

// GetAllInsights returns the combined report and whether it came from cache.
// It never fails: any unexpected error yields the all-empty report.
func (s *InsightsService) GetAllInsights(ctx context.Context) (report *dto.InsightsReport, cacheHit bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("insights report failed", zap.String("request_id", requestid.FromContext(ctx)), zap.Any("panic", r))
			report, cacheHit = dto.EmptyInsightsReport(), false
		}
	}()

	now := s.now().UTC()
	key := reportCacheKey(now)
	if s.cache != nil {
		var cached dto.InsightsReport
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, true
		}
	}

	report, degraded, err := s.compose(ctx, now)
	if err != nil {
		s.logger.Error("insights report failed", zap.String("request_id", requestid.FromContext(ctx)), zap.Error(err))
		return dto.EmptyInsightsReport(), false
	}
	if degraded > 0 {
		// A partial report is served once but never cached.
		s.logger.Warn("insights report degraded, skipping cache",
			zap.String("request_id", requestid.FromContext(ctx)),
			zap.Int("failed_components", degraded))
		return report, false
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, report, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("insights cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return report, false
}

// Summary returns only the KPI block of the current report.
func (s *InsightsService) Summary(ctx context.Context) (dto.InsightsSummary, bool) {
	report, hit := s.GetAllInsights(ctx)
	return report.Summary, hit
}

// InvalidateCache drops every cached report.
func (s *InsightsService) InvalidateCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, insightsCachePattern)
}

func (s *InsightsService) compose(ctx context.Context, now time.Time) (*dto.InsightsReport, int, error) {
	report := dto.EmptyInsightsReport()
	var degraded atomic.Int32
	track := func(ok bool) {
		if !ok {
			degraded.Add(1)
		}
	}

	var g errgroup.Group
	g.Go(func() error {
		items, ok := s.revenueOpportunities(ctx, now)
		report.RevenueOpportunities = items
		track(ok)
		return nil
	})
	g.Go(func() error {
		items, ok := s.retentionRisks(ctx, now)
		report.RetentionRisks = items
		track(ok)
		return nil
	})
	g.Go(func() error {
		items, ok := s.churnForecast(ctx, now)
		report.ChurnForecast = items
		track(ok)
		return nil
	})
	g.Go(func() error {
		items, ok := s.revenueForecast(ctx, now)
		report.RevenueForecast = items
		track(ok)
		return nil
	})
	g.Go(func() error {
		items, ok := s.peakHourForecast(ctx, now)
		report.PeakHourForecast = items
		track(ok)
		return nil
	})
	g.Go(func() error {
		items, ok := s.renewalOffers(ctx, now)
		report.RenewalOffers = items
		track(ok)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	report.Summary = summarize(report, s.cfg.Engine)
	report.ReportID = uuid.NewString()
	report.GeneratedAt = &now
	report.OccupancyModel = occupancyModelLabel
	return report, int(degraded.Load()), nil
}

// RevenueOpportunities computes upgrade candidates on their own.
func (s *InsightsService) RevenueOpportunities(ctx context.Context) []dto.RevenueOpportunity {
	items, _ := s.revenueOpportunities(ctx, s.now().UTC())
	return items
}

// RetentionRisks computes the at-risk ranking on its own.
func (s *InsightsService) RetentionRisks(ctx context.Context) []dto.RetentionRisk {
	items, _ := s.retentionRisks(ctx, s.now().UTC())
	return items
}

// ChurnForecast computes the churn projection on its own.
func (s *InsightsService) ChurnForecast(ctx context.Context) []dto.ChurnForecastPoint {
	items, _ := s.churnForecast(ctx, s.now().UTC())
	return items
}

// RevenueForecast computes the revenue projection on its own.
func (s *InsightsService) RevenueForecast(ctx context.Context) []dto.RevenueForecastPoint {
	items, _ := s.revenueForecast(ctx, s.now().UTC())
	return items
}

// PeakHourForecast computes the occupancy model on its own.
func (s *InsightsService) PeakHourForecast(ctx context.Context) []dto.PeakHourForecast {
	items, _ := s.peakHourForecast(ctx, s.now().UTC())
	return items
}

// RenewalOffers computes renewal offers on their own.
func (s *InsightsService) RenewalOffers(ctx context.Context) []dto.RenewalOffer {
	items, _ := s.renewalOffers(ctx, s.now().UTC())
	return items
}

func (s *InsightsService) revenueOpportunities(ctx context.Context, now time.Time) ([]dto.RevenueOpportunity, bool) {
	return guarded(ctx, s, componentOpportunities, func(ctx context.Context) ([]dto.RevenueOpportunity, error) {
		members, err := s.activeMembers(ctx)
		if err != nil {
			return nil, err
		}
		from := daysAgo(now, s.cfg.Engine.ActivityWindowDays)
		present := models.AttendanceStatusPresent
		attendance, err := s.queryAttendance(ctx, models.AttendanceFilter{Status: &present, DateFrom: &from, DateTo: &now})
		if err != nil {
			return nil, err
		}
		return ScoreRevenueOpportunities(members, attendance, now, s.cfg.Engine), nil
	})
}

func (s *InsightsService) retentionRisks(ctx context.Context, now time.Time) ([]dto.RetentionRisk, bool) {
	return guarded(ctx, s, componentRisks, func(ctx context.Context) ([]dto.RetentionRisk, error) {
		members, err := s.activeMembers(ctx)
		if err != nil {
			return nil, err
		}
		present := models.AttendanceStatusPresent
		attendance, err := s.queryAttendance(ctx, models.AttendanceFilter{Status: &present, OrderDesc: true})
		if err != nil {
			return nil, err
		}
		return ScoreRetentionRisks(members, attendance, now, s.cfg.Engine), nil
	})
}

func (s *InsightsService) churnForecast(ctx context.Context, now time.Time) ([]dto.ChurnForecastPoint, bool) {
	return guarded(ctx, s, componentChurn, func(ctx context.Context) ([]dto.ChurnForecastPoint, error) {
		expired, err := s.queryMembers(ctx, models.MemberFilter{ExpiredBefore: &now})
		if err != nil {
			return nil, err
		}
		active, err := s.activeMembers(ctx)
		if err != nil {
			return nil, err
		}
		return ForecastChurn(expired, len(active), now, s.cfg.Engine), nil
	})
}

func (s *InsightsService) revenueForecast(ctx context.Context, now time.Time) ([]dto.RevenueForecastPoint, bool) {
	return guarded(ctx, s, componentRevenue, func(ctx context.Context) ([]dto.RevenueForecastPoint, error) {
		active, err := s.activeMembers(ctx)
		if err != nil {
			return nil, err
		}
		payments, err := s.queryPayments(ctx, models.PaymentFilter{})
		if err != nil {
			return nil, err
		}
		return ForecastRevenue(active, payments, now, s.cfg.Engine), nil
	})
}

func (s *InsightsService) peakHourForecast(ctx context.Context, now time.Time) ([]dto.PeakHourForecast, bool) {
	return guarded(ctx, s, componentOccupancy, func(ctx context.Context) ([]dto.PeakHourForecast, error) {
		from := daysAgo(now, s.cfg.Engine.OccupancyLookbackDays)
		attendance, err := s.queryAttendance(ctx, models.AttendanceFilter{DateFrom: &from, DateTo: &now})
		if err != nil {
			return nil, err
		}
		return ForecastPeakHours(attendance, now, s.cfg.Engine, s.random), nil
	})
}

func (s *InsightsService) renewalOffers(ctx context.Context, now time.Time) ([]dto.RenewalOffer, bool) {
	return guarded(ctx, s, componentRenewals, func(ctx context.Context) ([]dto.RenewalOffer, error) {
		status := models.MemberStatusActive
		until := now.AddDate(0, 0, s.cfg.Engine.RenewalWindowDays)
		members, err := s.queryMembers(ctx, models.MemberFilter{Status: &status, ExpiresFrom: &now, ExpiresTo: &until})
		if err != nil {
			return nil, err
		}
		return GenerateRenewalOffers(members, now, s.cfg.Engine), nil
	})
}

// guarded runs one analytics function under its own timeout. Errors and panics
// are logged and turn into an empty, non-nil list with ok false; nothing is retried.
func guarded[T any](ctx context.Context, s *InsightsService, component string, fn func(context.Context) ([]T, error)) (result []T, ok bool) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.FunctionTimeout)
	defer cancel()
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("insights component panicked",
				zap.String("component", component),
				zap.String("request_id", requestid.FromContext(ctx)),
				zap.Any("panic", r))
			result, ok = []T{}, false
		}
		s.metrics.ObserveInsightComponent(component, time.Since(start), !ok)
	}()

	items, err := fn(ctx)
	if err != nil {
		s.logger.Warn("insights component failed",
			zap.String("component", component),
			zap.String("request_id", requestid.FromContext(ctx)),
			zap.Error(err))
		return []T{}, false
	}
	if items == nil {
		return []T{}, true
	}
	return items, true
}

func (s *InsightsService) activeMembers(ctx context.Context) ([]models.Member, error) {
	status := models.MemberStatusActive
	return s.queryMembers(ctx, models.MemberFilter{Status: &status})
}

func (s *InsightsService) queryMembers(ctx context.Context, filter models.MemberFilter) ([]models.Member, error) {
	if s.members == nil {
		return nil, fmt.Errorf("member store unavailable")
	}
	start := time.Now()
	members, err := s.members.QueryMembers(ctx, filter)
	s.metrics.ObserveDBQuery("insights_members", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	return members, nil
}

func (s *InsightsService) queryAttendance(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	if s.attendance == nil {
		return nil, fmt.Errorf("attendance store unavailable")
	}
	start := time.Now()
	records, err := s.attendance.QueryAttendance(ctx, filter)
	s.metrics.ObserveDBQuery("insights_attendance", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	return records, nil
}

func (s *InsightsService) queryPayments(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error) {
	if s.payments == nil {
		return nil, fmt.Errorf("payment store unavailable")
	}
	start := time.Now()
	payments, err := s.payments.QueryPayments(ctx, filter)
	s.metrics.ObserveDBQuery("insights_payments", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	return payments, nil
}

func summarize(report *dto.InsightsReport, cfg InsightsEngineConfig) dto.InsightsSummary {
	summary := dto.InsightsSummary{UpcomingRenewals: len(report.RenewalOffers)}

	uplift := decimal.Zero
	for _, opportunity := range report.RevenueOpportunities {
		delta := decimal.NewFromFloat(opportunity.PotentialPrice).Sub(decimal.NewFromFloat(opportunity.CurrentPrice))
		uplift = uplift.Add(delta)
	}
	summary.TotalPotentialRevenue = uplift.Round(2).InexactFloat64()

	for _, risk := range report.RetentionRisks {
		if risk.RiskScore >= cfg.HighRiskScore {
			summary.HighRiskMembers++
		}
	}

	if len(report.ChurnForecast) > 0 {
		var total float64
		for _, point := range report.ChurnForecast {
			total += point.PredictedChurnRate
		}
		summary.AvgChurnRate = roundTo(total/float64(len(report.ChurnForecast)), 2)
	}
	if len(report.RevenueForecast) > 0 {
		summary.NextMonthRevenue = report.RevenueForecast[0].TotalRevenue
	}
	return summary
}

func reportCacheKey(now time.Time) string {
	return "insights:report:" + now.Format("2006-01-02")
}
