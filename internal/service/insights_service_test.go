package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/gym-ops-api/internal/dto"
	"github.com/noah-isme/gym-ops-api/internal/models"
	"github.com/noah-isme/gym-ops-api/pkg/middleware/requestid"
)

type fakeMemberStore struct {
	members []models.Member
	err     error
	panics  bool
	block   bool
	calls   atomic.Int32
}

func (f *fakeMemberStore) QueryMembers(ctx context.Context, filter models.MemberFilter) ([]models.Member, error) {
	f.calls.Add(1)
	if f.panics {
		panic("member store exploded")
	}
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Member
	for _, member := range f.members {
		if filter.Status != nil && member.Status != *filter.Status {
			continue
		}
		if filter.ExpiresFrom != nil && member.ExpirationDate.Before(*filter.ExpiresFrom) {
			continue
		}
		if filter.ExpiresTo != nil && member.ExpirationDate.After(*filter.ExpiresTo) {
			continue
		}
		if filter.ExpiredBefore != nil && !member.ExpirationDate.Before(*filter.ExpiredBefore) {
			continue
		}
		out = append(out, member)
	}
	return out, nil
}

type fakeAttendanceStore struct {
	records []models.AttendanceRecord
	err     error
	calls   atomic.Int32
}

func (f *fakeAttendanceStore) QueryAttendance(_ context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	var out []models.AttendanceRecord
	for _, record := range f.records {
		if filter.Status != nil && record.Status != *filter.Status {
			continue
		}
		if filter.DateFrom != nil && record.Date.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && record.Date.After(*filter.DateTo) {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

type fakePaymentStore struct {
	payments []models.Payment
	err      error
}

func (f *fakePaymentStore) QueryPayments(context.Context, models.PaymentFilter) ([]models.Payment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.payments, nil
}

func gymFixture() (*fakeMemberStore, *fakeAttendanceStore, *fakePaymentStore) {
	members := &fakeMemberStore{members: []models.Member{
		activeMember("frequent", models.PlanBasic, 40, 60),
		activeMember("fading", models.PlanPro, 100, 10),
		activeMember("loyal", models.PlanPremium, 400, 20),
		{ID: "gone-1", MembershipPlan: models.PlanBasic, JoinDate: daysFrom(-200), ExpirationDate: time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), Status: models.MemberStatusInactive},
	}}
	records := presentVisits("frequent", dayRange(1, 15)...)
	records = append(records, presentVisits("fading", 20, 45)...)
	records = append(records, presentVisits("loyal", 3)...)
	attendance := &fakeAttendanceStore{records: records}
	payments := &fakePaymentStore{payments: []models.Payment{
		{ID: "p-1", MemberID: "frequent", Amount: 30, PaymentDate: time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC), Plan: models.PlanBasic},
	}}
	return members, attendance, payments
}

func newTestInsightsService(members MemberQuerier, attendance AttendanceQuerier, payments PaymentQuerier, cache *CacheService) *InsightsService {
	svc := NewInsightsService(InsightsServiceParams{
		Members:    members,
		Attendance: attendance,
		Payments:   payments,
		Cache:      cache,
		Logger:     zap.NewNop(),
		Config:     InsightsServiceConfig{FunctionTimeout: 200 * time.Millisecond},
	})
	svc.now = func() time.Time { return engineNow }
	return svc
}

func TestInsightsServiceZeroData(t *testing.T) {
	svc := newTestInsightsService(&fakeMemberStore{}, &fakeAttendanceStore{}, &fakePaymentStore{}, nil)

	report, hit := svc.GetAllInsights(context.Background())

	require.NotNil(t, report)
	assert.False(t, hit)
	assert.NotNil(t, report.RevenueOpportunities)
	assert.Empty(t, report.RevenueOpportunities)
	assert.Empty(t, report.RetentionRisks)
	assert.Empty(t, report.ChurnForecast)
	assert.Empty(t, report.RevenueForecast)
	assert.Empty(t, report.PeakHourForecast)
	assert.Empty(t, report.RenewalOffers)
	assert.Equal(t, dto.InsightsSummary{}, report.Summary)
}

func TestInsightsServiceComposesReport(t *testing.T) {
	members, attendance, payments := gymFixture()
	svc := newTestInsightsService(members, attendance, payments, nil)

	report, _ := svc.GetAllInsights(context.Background())

	require.Len(t, report.RevenueOpportunities, 1)
	assert.Equal(t, "frequent", report.RevenueOpportunities[0].MemberID)

	require.Len(t, report.RetentionRisks, 1)
	assert.Equal(t, "fading", report.RetentionRisks[0].MemberID)
	assert.Len(t, report.RetentionRisks[0].RiskFactors, 2)

	assert.Len(t, report.ChurnForecast, 3)
	assert.Len(t, report.RevenueForecast, 3)
	assert.Len(t, report.PeakHourForecast, 7)
	require.Len(t, report.RenewalOffers, 2)
	assert.Equal(t, "fading", report.RenewalOffers[0].MemberID)
	assert.Equal(t, "loyal", report.RenewalOffers[1].MemberID)

	assert.Equal(t, 20.0, report.Summary.TotalPotentialRevenue)
	assert.Equal(t, 0, report.Summary.HighRiskMembers)
	assert.Equal(t, 2, report.Summary.UpcomingRenewals)
	assert.Equal(t, report.RevenueForecast[0].TotalRevenue, report.Summary.NextMonthRevenue)
	assert.Equal(t, 5.0, report.Summary.AvgChurnRate)
	assert.NotEmpty(t, report.ReportID)
	assert.Equal(t, "synthetic", report.OccupancyModel)
	require.NotNil(t, report.GeneratedAt)
	assert.Equal(t, engineNow, *report.GeneratedAt)
}

func TestInsightsServiceDegradesPerComponent(t *testing.T) {
	members, _, payments := gymFixture()
	attendance := &fakeAttendanceStore{err: errors.New("attendance table locked")}
	svc := newTestInsightsService(members, attendance, payments, nil)

	report, _ := svc.GetAllInsights(context.Background())

	assert.Empty(t, report.RevenueOpportunities)
	assert.Empty(t, report.RetentionRisks)
	assert.Empty(t, report.PeakHourForecast)
	assert.NotEmpty(t, report.ChurnForecast)
	assert.NotEmpty(t, report.RevenueForecast)
	assert.NotEmpty(t, report.RenewalOffers)
	assert.Equal(t, 0.0, report.Summary.TotalPotentialRevenue)
}

func TestInsightsServiceRecoversFromPanics(t *testing.T) {
	_, attendance, payments := gymFixture()
	svc := newTestInsightsService(&fakeMemberStore{panics: true}, attendance, payments, nil)

	var report *dto.InsightsReport
	require.NotPanics(t, func() {
		report, _ = svc.GetAllInsights(context.Background())
	})

	assert.Empty(t, report.RevenueOpportunities)
	assert.Empty(t, report.RetentionRisks)
	assert.Empty(t, report.ChurnForecast)
	assert.Empty(t, report.RevenueForecast)
	assert.Empty(t, report.RenewalOffers)
	assert.Len(t, report.PeakHourForecast, 7)
}

func TestInsightsServiceTimesOutSlowComponents(t *testing.T) {
	_, attendance, payments := gymFixture()
	members := &fakeMemberStore{block: true}
	svc := NewInsightsService(InsightsServiceParams{
		Members:    members,
		Attendance: attendance,
		Payments:   payments,
		Config:     InsightsServiceConfig{FunctionTimeout: 20 * time.Millisecond},
	})
	svc.now = func() time.Time { return engineNow }

	start := time.Now()
	report, _ := svc.GetAllInsights(context.Background())

	assert.Less(t, time.Since(start), time.Second)
	assert.Empty(t, report.RetentionRisks)
	assert.Empty(t, report.RenewalOffers)
	assert.Len(t, report.PeakHourForecast, 7)
}

func TestInsightsServiceCachesReport(t *testing.T) {
	members, attendance, payments := gymFixture()
	cacheRepo := &stubCacheRepo{}
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := newTestInsightsService(members, attendance, payments, cacheSvc)
	ctx := context.Background()

	first, hit := svc.GetAllInsights(ctx)
	require.False(t, hit)
	calls := members.calls.Load()

	second, hit := svc.GetAllInsights(ctx)
	require.True(t, hit)
	assert.Equal(t, calls, members.calls.Load())
	assert.Equal(t, first.ReportID, second.ReportID)
	assert.Equal(t, first.Summary, second.Summary)
	assert.Len(t, second.RenewalOffers, len(first.RenewalOffers))
	assert.Contains(t, cacheRepo.store, "insights:report:2024-06-15")

	require.NoError(t, svc.InvalidateCache(ctx))
	assert.Equal(t, []string{"insights:*"}, cacheRepo.deleted)
	_, hit = svc.GetAllInsights(ctx)
	assert.False(t, hit)
}

func TestInsightsServiceDoesNotCacheDegradedReport(t *testing.T) {
	members, attendance, payments := gymFixture()
	members.err = errors.New("connection refused")
	cacheRepo := &stubCacheRepo{}
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := newTestInsightsService(members, attendance, payments, cacheSvc)
	ctx := context.Background()

	degraded, hit := svc.GetAllInsights(ctx)
	require.False(t, hit)
	assert.Empty(t, degraded.RevenueOpportunities)
	assert.Empty(t, degraded.RetentionRisks)
	assert.Len(t, degraded.PeakHourForecast, 7)
	assert.Empty(t, cacheRepo.store)

	members.err = nil
	recovered, hit := svc.GetAllInsights(ctx)
	require.False(t, hit)
	assert.NotEqual(t, degraded.ReportID, recovered.ReportID)
	assert.Len(t, recovered.RevenueOpportunities, 1)
	assert.Len(t, recovered.RetentionRisks, 1)
	assert.Contains(t, cacheRepo.store, "insights:report:2024-06-15")

	_, hit = svc.GetAllInsights(ctx)
	assert.True(t, hit)
}

func TestInsightsServiceIsIdempotentWithoutJitter(t *testing.T) {
	members, attendance, payments := gymFixture()
	svc := newTestInsightsService(members, attendance, payments, nil)

	first, _ := svc.GetAllInsights(context.Background())
	second, _ := svc.GetAllInsights(context.Background())

	assert.Equal(t, first.RevenueOpportunities, second.RevenueOpportunities)
	assert.Equal(t, first.RetentionRisks, second.RetentionRisks)
	assert.Equal(t, first.ChurnForecast, second.ChurnForecast)
	assert.Equal(t, first.RevenueForecast, second.RevenueForecast)
	assert.Equal(t, first.PeakHourForecast, second.PeakHourForecast)
	assert.Equal(t, first.RenewalOffers, second.RenewalOffers)
	assert.Equal(t, first.Summary, second.Summary)
}

func TestInsightsServiceSectionAccessors(t *testing.T) {
	members, attendance, payments := gymFixture()
	svc := newTestInsightsService(members, attendance, payments, nil)
	ctx := context.Background()

	assert.Len(t, svc.RevenueOpportunities(ctx), 1)
	assert.Len(t, svc.RetentionRisks(ctx), 1)
	assert.Len(t, svc.ChurnForecast(ctx), 3)
	assert.Len(t, svc.RevenueForecast(ctx), 3)
	assert.Len(t, svc.PeakHourForecast(ctx), 7)
	assert.Len(t, svc.RenewalOffers(ctx), 2)

	summary, hit := svc.Summary(ctx)
	assert.False(t, hit)
	assert.Equal(t, 2, summary.UpcomingRenewals)
}

func TestInsightsServiceRecordsComponentMetrics(t *testing.T) {
	members, _, payments := gymFixture()
	metrics := NewMetricsService()
	svc := NewInsightsService(InsightsServiceParams{
		Members:    members,
		Attendance: &fakeAttendanceStore{err: errors.New("down")},
		Payments:   payments,
		Metrics:    metrics,
	})
	svc.now = func() time.Time { return engineNow }

	svc.GetAllInsights(context.Background())

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(3), snapshot.InsightFailures)
}

func TestLockedRandomIsSafeForConcurrentUse(t *testing.T) {
	src := &lockedRandom{src: fixedRandom(0.5)}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Equal(t, 0.5, src.Float64())
			}
		}()
	}
	wg.Wait()
}

func TestInsightsServiceLogsFailedComponentWithRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	_, attendance, payments := gymFixture()
	svc := NewInsightsService(InsightsServiceParams{
		Members:    &fakeMemberStore{err: errors.New("connection refused")},
		Attendance: attendance,
		Payments:   payments,
		Logger:     zap.New(core),
	})
	svc.now = func() time.Time { return engineNow }

	risks := svc.RetentionRisks(requestid.WithID(context.Background(), "req-42"))

	assert.Empty(t, risks)
	entries := logs.FilterMessage("insights component failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, componentRisks, fields["component"])
	assert.Equal(t, "req-42", fields["request_id"])
}
