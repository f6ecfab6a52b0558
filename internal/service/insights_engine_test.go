package service

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gym-ops-api/internal/dto"
	"github.com/noah-isme/gym-ops-api/internal/models"
)

// Saturday noon.
var engineNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func daysFrom(days int) time.Time {
	return engineNow.AddDate(0, 0, days)
}

func activeMember(id string, plan models.MembershipPlan, joinedDaysAgo, expiresInDays int) models.Member {
	return models.Member{
		ID:             id,
		FullName:       "Member " + id,
		MembershipPlan: plan,
		JoinDate:       daysFrom(-joinedDaysAgo),
		ExpirationDate: daysFrom(expiresInDays),
		Status:         models.MemberStatusActive,
	}
}

func presentVisits(memberID string, daysAgo ...int) []models.AttendanceRecord {
	records := make([]models.AttendanceRecord, 0, len(daysAgo))
	for _, d := range daysAgo {
		records = append(records, models.AttendanceRecord{
			ID:       memberID + "-" + daysFrom(-d).Format("0102"),
			MemberID: memberID,
			Date:     daysFrom(-d),
			Status:   models.AttendanceStatusPresent,
		})
	}
	return records
}

func dayRange(from, to int) []int {
	days := make([]int, 0, to-from+1)
	for d := from; d <= to; d++ {
		days = append(days, d)
	}
	return days
}

type fixedRandom float64

func (f fixedRandom) Float64() float64 { return float64(f) }

func TestScoreRevenueOpportunities_FrequentBasicMember(t *testing.T) {
	members := []models.Member{activeMember("m-1", models.PlanBasic, 40, 60)}
	attendance := presentVisits("m-1", dayRange(1, 15)...)

	result := ScoreRevenueOpportunities(members, attendance, engineNow, DefaultInsightsEngineConfig())

	require.Len(t, result, 1)
	opportunity := result[0]
	assert.Equal(t, models.PlanBasic, opportunity.CurrentPlan)
	assert.Equal(t, models.PlanPro, opportunity.SuggestedPlan)
	assert.Contains(t, opportunity.UpgradeReason, "High gym usage")
	assert.GreaterOrEqual(t, opportunity.UpgradeScore, 75)
	assert.Equal(t, 79, opportunity.UpgradeScore)
	assert.Equal(t, 30.0, opportunity.CurrentPrice)
	assert.Equal(t, 50.0, opportunity.PotentialPrice)
}

func TestScoreRevenueOpportunities_Rules(t *testing.T) {
	members := []models.Member{
		activeMember("premium", models.PlanPremium, 400, 60),
		activeMember("pro-tenure", models.PlanPro, 200, 60),
		activeMember("day-pass", models.PlanOneDayPass, 10, 1),
		activeMember("quiet-basic", models.PlanBasic, 20, 60),
		{ID: "inactive", MembershipPlan: models.PlanBasic, JoinDate: daysFrom(-400), ExpirationDate: daysFrom(-5), Status: models.MemberStatusInactive},
	}
	attendance := append(presentVisits("premium", dayRange(1, 25)...), presentVisits("day-pass", 1, 2, 3, 4)...)
	attendance = append(attendance, presentVisits("inactive", dayRange(1, 20)...)...)
	attendance = append(attendance, models.AttendanceRecord{ID: "absent", MemberID: "quiet-basic", Date: daysFrom(-1), Status: models.AttendanceStatusAbsent})

	result := ScoreRevenueOpportunities(members, attendance, engineNow, DefaultInsightsEngineConfig())

	require.Len(t, result, 2)
	assert.Equal(t, "day-pass", result[0].MemberID)
	assert.Equal(t, models.PlanBasic, result[0].SuggestedPlan)
	assert.Equal(t, "Frequent day-pass visits: 4 visits in the last 30 days", result[0].UpgradeReason)
	assert.Equal(t, 60, result[0].UpgradeScore)

	assert.Equal(t, "pro-tenure", result[1].MemberID)
	assert.Equal(t, models.PlanPremium, result[1].SuggestedPlan)
	assert.Equal(t, "Long-term member for 6 months", result[1].UpgradeReason)
	assert.Equal(t, 13, result[1].UpgradeScore)

	for _, opportunity := range result {
		assert.NotEqual(t, models.PlanPremium, opportunity.CurrentPlan)
		assert.Greater(t, opportunity.PotentialPrice, opportunity.CurrentPrice)
		assert.LessOrEqual(t, opportunity.UpgradeScore, 95)
	}
}

func TestScoreRevenueOpportunities_ScoreCapped(t *testing.T) {
	members := []models.Member{activeMember("m-1", models.PlanBasic, 900, 60)}
	attendance := presentVisits("m-1", dayRange(0, 29)...)

	result := ScoreRevenueOpportunities(members, attendance, engineNow, DefaultInsightsEngineConfig())

	require.Len(t, result, 1)
	assert.Equal(t, 95, result[0].UpgradeScore)
}

func TestScoreRetentionRisks_InactiveAndExpiring(t *testing.T) {
	members := []models.Member{activeMember("m-1", models.PlanPro, 100, 10)}
	attendance := presentVisits("m-1", 20, 45)

	result := ScoreRetentionRisks(members, attendance, engineNow, DefaultInsightsEngineConfig())

	require.Len(t, result, 1)
	risk := result[0]
	assert.Equal(t, []string{"No check-ins for 20 days", "Membership expires in 10 days"}, risk.RiskFactors)
	assert.Equal(t, 32, risk.RiskScore)
	assert.GreaterOrEqual(t, risk.RiskScore, 30)
	assert.LessOrEqual(t, risk.RiskScore, 100)
	assert.Equal(t, dto.RiskLevelLow, risk.RiskLevel)
	assert.Equal(t, daysFrom(-20), risk.LastCheckIn)
}

func midnight(days int) time.Time {
	d := daysFrom(days)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

func TestScoreRetentionRisks_CountsCalendarDaysForStoredDates(t *testing.T) {
	members := []models.Member{{
		ID:             "m-1",
		MembershipPlan: models.PlanPro,
		JoinDate:       midnight(-100),
		ExpirationDate: time.Date(2024, 6, 25, 0, 0, 0, 0, time.UTC),
		Status:         models.MemberStatusActive,
	}}
	attendance := []models.AttendanceRecord{{ID: "a-1", MemberID: "m-1", Date: midnight(-20), Status: models.AttendanceStatusPresent}}

	result := ScoreRetentionRisks(members, attendance, engineNow, DefaultInsightsEngineConfig())

	require.Len(t, result, 1)
	assert.Equal(t, []string{"No check-ins for 20 days", "Membership expires in 10 days"}, result[0].RiskFactors)
	assert.Equal(t, 32, result[0].RiskScore)
}

func TestGenerateRenewalOffers_CountsCalendarDaysForStoredDates(t *testing.T) {
	members := []models.Member{
		{ID: "m-1", MembershipPlan: models.PlanPro, JoinDate: midnight(-60), ExpirationDate: midnight(10), Status: models.MemberStatusActive},
		{ID: "m-2", MembershipPlan: models.PlanPro, JoinDate: midnight(-60), ExpirationDate: midnight(30), Status: models.MemberStatusActive},
		{ID: "m-3", MembershipPlan: models.PlanPro, JoinDate: midnight(-60), ExpirationDate: midnight(31), Status: models.MemberStatusActive},
	}

	result := GenerateRenewalOffers(members, engineNow, DefaultInsightsEngineConfig())

	require.Len(t, result, 2)
	assert.Equal(t, 10, result[0].DaysUntilRenewal)
	assert.Equal(t, offerRenewalDiscount, result[0].OfferType)
	assert.Equal(t, 30, result[1].DaysUntilRenewal)
}

func TestDaysBetweenIgnoresTimeOfDay(t *testing.T) {
	late := time.Date(2024, 6, 15, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, 1, daysBetween(late, time.Date(2024, 6, 16, 0, 1, 0, 0, time.UTC)))
	assert.Equal(t, 0, daysBetween(engineNow, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, -1, daysBetween(engineNow, time.Date(2024, 6, 14, 23, 0, 0, 0, time.UTC)))
}

func TestScoreRetentionRisks_NewMemberFallsBackToJoinDate(t *testing.T) {
	members := []models.Member{activeMember("m-1", models.PlanBasic, 20, 100)}

	result := ScoreRetentionRisks(members, nil, engineNow, DefaultInsightsEngineConfig())

	require.Len(t, result, 1)
	assert.Equal(t, 40, result[0].RiskScore)
	assert.Equal(t, []string{"No check-ins for 20 days", "New member with low engagement"}, result[0].RiskFactors)
	assert.Equal(t, daysFrom(-20), result[0].LastCheckIn)
}

func TestScoreRetentionRisks_ThresholdAndLevels(t *testing.T) {
	members := []models.Member{
		activeMember("engaged", models.PlanBasic, 300, 100),
		activeMember("borderline", models.PlanBasic, 300, 100),
		activeMember("critical", models.PlanPremium, 300, 1),
	}
	attendance := append(presentVisits("engaged", 2), presentVisits("borderline", 30)...)
	attendance = append(attendance, presentVisits("critical", 200)...)

	result := ScoreRetentionRisks(members, attendance, engineNow, DefaultInsightsEngineConfig())

	require.Len(t, result, 1)
	assert.Equal(t, "critical", result[0].MemberID)
	assert.Equal(t, 99, result[0].RiskScore)
	assert.Equal(t, dto.RiskLevelHigh, result[0].RiskLevel)
}

func TestScoreRetentionRisks_LimitAndOrdering(t *testing.T) {
	var members []models.Member
	var attendance []models.AttendanceRecord
	for i := 0; i < 12; i++ {
		id := string(rune('a' + i))
		members = append(members, activeMember(id, models.PlanBasic, 400, 200))
		attendance = append(attendance, presentVisits(id, 31+i*2)...)
	}

	result := ScoreRetentionRisks(members, attendance, engineNow, DefaultInsightsEngineConfig())

	require.Len(t, result, 10)
	for i := 1; i < len(result); i++ {
		assert.GreaterOrEqual(t, result[i-1].RiskScore, result[i].RiskScore)
	}
	for _, risk := range result {
		assert.Greater(t, risk.RiskScore, 30)
		assert.LessOrEqual(t, risk.RiskScore, 100)
	}
}

func TestForecastChurn_EmptyPopulation(t *testing.T) {
	assert.Empty(t, ForecastChurn(nil, 0, engineNow, DefaultInsightsEngineConfig()))
}

func TestForecastChurn_DefaultWithShortHistory(t *testing.T) {
	expired := []models.Member{
		{ID: "x-1", MembershipPlan: models.PlanBasic, ExpirationDate: time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)},
	}

	result := ForecastChurn(expired, 40, engineNow, DefaultInsightsEngineConfig())

	require.Len(t, result, 3)
	assert.Equal(t, "Jul 2024", result[0].Month)
	assert.Equal(t, "Aug 2024", result[1].Month)
	assert.Equal(t, "Sep 2024", result[2].Month)
	for _, point := range result {
		assert.Equal(t, 5.0, point.PredictedChurnRate)
		assert.Equal(t, 2, point.PredictedChurnCount)
		assert.Equal(t, 50, point.Confidence)
		assert.Equal(t, []string{"Insufficient history, using default churn rate"}, point.Factors)
	}
}

func TestForecastChurn_SeasonalModel(t *testing.T) {
	var expired []models.Member
	for _, month := range []time.Month{time.March, time.April, time.May} {
		for i := 0; i < 2; i++ {
			expired = append(expired, models.Member{
				ID:             month.String() + string(rune('a'+i)),
				MembershipPlan: models.PlanBasic,
				ExpirationDate: time.Date(2024, month, 20, 0, 0, 0, 0, time.UTC),
				Status:         models.MemberStatusInactive,
			})
		}
	}

	result := ForecastChurn(expired, 20, engineNow, DefaultInsightsEngineConfig())

	require.Len(t, result, 3)
	assert.InDelta(t, 10.06, result[0].PredictedChurnRate, 0.001)
	assert.InDelta(t, 8.23, result[1].PredictedChurnRate, 0.001)
	assert.InDelta(t, 9.14, result[2].PredictedChurnRate, 0.001)
	assert.Equal(t, "Seasonal increase expected (+10%)", result[0].Factors[0])
	assert.Equal(t, "Seasonal decrease expected (-10%)", result[1].Factors[0])
	assert.Equal(t, "Stable seasonal baseline", result[2].Factors[0])
	assert.Contains(t, result[0].Factors, "Churn rate above 7% threshold")
	assert.Contains(t, result[0].Factors, "Highest recent churn on Basic plan (6 members)")
	for _, point := range result {
		assert.Equal(t, 75, point.Confidence)
		assert.Equal(t, 2, point.PredictedChurnCount)
		assert.GreaterOrEqual(t, point.PredictedChurnRate, 0.0)
		assert.LessOrEqual(t, point.PredictedChurnRate, 100.0)
	}
}

func TestForecastRevenue_EmptyPopulation(t *testing.T) {
	assert.Empty(t, ForecastRevenue(nil, nil, engineNow, DefaultInsightsEngineConfig()))
}

func TestForecastRevenue_NextMonth(t *testing.T) {
	active := []models.Member{
		activeMember("b-1", models.PlanBasic, 100, 20),
		activeMember("b-2", models.PlanBasic, 100, 25),
		activeMember("p-1", models.PlanPro, 100, 180),
	}
	payments := []models.Payment{
		{ID: "feb", Amount: 500, PaymentDate: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)},
		{ID: "mar", Amount: 30, PaymentDate: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)},
		{ID: "apr", Amount: 50, PaymentDate: time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)},
		{ID: "may", Amount: 10, PaymentDate: time.Date(2024, 5, 31, 23, 0, 0, 0, time.UTC)},
		{ID: "jun", Amount: 80, PaymentDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
	}

	result := ForecastRevenue(active, payments, engineNow, DefaultInsightsEngineConfig())

	require.Len(t, result, 3)
	first := result[0]
	assert.Equal(t, "Jul 2024", first.Month)
	assert.Equal(t, 144.0, first.RevenueByPlan[models.PlanBasic])
	assert.Equal(t, 125.0, first.RevenueByPlan[models.PlanPro])
	assert.Equal(t, 40.0, first.RevenueByPlan[models.PlanPremium])
	assert.Equal(t, 0.0, first.RevenueByPlan[models.PlanOneDayPass])
	assert.Equal(t, 309.0, first.TotalRevenue)
	assert.Equal(t, 2, first.PredictedRenewals)
	assert.Equal(t, 5, first.PredictedNewMembers)
	assert.Equal(t, 30.0, first.HistoricalMonthlyAverage)

	for i, point := range result {
		assert.Equal(t, 80-10*i, point.Confidence)
		var sum float64
		for _, amount := range point.RevenueByPlan {
			sum += amount
		}
		assert.InDelta(t, point.TotalRevenue, sum, 0.001)
		assert.GreaterOrEqual(t, point.TotalRevenue, 0.0)
	}
}

func TestForecastPeakHours_NoRecentAttendance(t *testing.T) {
	assert.Empty(t, ForecastPeakHours(nil, engineNow, DefaultInsightsEngineConfig(), nil))
	stale := presentVisits("m-1", 40)
	assert.Empty(t, ForecastPeakHours(stale, engineNow, DefaultInsightsEngineConfig(), nil))
}

func TestForecastPeakHours_ModeledCurve(t *testing.T) {
	result := ForecastPeakHours(presentVisits("m-1", 1), engineNow, DefaultInsightsEngineConfig(), nil)

	require.Len(t, result, 7)
	byDay := make(map[string]dto.PeakHourForecast, len(result))
	for _, day := range result {
		assert.True(t, day.Synthetic)
		require.Len(t, day.HourlyData, 17)
		assert.Equal(t, 6, day.HourlyData[0].Hour)
		assert.Equal(t, 22, day.HourlyData[16].Hour)
		byDay[day.DayOfWeek] = day
	}
	assert.Equal(t, "Monday", result[0].DayOfWeek)
	assert.Equal(t, "Sunday", result[6].DayOfWeek)

	monday := byDay["Monday"]
	assert.Equal(t, []int{17, 18, 19, 20}, monday.PeakHours)
	assert.Equal(t, 90.0, monday.HourlyData[12].OccupancyPercentage)
	assert.Equal(t, 54, monday.HourlyData[12].MemberCount)
	assert.Equal(t, "Add staff coverage during peak hours (17:00, 18:00, 19:00, 20:00)", monday.SuggestedActions[0])
	assert.Contains(t, monday.SuggestedActions[1], "Cap class bookings")

	friday := byDay["Friday"]
	assert.Empty(t, friday.PeakHours)
	assert.Equal(t, "Normal staffing is sufficient; promote off-peak classes", friday.SuggestedActions[0])

	saturday := byDay["Saturday"]
	assert.Equal(t, 45.0, saturday.HourlyData[2].OccupancyPercentage)
	assert.Equal(t, []int{17, 18, 19, 20}, saturday.PeakHours)

	tuesday := byDay["Tuesday"]
	assert.Equal(t, 35.0, tuesday.HourlyData[0].OccupancyPercentage)
	assert.Equal(t, 21, tuesday.HourlyData[0].MemberCount)
}

func TestForecastPeakHours_JitterStaysInBounds(t *testing.T) {
	high := ForecastPeakHours(presentVisits("m-1", 1), engineNow, DefaultInsightsEngineConfig(), fixedRandom(0.999999))
	assert.Equal(t, 100.0, high[0].HourlyData[12].OccupancyPercentage)

	low := ForecastPeakHours(presentVisits("m-1", 1), engineNow, DefaultInsightsEngineConfig(), fixedRandom(0))
	assert.Equal(t, 25.0, low[1].HourlyData[0].OccupancyPercentage)

	seeded := ForecastPeakHours(presentVisits("m-1", 1), engineNow, DefaultInsightsEngineConfig(), rand.New(rand.NewSource(7)))
	for _, day := range seeded {
		for _, slot := range day.HourlyData {
			assert.GreaterOrEqual(t, slot.OccupancyPercentage, 0.0)
			assert.LessOrEqual(t, slot.OccupancyPercentage, 100.0)
		}
		for _, hour := range day.PeakHours {
			assert.Greater(t, day.HourlyData[hour-6].OccupancyPercentage, 70.0)
		}
	}
}

func TestGenerateRenewalOffers_SelectsTemplates(t *testing.T) {
	members := []models.Member{
		activeMember("c", models.PlanPro, 60, 25),
		activeMember("a", models.PlanBasic, 60, 5),
		activeMember("b", models.PlanBasic, 60, 15),
		activeMember("d", models.PlanPro, 60, 10),
		activeMember("e", models.PlanPremium, 400, 20),
		activeMember("f", models.PlanBasic, 200, 3),
		activeMember("j", models.PlanPro, 60, 30),
		activeMember("late", models.PlanBasic, 60, 31),
		activeMember("lapsed", models.PlanBasic, 60, -1),
		{ID: "inactive", MembershipPlan: models.PlanBasic, JoinDate: daysFrom(-60), ExpirationDate: daysFrom(5), Status: models.MemberStatusInactive},
	}

	result := GenerateRenewalOffers(members, engineNow, DefaultInsightsEngineConfig())

	require.Len(t, result, 7)
	expected := []struct {
		id       string
		offer    string
		discount int
		days     int
	}{
		{"f", "Loyalty Upgrade", 0, 3},
		{"a", "Last Chance", 15, 5},
		{"d", "Renewal Discount", 5, 10},
		{"b", "Premium Trial", 0, 15},
		{"e", "Loyalty Reward", 10, 20},
		{"c", "Early Bird", 10, 25},
		{"j", "Early Bird", 10, 30},
	}
	for i, want := range expected {
		assert.Equal(t, want.id, result[i].MemberID)
		assert.Equal(t, want.offer, result[i].OfferType)
		assert.Equal(t, want.discount, result[i].DiscountPercent)
		assert.Equal(t, want.days, result[i].DaysUntilRenewal)
		assert.Equal(t, dto.DeliveryStatusPending, result[i].Status)
		assert.True(t, result[i].RenewalDate.After(engineNow))
	}
	assert.Contains(t, result[0].OfferDescription, "Pro")
}
