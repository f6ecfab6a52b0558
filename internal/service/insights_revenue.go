package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/gym-ops-api/internal/dto"
	"github.com/noah-isme/gym-ops-api/internal/models"
)

const revenueBaseConfidence = 80

// ForecastRevenue projects billed revenue per plan for each forecast month.
// It is a linear projection: renewals at the assumed renewal rate, recurring
// billing for members already paid through, and a small new-member inflow.
func ForecastRevenue(active []models.Member, payments []models.Payment, now time.Time, cfg InsightsEngineConfig) []dto.RevenueForecastPoint {
	cfg = cfg.withDefaults()
	byPlan := make(map[models.MembershipPlan][]models.Member)
	population := 0
	for _, member := range active {
		if !isActive(member) || !member.MembershipPlan.Valid() {
			continue
		}
		byPlan[member.MembershipPlan] = append(byPlan[member.MembershipPlan], member)
		population++
	}
	if population == 0 {
		return []dto.RevenueForecastPoint{}
	}

	baseline := historicalMonthlyAverage(payments, now, cfg.RevenueHistory)
	renewalRate := decimal.NewFromFloat(cfg.RenewalRate)

	points := make([]dto.RevenueForecastPoint, 0, cfg.ForecastHorizonMonths)
	for h := 0; h < cfg.ForecastHorizonMonths; h++ {
		start, end := monthRange(now, h+1)
		newMembers := cfg.NewMemberBase + h

		total := decimal.Zero
		revenueByPlan := make(map[models.MembershipPlan]float64, len(models.Plans()))
		renewing := 0
		for _, plan := range models.Plans() {
			members := byPlan[plan]
			price := decimal.NewFromFloat(cfg.price(plan))

			due := 0
			for _, member := range members {
				if inRange(member.ExpirationDate, start, end) {
					due++
				}
			}
			renewing += due

			revenue := decimal.NewFromInt(int64(due)).Mul(renewalRate).Mul(price)
			if plan.IsSubscription() {
				revenue = revenue.Add(decimal.NewFromInt(int64(len(members) - due)).Mul(price))
			}
			if share, ok := cfg.NewMemberMix[plan]; ok {
				revenue = revenue.Add(decimal.NewFromInt(int64(newMembers)).Mul(decimal.NewFromFloat(share)).Mul(price))
			}
			revenue = revenue.Round(2)
			revenueByPlan[plan] = revenue.InexactFloat64()
			total = total.Add(revenue)
		}

		confidence := revenueBaseConfidence - 10*h
		if confidence < 0 {
			confidence = 0
		}
		points = append(points, dto.RevenueForecastPoint{
			Month:                    monthLabel(start),
			TotalRevenue:             total.InexactFloat64(),
			RevenueByPlan:            revenueByPlan,
			PredictedRenewals:        int(decimal.NewFromInt(int64(renewing)).Mul(renewalRate).Round(0).IntPart()),
			PredictedNewMembers:      newMembers,
			HistoricalMonthlyAverage: baseline,
			Confidence:               confidence,
		})
	}
	return points
}

// historicalMonthlyAverage is the mean monthly payment total over the trailing
// calendar months before the current one.
func historicalMonthlyAverage(payments []models.Payment, now time.Time, months int) float64 {
	if months <= 0 || len(payments) == 0 {
		return 0
	}
	from, _ := monthRange(now, -months)
	to := startOfMonth(now)
	sum := decimal.Zero
	for _, payment := range payments {
		if inRange(payment.PaymentDate, from, to) {
			sum = sum.Add(decimal.NewFromFloat(payment.Amount))
		}
	}
	return sum.Div(decimal.NewFromInt(int64(months))).Round(2).InexactFloat64()
}
