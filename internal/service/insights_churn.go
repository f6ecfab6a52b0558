package service

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/noah-isme/gym-ops-api/internal/dto"
	"github.com/noah-isme/gym-ops-api/internal/models"
)

const (
	churnModelConfidence    = 75
	churnFallbackConfidence = 50
	churnTrailingMonths     = 3
)

// ForecastChurn projects the monthly churn rate for the forecast horizon from
// past expirations. expired holds members whose expiration date has passed and
// activeCount is the current number of active members.
func ForecastChurn(expired []models.Member, activeCount int, now time.Time, cfg InsightsEngineConfig) []dto.ChurnForecastPoint {
	cfg = cfg.withDefaults()
	events := make([]models.Member, 0, len(expired))
	for _, member := range expired {
		if member.ExpirationDate.Before(now) {
			events = append(events, member)
		}
	}
	if activeCount <= 0 && len(events) == 0 {
		return []dto.ChurnForecastPoint{}
	}

	buckets := make(map[string]int)
	for _, member := range events {
		buckets[monthKey(member.ExpirationDate)]++
	}
	months := make([]string, 0, len(buckets))
	for key := range buckets {
		months = append(months, key)
	}
	sort.Strings(months)

	if len(months) < cfg.ChurnMinHistoryMonths {
		return defaultChurnForecast(activeCount, now, cfg)
	}

	rates := make([]float64, len(months))
	later := 0
	for i := len(months) - 1; i >= 0; i-- {
		cohort := activeCount + later
		if cohort > 0 {
			rates[i] = float64(buckets[months[i]]) / float64(cohort)
		}
		later += buckets[months[i]]
	}

	trailing := rates[len(rates)-minInt(churnTrailingMonths, len(rates)):]
	var sum float64
	for _, rate := range trailing {
		sum += rate
	}
	baseline := sum / float64(len(trailing))
	topPlanFactor := recentChurnLeader(events, now)

	points := make([]dto.ChurnForecastPoint, 0, cfg.ForecastHorizonMonths)
	for horizon := 1; horizon <= cfg.ForecastHorizonMonths; horizon++ {
		multiplier := cfg.seasonality(horizon)
		rate := baseline * multiplier
		percent := roundTo(rate*100, 2)

		factors := []string{seasonalFactor(multiplier)}
		if percent > cfg.ChurnAlertRate {
			factors = append(factors, fmt.Sprintf("Churn rate above %g%% threshold", cfg.ChurnAlertRate))
		}
		if topPlanFactor != "" {
			factors = append(factors, topPlanFactor)
		}

		start, _ := monthRange(now, horizon)
		points = append(points, dto.ChurnForecastPoint{
			Month:               monthLabel(start),
			PredictedChurnRate:  percent,
			PredictedChurnCount: int(math.Round(float64(activeCount) * rate)),
			Factors:             factors,
			Confidence:          churnModelConfidence,
		})
	}
	return points
}

func defaultChurnForecast(activeCount int, now time.Time, cfg InsightsEngineConfig) []dto.ChurnForecastPoint {
	points := make([]dto.ChurnForecastPoint, 0, cfg.ForecastHorizonMonths)
	for horizon := 1; horizon <= cfg.ForecastHorizonMonths; horizon++ {
		start, _ := monthRange(now, horizon)
		points = append(points, dto.ChurnForecastPoint{
			Month:               monthLabel(start),
			PredictedChurnRate:  cfg.ChurnDefaultRate,
			PredictedChurnCount: int(math.Round(float64(activeCount) * cfg.ChurnDefaultRate / 100)),
			Factors:             []string{"Insufficient history, using default churn rate"},
			Confidence:          churnFallbackConfidence,
		})
	}
	return points
}

func seasonalFactor(multiplier float64) string {
	delta := int(math.Round((multiplier - 1) * 100))
	switch {
	case delta > 0:
		return fmt.Sprintf("Seasonal increase expected (+%d%%)", delta)
	case delta < 0:
		return fmt.Sprintf("Seasonal decrease expected (%d%%)", delta)
	default:
		return "Stable seasonal baseline"
	}
}

// recentChurnLeader names the plan with the most expirations in the trailing months.
func recentChurnLeader(events []models.Member, now time.Time) string {
	since := now.AddDate(0, -churnTrailingMonths, 0)
	counts := make(map[models.MembershipPlan]int)
	for _, member := range events {
		if member.ExpirationDate.Before(since) {
			continue
		}
		counts[member.MembershipPlan]++
	}
	var (
		leader models.MembershipPlan
		best   int
	)
	for _, plan := range models.Plans() {
		if counts[plan] > best {
			leader, best = plan, counts[plan]
		}
	}
	if best == 0 {
		return ""
	}
	return fmt.Sprintf("Highest recent churn on %s plan (%d members)", leader, best)
}
