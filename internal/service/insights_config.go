package service

import (
	"github.com/noah-isme/gym-ops-api/internal/models"
)

// InsightsEngineConfig holds the tunable thresholds of the scorers and forecasters.
// Zero values fall back to the defaults applied by withDefaults.
type InsightsEngineConfig struct {
	ActivityWindowDays int

	InactivityDays          int
	InactivityCap           int
	ExpiringSoonDays        int
	ExpiringSoonWeight      int
	NewMemberDays           int
	NewMemberInactivityDays int
	NewMemberPenalty        int
	RetentionThreshold      int
	RetentionLimit          int
	HighRiskScore           int
	MediumRiskScore         int

	ForecastHorizonMonths int
	ChurnDefaultRate      float64
	ChurnMinHistoryMonths int
	ChurnAlertRate        float64
	ChurnSeasonality      []float64

	RenewalRate    float64
	NewMemberBase  int
	NewMemberMix   map[models.MembershipPlan]float64
	RevenueHistory int

	PeakThreshold         float64
	CrowdedThreshold      float64
	OccupancyJitter       float64
	GymCapacity           int
	OccupancyLookbackDays int

	RenewalWindowDays int
	LoyalTenureDays   int

	PlanPrices map[models.MembershipPlan]float64
}

// DefaultInsightsEngineConfig returns the engine thresholds used when nothing is configured.
func DefaultInsightsEngineConfig() InsightsEngineConfig {
	return InsightsEngineConfig{}.withDefaults()
}

func (c InsightsEngineConfig) withDefaults() InsightsEngineConfig {
	if c.ActivityWindowDays <= 0 {
		c.ActivityWindowDays = 30
	}
	if c.InactivityDays <= 0 {
		c.InactivityDays = 14
	}
	if c.InactivityCap <= 0 {
		c.InactivityCap = 60
	}
	if c.ExpiringSoonDays <= 0 {
		c.ExpiringSoonDays = 14
	}
	if c.ExpiringSoonWeight <= 0 {
		c.ExpiringSoonWeight = 3
	}
	if c.NewMemberDays <= 0 {
		c.NewMemberDays = 30
	}
	if c.NewMemberInactivityDays <= 0 {
		c.NewMemberInactivityDays = 7
	}
	if c.NewMemberPenalty <= 0 {
		c.NewMemberPenalty = 20
	}
	if c.RetentionThreshold <= 0 {
		c.RetentionThreshold = 30
	}
	if c.RetentionLimit <= 0 {
		c.RetentionLimit = 10
	}
	if c.HighRiskScore <= 0 {
		c.HighRiskScore = 70
	}
	if c.MediumRiskScore <= 0 {
		c.MediumRiskScore = 50
	}
	if c.ForecastHorizonMonths <= 0 {
		c.ForecastHorizonMonths = 3
	}
	if c.ChurnDefaultRate <= 0 {
		c.ChurnDefaultRate = 5
	}
	if c.ChurnMinHistoryMonths <= 0 {
		c.ChurnMinHistoryMonths = 3
	}
	if c.ChurnAlertRate <= 0 {
		c.ChurnAlertRate = 7
	}
	if len(c.ChurnSeasonality) == 0 {
		c.ChurnSeasonality = []float64{1.1, 0.9, 1.0}
	}
	if c.RenewalRate <= 0 {
		c.RenewalRate = 0.9
	}
	if c.NewMemberBase <= 0 {
		c.NewMemberBase = 5
	}
	if len(c.NewMemberMix) == 0 {
		c.NewMemberMix = map[models.MembershipPlan]float64{
			models.PlanBasic:   0.6,
			models.PlanPro:     0.3,
			models.PlanPremium: 0.1,
		}
	}
	if c.RevenueHistory <= 0 {
		c.RevenueHistory = 3
	}
	if c.PeakThreshold <= 0 {
		c.PeakThreshold = 70
	}
	if c.CrowdedThreshold <= 0 {
		c.CrowdedThreshold = 85
	}
	if c.OccupancyJitter <= 0 {
		c.OccupancyJitter = 10
	}
	if c.GymCapacity <= 0 {
		c.GymCapacity = 60
	}
	if c.OccupancyLookbackDays <= 0 {
		c.OccupancyLookbackDays = 28
	}
	if c.RenewalWindowDays <= 0 {
		c.RenewalWindowDays = 30
	}
	if c.LoyalTenureDays <= 0 {
		c.LoyalTenureDays = 180
	}
	if len(c.PlanPrices) == 0 {
		c.PlanPrices = models.DefaultPlanPrices
	}
	return c
}

func (c InsightsEngineConfig) price(plan models.MembershipPlan) float64 {
	if price, ok := c.PlanPrices[plan]; ok {
		return price
	}
	return plan.Price()
}

// seasonality returns the churn multiplier for the 1-based forecast horizon.
func (c InsightsEngineConfig) seasonality(horizon int) float64 {
	if horizon < 1 || horizon > len(c.ChurnSeasonality) {
		return 1
	}
	return c.ChurnSeasonality[horizon-1]
}
