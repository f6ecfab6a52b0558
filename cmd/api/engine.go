package main

import (
	"github.com/noah-isme/gym-ops-api/internal/models"
	"github.com/noah-isme/gym-ops-api/internal/service"
	"github.com/noah-isme/gym-ops-api/pkg/config"
)

func engineConfig(cfg config.EngineConfig) service.InsightsEngineConfig {
	return service.InsightsEngineConfig{
		ActivityWindowDays:      cfg.ActivityWindowDays,
		InactivityDays:          cfg.InactivityDays,
		InactivityCap:           cfg.InactivityCap,
		ExpiringSoonDays:        cfg.ExpiringSoonDays,
		ExpiringSoonWeight:      cfg.ExpiringSoonWeight,
		NewMemberDays:           cfg.NewMemberDays,
		NewMemberInactivityDays: cfg.NewMemberInactivityDays,
		NewMemberPenalty:        cfg.NewMemberPenalty,
		RetentionThreshold:      cfg.RetentionThreshold,
		RetentionLimit:          cfg.RetentionLimit,
		HighRiskScore:           cfg.HighRiskScore,
		MediumRiskScore:         cfg.MediumRiskScore,
		ForecastHorizonMonths:   cfg.ForecastHorizonMonths,
		ChurnDefaultRate:        cfg.ChurnDefaultRate,
		ChurnMinHistoryMonths:   cfg.ChurnMinHistoryMonths,
		ChurnAlertRate:          cfg.ChurnAlertRate,
		RenewalRate:             cfg.RenewalRate,
		NewMemberBase:           cfg.NewMemberBase,
		RevenueHistory:          cfg.RevenueHistory,
		PeakThreshold:           cfg.PeakThreshold,
		CrowdedThreshold:        cfg.CrowdedThreshold,
		OccupancyJitter:         cfg.OccupancyJitter,
		GymCapacity:             cfg.GymCapacity,
		OccupancyLookbackDays:   cfg.OccupancyLookbackDays,
		RenewalWindowDays:       cfg.RenewalWindowDays,
		LoyalTenureDays:         cfg.LoyalTenureDays,
		PlanPrices: map[models.MembershipPlan]float64{
			models.PlanBasic:      cfg.PlanPrices.Basic,
			models.PlanPro:        cfg.PlanPrices.Pro,
			models.PlanPremium:    cfg.PlanPrices.Premium,
			models.PlanOneDayPass: cfg.PlanPrices.OneDayPass,
		},
	}
}
