package dto

import (
	"time"

	"github.com/noah-isme/gym-ops-api/internal/models"
)

// RevenueOpportunity flags a member who qualifies for the next plan tier.
type RevenueOpportunity struct {
	MemberID       string                `json:"memberId"`
	MemberName     string                `json:"memberName"`
	CurrentPlan    models.MembershipPlan `json:"currentPlan"`
	SuggestedPlan  models.MembershipPlan `json:"suggestedPlan"`
	CurrentPrice   float64               `json:"currentPrice"`
	PotentialPrice float64               `json:"potentialPrice"`
	UpgradeReason  string                `json:"upgradeReason"`
	UpgradeScore   int                   `json:"upgradeScore"`
}

// RiskLevel buckets a retention risk score.
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

// RetentionRisk describes a member likely to churn.
type RetentionRisk struct {
	MemberID    string                `json:"memberId"`
	MemberName  string                `json:"memberName"`
	CurrentPlan models.MembershipPlan `json:"currentPlan"`
	LastCheckIn time.Time             `json:"lastCheckIn"`
	RiskScore   int                   `json:"riskScore"`
	RiskLevel   RiskLevel             `json:"riskLevel"`
	RiskFactors []string              `json:"riskFactors"`
}

// ChurnForecastPoint is the projected churn for one future month.
type ChurnForecastPoint struct {
	Month               string   `json:"month"`
	PredictedChurnRate  float64  `json:"predictedChurnRate"`
	PredictedChurnCount int      `json:"predictedChurnCount"`
	Factors             []string `json:"factors"`
	Confidence          int      `json:"confidence"`
}

// RevenueForecastPoint is the projected billed revenue for one future month.
type RevenueForecastPoint struct {
	Month                    string                            `json:"month"`
	TotalRevenue             float64                           `json:"totalRevenue"`
	RevenueByPlan            map[models.MembershipPlan]float64 `json:"revenueByPlan"`
	PredictedRenewals        int                               `json:"predictedRenewals"`
	PredictedNewMembers      int                               `json:"predictedNewMembers"`
	HistoricalMonthlyAverage float64                           `json:"historicalMonthlyAverage"`
	Confidence               int                               `json:"confidence"`
}

// HourlyOccupancy is one hour bucket of the modeled occupancy curve.
type HourlyOccupancy struct {
	Hour                int     `json:"hour"`
	OccupancyPercentage float64 `json:"occupancyPercentage"`
	MemberCount         int     `json:"memberCount"`
}

// PeakHourForecast is the modeled occupancy curve for one day of the week.
type PeakHourForecast struct {
	DayOfWeek        string            `json:"dayOfWeek"`
	HourlyData       []HourlyOccupancy `json:"hourlyData"`
	PeakHours        []int             `json:"peakHours"`
	SuggestedActions []string          `json:"suggestedActions"`
	Synthetic        bool              `json:"synthetic"`
}

// DeliveryStatus tracks a renewal offer through the messaging pipeline.
type DeliveryStatus string

const (
	DeliveryStatusPending DeliveryStatus = "pending"
	DeliveryStatusSent    DeliveryStatus = "sent"
	DeliveryStatusOpened  DeliveryStatus = "opened"
	DeliveryStatusClicked DeliveryStatus = "clicked"
)

// RenewalOffer is a personalised retention offer for an upcoming renewal.
type RenewalOffer struct {
	MemberID         string                `json:"memberId"`
	MemberName       string                `json:"memberName"`
	CurrentPlan      models.MembershipPlan `json:"currentPlan"`
	RenewalDate      time.Time             `json:"renewalDate"`
	DaysUntilRenewal int                   `json:"daysUntilRenewal"`
	OfferType        string                `json:"offerType"`
	OfferDescription string                `json:"offerDescription"`
	DiscountPercent  int                   `json:"discountPercent"`
	Status           DeliveryStatus        `json:"status"`
}

// InsightsSummary carries the headline KPIs of a report.
type InsightsSummary struct {
	TotalPotentialRevenue float64 `json:"totalPotentialRevenue"`
	HighRiskMembers       int     `json:"highRiskMembers"`
	AvgChurnRate          float64 `json:"avgChurnRate"`
	NextMonthRevenue      float64 `json:"nextMonthRevenue"`
	UpcomingRenewals      int     `json:"upcomingRenewals"`
}

// InsightsReport is the combined output of the operations intelligence engine.
type InsightsReport struct {
	ReportID             string                 `json:"reportId,omitempty"`
	GeneratedAt          *time.Time             `json:"generatedAt,omitempty"`
	OccupancyModel       string                 `json:"occupancyModel,omitempty"`
	RevenueOpportunities []RevenueOpportunity   `json:"revenueOpportunities"`
	RetentionRisks       []RetentionRisk        `json:"retentionRisks"`
	ChurnForecast        []ChurnForecastPoint   `json:"churnForecast"`
	RevenueForecast      []RevenueForecastPoint `json:"revenueForecast"`
	PeakHourForecast     []PeakHourForecast     `json:"peakHourForecast"`
	RenewalOffers        []RenewalOffer         `json:"renewalOffers"`
	Summary              InsightsSummary        `json:"summary"`
}

// EmptyInsightsReport returns a report with every list initialised and zero KPIs.
func EmptyInsightsReport() *InsightsReport {
	return &InsightsReport{
		RevenueOpportunities: []RevenueOpportunity{},
		RetentionRisks:       []RetentionRisk{},
		ChurnForecast:        []ChurnForecastPoint{},
		RevenueForecast:      []RevenueForecastPoint{},
		PeakHourForecast:     []PeakHourForecast{},
		RenewalOffers:        []RenewalOffer{},
	}
}

// InsightsRefreshResponse acknowledges a queued report refresh.
type InsightsRefreshResponse struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}

// InsightsSection names one list of the report.
type InsightsSection string

const (
	SectionRevenueOpportunities InsightsSection = "revenue-opportunities"
	SectionRetentionRisks       InsightsSection = "retention-risks"
	SectionChurnForecast        InsightsSection = "churn-forecast"
	SectionRevenueForecast      InsightsSection = "revenue-forecast"
	SectionPeakHours            InsightsSection = "peak-hours"
	SectionRenewalOffers        InsightsSection = "renewal-offers"
)

// ExportFormat is the rendering format of an insights export.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// InsightsExportQuery selects the section and format of an export download.
type InsightsExportQuery struct {
	Section InsightsSection `form:"section" binding:"required,oneof=revenue-opportunities retention-risks churn-forecast revenue-forecast peak-hours renewal-offers"`
	Format  ExportFormat    `form:"format" binding:"omitempty,oneof=csv pdf"`
}
