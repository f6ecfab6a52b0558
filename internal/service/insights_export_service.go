package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/gym-ops-api/internal/dto"
	appErrors "github.com/noah-isme/gym-ops-api/pkg/errors"
	"github.com/noah-isme/gym-ops-api/pkg/export"
)

type insightsReader interface {
	GetAllInsights(ctx context.Context) (*dto.InsightsReport, bool)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// InsightsExport is a rendered report section ready for download.
type InsightsExport struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// InsightsExportService renders single report sections as CSV or PDF.
type InsightsExportService struct {
	insights  insightsReader
	renderers map[dto.ExportFormat]datasetRenderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewInsightsExportService constructs the export service with the CSV and PDF renderers.
func NewInsightsExportService(insights insightsReader, logger *zap.Logger) *InsightsExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InsightsExportService{
		insights: insights,
		renderers: map[dto.ExportFormat]datasetRenderer{
			dto.ExportFormatCSV: export.NewCSVExporter(),
			dto.ExportFormatPDF: export.NewPDFExporter(),
		},
		logger: logger,
		now:    time.Now,
	}
}

// Export renders one section of the current report.
func (s *InsightsExportService) Export(ctx context.Context, section dto.InsightsSection, format dto.ExportFormat) (*InsightsExport, error) {
	if format == "" {
		format = dto.ExportFormatCSV
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	report, _ := s.insights.GetAllInsights(ctx)
	dataset, err := sectionDataset(report, section)
	if err != nil {
		return nil, err
	}
	payload, err := renderer.Render(dataset)
	if err != nil {
		s.logger.Error("insights export render failed", zap.String("section", string(section)), zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &InsightsExport{
		Filename:    fmt.Sprintf("insights_%s_%s.%s", strings.ReplaceAll(string(section), "-", "_"), s.now().UTC().Format("20060102_150405"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Payload:     payload,
	}, nil
}

func sectionDataset(report *dto.InsightsReport, section dto.InsightsSection) (export.Dataset, error) {
	switch section {
	case dto.SectionRevenueOpportunities:
		return opportunityDataset(report.RevenueOpportunities), nil
	case dto.SectionRetentionRisks:
		return riskDataset(report.RetentionRisks), nil
	case dto.SectionChurnForecast:
		return churnDataset(report.ChurnForecast), nil
	case dto.SectionRevenueForecast:
		return revenueDataset(report.RevenueForecast), nil
	case dto.SectionPeakHours:
		return occupancyDataset(report.PeakHourForecast), nil
	case dto.SectionRenewalOffers:
		return renewalDataset(report.RenewalOffers), nil
	default:
		return export.Dataset{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown insights section %q", section))
	}
}

func opportunityDataset(items []dto.RevenueOpportunity) export.Dataset {
	data := export.Dataset{
		Title:   "Revenue Opportunities",
		Headers: []string{"memberId", "memberName", "currentPlan", "suggestedPlan", "currentPrice", "potentialPrice", "upgradeScore", "upgradeReason"},
	}
	for _, item := range items {
		data.Rows = append(data.Rows, map[string]string{
			"memberId":       item.MemberID,
			"memberName":     item.MemberName,
			"currentPlan":    string(item.CurrentPlan),
			"suggestedPlan":  string(item.SuggestedPlan),
			"currentPrice":   formatAmount(item.CurrentPrice),
			"potentialPrice": formatAmount(item.PotentialPrice),
			"upgradeScore":   strconv.Itoa(item.UpgradeScore),
			"upgradeReason":  item.UpgradeReason,
		})
	}
	return data
}

func riskDataset(items []dto.RetentionRisk) export.Dataset {
	data := export.Dataset{
		Title:   "Retention Risks",
		Headers: []string{"memberId", "memberName", "currentPlan", "lastCheckIn", "riskScore", "riskLevel", "riskFactors"},
	}
	for _, item := range items {
		data.Rows = append(data.Rows, map[string]string{
			"memberId":    item.MemberID,
			"memberName":  item.MemberName,
			"currentPlan": string(item.CurrentPlan),
			"lastCheckIn": item.LastCheckIn.Format("2006-01-02"),
			"riskScore":   strconv.Itoa(item.RiskScore),
			"riskLevel":   string(item.RiskLevel),
			"riskFactors": strings.Join(item.RiskFactors, "; "),
		})
	}
	return data
}

func churnDataset(items []dto.ChurnForecastPoint) export.Dataset {
	data := export.Dataset{
		Title:   "Churn Forecast",
		Headers: []string{"month", "predictedChurnRate", "predictedChurnCount", "confidence", "factors"},
	}
	for _, item := range items {
		data.Rows = append(data.Rows, map[string]string{
			"month":               item.Month,
			"predictedChurnRate":  formatAmount(item.PredictedChurnRate),
			"predictedChurnCount": strconv.Itoa(item.PredictedChurnCount),
			"confidence":          strconv.Itoa(item.Confidence),
			"factors":             strings.Join(item.Factors, "; "),
		})
	}
	return data
}

func revenueDataset(items []dto.RevenueForecastPoint) export.Dataset {
	data := export.Dataset{
		Title:   "Revenue Forecast",
		Headers: []string{"month", "totalRevenue", "predictedRenewals", "predictedNewMembers", "historicalMonthlyAverage", "confidence", "revenueByPlan"},
	}
	for _, item := range items {
		plans := make([]string, 0, len(item.RevenueByPlan))
		for plan, amount := range item.RevenueByPlan {
			plans = append(plans, fmt.Sprintf("%s=%s", plan, formatAmount(amount)))
		}
		sort.Strings(plans)
		data.Rows = append(data.Rows, map[string]string{
			"month":                    item.Month,
			"totalRevenue":             formatAmount(item.TotalRevenue),
			"predictedRenewals":        strconv.Itoa(item.PredictedRenewals),
			"predictedNewMembers":      strconv.Itoa(item.PredictedNewMembers),
			"historicalMonthlyAverage": formatAmount(item.HistoricalMonthlyAverage),
			"confidence":               strconv.Itoa(item.Confidence),
			"revenueByPlan":            strings.Join(plans, "; "),
		})
	}
	return data
}

func occupancyDataset(items []dto.PeakHourForecast) export.Dataset {
	data := export.Dataset{
		Title:   "Peak Hour Forecast (synthetic)",
		Headers: []string{"dayOfWeek", "hour", "occupancyPercentage", "memberCount", "peak"},
	}
	for _, day := range items {
		peaks := make(map[int]bool, len(day.PeakHours))
		for _, hour := range day.PeakHours {
			peaks[hour] = true
		}
		for _, slot := range day.HourlyData {
			data.Rows = append(data.Rows, map[string]string{
				"dayOfWeek":           day.DayOfWeek,
				"hour":                fmt.Sprintf("%02d:00", slot.Hour),
				"occupancyPercentage": strconv.FormatFloat(slot.OccupancyPercentage, 'f', 1, 64),
				"memberCount":         strconv.Itoa(slot.MemberCount),
				"peak":                strconv.FormatBool(peaks[slot.Hour]),
			})
		}
	}
	return data
}

func renewalDataset(items []dto.RenewalOffer) export.Dataset {
	data := export.Dataset{
		Title:   "Renewal Offers",
		Headers: []string{"memberId", "memberName", "currentPlan", "renewalDate", "daysUntilRenewal", "offerType", "discountPercent", "status"},
	}
	for _, item := range items {
		data.Rows = append(data.Rows, map[string]string{
			"memberId":         item.MemberID,
			"memberName":       item.MemberName,
			"currentPlan":      string(item.CurrentPlan),
			"renewalDate":      item.RenewalDate.Format("2006-01-02"),
			"daysUntilRenewal": strconv.Itoa(item.DaysUntilRenewal),
			"offerType":        item.OfferType,
			"discountPercent":  strconv.Itoa(item.DiscountPercent),
			"status":           string(item.Status),
		})
	}
	return data
}

func formatAmount(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}
