package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gym-ops-api/internal/dto"
	"github.com/noah-isme/gym-ops-api/internal/middleware"
	"github.com/noah-isme/gym-ops-api/internal/service"
	appErrors "github.com/noah-isme/gym-ops-api/pkg/errors"
	"github.com/noah-isme/gym-ops-api/pkg/response"
)

type insightsService interface {
	GetAllInsights(ctx context.Context) (*dto.InsightsReport, bool)
	Summary(ctx context.Context) (dto.InsightsSummary, bool)
	RevenueOpportunities(ctx context.Context) []dto.RevenueOpportunity
	RetentionRisks(ctx context.Context) []dto.RetentionRisk
	ChurnForecast(ctx context.Context) []dto.ChurnForecastPoint
	RevenueForecast(ctx context.Context) []dto.RevenueForecastPoint
	PeakHourForecast(ctx context.Context) []dto.PeakHourForecast
	RenewalOffers(ctx context.Context) []dto.RenewalOffer
}

type insightsExporter interface {
	Export(ctx context.Context, section dto.InsightsSection, format dto.ExportFormat) (*service.InsightsExport, error)
}

type insightsRefresher interface {
	Refresh(ctx context.Context) (*dto.InsightsRefreshResponse, error)
}

// InsightsHandler exposes the operations intelligence report over HTTP.
type InsightsHandler struct {
	service   insightsService
	exporter  insightsExporter
	refresher insightsRefresher
}

// NewInsightsHandler constructs the handler. exporter and refresher are optional.
func NewInsightsHandler(service insightsService, exporter insightsExporter, refresher insightsRefresher) *InsightsHandler {
	return &InsightsHandler{service: service, exporter: exporter, refresher: refresher}
}

// Register mounts the insights routes on group.
func (h *InsightsHandler) Register(group *gin.RouterGroup) {
	group.GET("", h.Report)
	group.GET("/summary", h.Summary)
	group.GET("/revenue-opportunities", h.RevenueOpportunities)
	group.GET("/retention-risks", h.RetentionRisks)
	group.GET("/churn-forecast", h.ChurnForecast)
	group.GET("/revenue-forecast", h.RevenueForecast)
	group.GET("/peak-hours", h.PeakHours)
	group.GET("/renewal-offers", h.RenewalOffers)
	group.GET("/export", h.Export)
	group.POST("/refresh", h.Refresh)
}

// Report godoc
// @Summary Combined operations insights report
// @Tags Insights
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /insights [get]
func (h *InsightsHandler) Report(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	report, cacheHit := h.service.GetAllInsights(c.Request.Context())
	middleware.SetCacheHit(c, cacheHit)
	if report.ReportID != "" {
		middleware.SetMeta(c, middleware.MetaReportID, report.ReportID)
	}
	h.respond(c, start, report)
}

// Summary godoc
// @Summary Headline KPIs of the insights report
// @Tags Insights
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /insights/summary [get]
func (h *InsightsHandler) Summary(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	summary, cacheHit := h.service.Summary(c.Request.Context())
	middleware.SetCacheHit(c, cacheHit)
	h.respond(c, start, summary)
}

// RevenueOpportunities godoc
// @Summary Members eligible for a plan upgrade
// @Tags Insights
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /insights/revenue-opportunities [get]
func (h *InsightsHandler) RevenueOpportunities(c *gin.Context) {
	h.section(c, func(ctx context.Context) interface{} { return h.service.RevenueOpportunities(ctx) })
}

// RetentionRisks godoc
// @Summary Members most likely to churn
// @Tags Insights
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /insights/retention-risks [get]
func (h *InsightsHandler) RetentionRisks(c *gin.Context) {
	h.section(c, func(ctx context.Context) interface{} { return h.service.RetentionRisks(ctx) })
}

// ChurnForecast godoc
// @Summary Projected monthly churn
// @Tags Insights
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /insights/churn-forecast [get]
func (h *InsightsHandler) ChurnForecast(c *gin.Context) {
	h.section(c, func(ctx context.Context) interface{} { return h.service.ChurnForecast(ctx) })
}

// RevenueForecast godoc
// @Summary Projected monthly revenue per plan
// @Tags Insights
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /insights/revenue-forecast [get]
func (h *InsightsHandler) RevenueForecast(c *gin.Context) {
	h.section(c, func(ctx context.Context) interface{} { return h.service.RevenueForecast(ctx) })
}

// PeakHours godoc
// @Summary Modeled hourly occupancy per weekday
// @Tags Insights
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /insights/peak-hours [get]
func (h *InsightsHandler) PeakHours(c *gin.Context) {
	h.section(c, func(ctx context.Context) interface{} { return h.service.PeakHourForecast(ctx) })
}

// RenewalOffers godoc
// @Summary Offers for memberships expiring within the renewal window
// @Tags Insights
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /insights/renewal-offers [get]
func (h *InsightsHandler) RenewalOffers(c *gin.Context) {
	h.section(c, func(ctx context.Context) interface{} { return h.service.RenewalOffers(ctx) })
}

// Export godoc
// @Summary Download one report section as CSV or PDF
// @Tags Insights
// @Produce text/csv
// @Produce application/pdf
// @Param section query string true "Section" Enums(revenue-opportunities, retention-risks, churn-forecast, revenue-forecast, peak-hours, renewal-offers)
// @Param format query string false "Format" Enums(csv, pdf)
// @Success 200 {file} file
// @Router /insights/export [get]
func (h *InsightsHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnavailable, "insights export is disabled"))
		return
	}
	var query dto.InsightsExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	file, err := h.exporter.Export(c.Request.Context(), query.Section, query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}

// Refresh godoc
// @Summary Rebuild the cached report in the background
// @Tags Insights
// @Produce json
// @Success 202 {object} response.Envelope
// @Router /insights/refresh [post]
func (h *InsightsHandler) Refresh(c *gin.Context) {
	if h.refresher == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnavailable, "insights refresh is disabled"))
		return
	}
	resp, err := h.refresher.Refresh(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, resp)
}

func (h *InsightsHandler) section(c *gin.Context, load func(ctx context.Context) interface{}) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	items := load(c.Request.Context())
	middleware.SetCacheHit(c, false)
	h.respond(c, start, items)
}

func (h *InsightsHandler) respond(c *gin.Context, start time.Time, data interface{}) {
	middleware.StampProcessingTime(c, start)
	response.JSON(c, http.StatusOK, data, middleware.ExtractMeta(c))
}
