package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/gym-ops-api/internal/dto"
	appErrors "github.com/noah-isme/gym-ops-api/pkg/errors"
	"github.com/noah-isme/gym-ops-api/pkg/jobs"
)

// InsightsRefreshJobType is the queue job type that rebuilds the cached report.
const InsightsRefreshJobType = "insights.refresh"

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type insightsBuilder interface {
	InvalidateCache(ctx context.Context) error
	GetAllInsights(ctx context.Context) (*dto.InsightsReport, bool)
}

// InsightsRefresher drops the cached report and rebuilds it in the background.
type InsightsRefresher struct {
	insights insightsBuilder
	queue    jobDispatcher
	logger   *zap.Logger
}

// NewInsightsRefresher constructs the refresher. A nil queue disables Refresh.
func NewInsightsRefresher(insights insightsBuilder, queue jobDispatcher, logger *zap.Logger) *InsightsRefresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InsightsRefresher{insights: insights, queue: queue, logger: logger}
}

// Refresh enqueues a rebuild and returns the job identifier.
func (r *InsightsRefresher) Refresh(ctx context.Context) (*dto.InsightsRefreshResponse, error) {
	if r.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "insights refresh queue is disabled")
	}
	job := jobs.Job{ID: uuid.NewString(), Type: InsightsRefreshJobType}
	if err := r.queue.Enqueue(job); err != nil {
		r.logger.Warn("insights refresh enqueue failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to enqueue insights refresh")
	}
	return &dto.InsightsRefreshResponse{JobID: job.ID, Status: "queued"}, nil
}

// Process is the queue handler for InsightsRefreshJobType.
func (r *InsightsRefresher) Process(ctx context.Context, job jobs.Job) error {
	if err := r.insights.InvalidateCache(ctx); err != nil {
		return err
	}
	report, _ := r.insights.GetAllInsights(ctx)
	r.logger.Info("insights report refreshed",
		zap.String("job_id", job.ID),
		zap.String("report_id", report.ReportID),
		zap.Int("retention_risks", len(report.RetentionRisks)),
		zap.Int("renewal_offers", len(report.RenewalOffers)),
	)
	return nil
}
