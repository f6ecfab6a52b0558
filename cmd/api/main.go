package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/gym-ops-api/api/swagger"
	"github.com/noah-isme/gym-ops-api/internal/handler"
	"github.com/noah-isme/gym-ops-api/internal/middleware"
	"github.com/noah-isme/gym-ops-api/internal/repository"
	"github.com/noah-isme/gym-ops-api/internal/service"
	"github.com/noah-isme/gym-ops-api/pkg/cache"
	"github.com/noah-isme/gym-ops-api/pkg/config"
	"github.com/noah-isme/gym-ops-api/pkg/database"
	"github.com/noah-isme/gym-ops-api/pkg/jobs"
	"github.com/noah-isme/gym-ops-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/gym-ops-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/gym-ops-api/pkg/middleware/requestid"
)

// @title Gym Ops API
// @version 1.0.0
// @description Operations intelligence for gym management: revenue, retention, occupancy and renewal insights.
// @BasePath /api/v1
// @schemes http

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Insights.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			// The report is still computed per request without Redis.
			logr.Warn("redis unavailable, insights cache disabled", zap.Error(err))
			redisClient = nil
		}
	}

	metricsSvc := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, cfg.Redis.KeyPrefix)
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Insights.CacheTTL, logr, cfg.Insights.CacheEnabled && redisClient != nil)

	store := newGuardedStore(db, cfg.Insights, logr)

	var random service.RandomSource
	if cfg.Insights.OccupancyJitter {
		random = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec
	}

	insightsSvc := service.NewInsightsService(service.InsightsServiceParams{
		Members:    store,
		Attendance: store,
		Payments:   store,
		Cache:      cacheSvc,
		Metrics:    metricsSvc,
		Logger:     logr,
		Random:     random,
		Config: service.InsightsServiceConfig{
			CacheTTL:        cfg.Insights.CacheTTL,
			FunctionTimeout: cfg.Insights.FunctionTimeout,
			Engine:          engineConfig(cfg.Engine),
		},
	})

	var refresher *service.InsightsRefresher
	var queue *jobs.Queue
	if cfg.Insights.RefreshWorkers > 0 {
		queue = jobs.NewQueue("insights", jobs.QueueConfig{
			Workers:    cfg.Insights.RefreshWorkers,
			BufferSize: 8,
			MaxRetries: cfg.Insights.RefreshRetries,
			RetryDelay: time.Second,
			JobTimeout: 6 * cfg.Insights.FunctionTimeout,
			Logger:     logr,
		})
		refresher = service.NewInsightsRefresher(insightsSvc, queue, logr)
		queue.Handle(service.InsightsRefreshJobType, refresher.Process)
		queue.Start(ctx)
		defer queue.Stop()
	}

	exportSvc := service.NewInsightsExportService(insightsSvc, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(corsmiddleware.Options{AllowedOrigins: cfg.CORS.AllowedOrigins, MaxAge: cfg.CORS.MaxAge}))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	api.GET("/system/metrics", metricsHandler.System)

	if cfg.Insights.Enabled {
		insights := api.Group("/insights")
		if cfg.Insights.RateLimitRPS > 0 {
			limiter := middleware.NewRateLimiter(cfg.Insights.RateLimitRPS, cfg.Insights.RateLimitBurst, logr)
			insights.Use(limiter.Middleware())
		}
		insightsHandler := handler.NewInsightsHandler(insightsSvc, exportSvc, nil)
		if refresher != nil {
			insightsHandler = handler.NewInsightsHandler(insightsSvc, exportSvc, refresher)
		}
		insightsHandler.Register(insights)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "insights", cfg.Insights.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	if queue != nil {
		stats := queue.Stats()
		logr.Info("insights queue drained", zap.Int64("processed", stats.Processed), zap.Int64("failed", stats.Failed), zap.Int64("dropped", stats.Dropped))
	}
}

func newGuardedStore(db *sqlx.DB, cfg config.InsightsConfig, logr *zap.Logger) *repository.GuardedStore {
	return repository.NewGuardedStore(
		repository.NewMemberRepository(db),
		repository.NewAttendanceRepository(db),
		repository.NewPaymentRepository(db),
		repository.BreakerConfig{
			MaxRequests:      cfg.BreakerHalfOpen,
			Timeout:          cfg.BreakerOpenFor,
			FailureThreshold: cfg.BreakerFailures,
		},
		logr,
	)
}
