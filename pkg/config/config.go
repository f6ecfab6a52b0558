package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string `validate:"oneof=development production test"`
	Port      int    `validate:"gt=0,lte=65535"`
	APIPrefix string `validate:"required,startswith=/"`

	Database DatabaseConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	Insights InsightsConfig
	Engine   EngineConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
}

type CORSConfig struct {
	AllowedOrigins []string
	MaxAge         time.Duration `validate:"gte=0"`
}

type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json console"`
}

// InsightsConfig governs exposure, caching and resilience of the insights endpoints.
type InsightsConfig struct {
	Enabled         bool
	CacheEnabled    bool
	CacheTTL        time.Duration `validate:"gt=0"`
	FunctionTimeout time.Duration `validate:"gt=0"`
	RefreshWorkers  int           `validate:"gte=0,lte=16"`
	RefreshRetries  int           `validate:"gte=0,lte=10"`
	RateLimitRPS    float64       `validate:"gte=0"`
	RateLimitBurst  int           `validate:"gte=0"`
	BreakerFailures uint32        `validate:"gt=0"`
	BreakerOpenFor  time.Duration `validate:"gt=0"`
	BreakerHalfOpen uint32
	OccupancyJitter bool
}

// EngineConfig carries the tunable thresholds of the scorers and forecasters.
type EngineConfig struct {
	ActivityWindowDays      int `validate:"gt=0,lte=365"`
	InactivityDays          int `validate:"gt=0"`
	InactivityCap           int `validate:"gt=0,lte=100"`
	ExpiringSoonDays        int `validate:"gt=0"`
	ExpiringSoonWeight      int `validate:"gt=0"`
	NewMemberDays           int `validate:"gt=0"`
	NewMemberInactivityDays int `validate:"gt=0"`
	NewMemberPenalty        int `validate:"gt=0,lte=100"`
	RetentionThreshold      int `validate:"gte=0,lt=100"`
	RetentionLimit          int `validate:"gt=0"`
	HighRiskScore           int `validate:"gt=0,lte=100"`
	MediumRiskScore         int `validate:"gt=0,ltefield=HighRiskScore"`

	ForecastHorizonMonths int     `validate:"gt=0,lte=12"`
	ChurnDefaultRate      float64 `validate:"gt=0,lte=100"`
	ChurnMinHistoryMonths int     `validate:"gt=0"`
	ChurnAlertRate        float64 `validate:"gt=0,lte=100"`

	RenewalRate    float64 `validate:"gt=0,lte=1"`
	NewMemberBase  int     `validate:"gte=0"`
	RevenueHistory int     `validate:"gt=0,lte=24"`

	PeakThreshold         float64 `validate:"gt=0,lte=100"`
	CrowdedThreshold      float64 `validate:"gt=0,lte=100,gtefield=PeakThreshold"`
	OccupancyJitter       float64 `validate:"gte=0,lte=50"`
	GymCapacity           int     `validate:"gt=0"`
	OccupancyLookbackDays int     `validate:"gt=0"`

	RenewalWindowDays int `validate:"gt=0,lte=90"`
	LoyalTenureDays   int `validate:"gt=0"`

	PlanPrices PlanPrices
}

// PlanPrices is the price table for each membership tier.
type PlanPrices struct {
	Basic      float64 `validate:"gt=0"`
	Pro        float64 `validate:"gt=0,gtfield=Basic"`
	Premium    float64 `validate:"gt=0,gtfield=Pro"`
	OneDayPass float64 `validate:"gt=0"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := fromViper(v)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:      v.GetString("REDIS_HOST"),
		Port:      v.GetInt("REDIS_PORT"),
		Password:  v.GetString("REDIS_PASSWORD"),
		DB:        v.GetInt("REDIS_DB"),
		KeyPrefix: v.GetString("REDIS_KEY_PREFIX"),
	}

	cfg.CORS = CORSConfig{
		AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS")),
		MaxAge:         parseDuration(v.GetString("CORS_MAX_AGE"), 10*time.Minute),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Insights = InsightsConfig{
		Enabled:         v.GetBool("ENABLE_INSIGHTS"),
		CacheEnabled:    v.GetBool("INSIGHTS_CACHE_ENABLED"),
		CacheTTL:        parseDuration(v.GetString("INSIGHTS_CACHE_TTL"), 10*time.Minute),
		FunctionTimeout: parseDuration(v.GetString("INSIGHTS_FUNCTION_TIMEOUT"), 5*time.Second),
		RefreshWorkers:  v.GetInt("INSIGHTS_REFRESH_WORKERS"),
		RefreshRetries:  v.GetInt("INSIGHTS_REFRESH_RETRIES"),
		RateLimitRPS:    v.GetFloat64("INSIGHTS_RATE_LIMIT_RPS"),
		RateLimitBurst:  v.GetInt("INSIGHTS_RATE_LIMIT_BURST"),
		BreakerFailures: v.GetUint32("INSIGHTS_BREAKER_FAILURES"),
		BreakerOpenFor:  parseDuration(v.GetString("INSIGHTS_BREAKER_OPEN_FOR"), 30*time.Second),
		BreakerHalfOpen: v.GetUint32("INSIGHTS_BREAKER_HALF_OPEN_REQUESTS"),
		OccupancyJitter: v.GetBool("INSIGHTS_OCCUPANCY_JITTER"),
	}

	cfg.Engine = EngineConfig{
		ActivityWindowDays:      v.GetInt("ENGINE_ACTIVITY_WINDOW_DAYS"),
		InactivityDays:          v.GetInt("ENGINE_INACTIVITY_DAYS"),
		InactivityCap:           v.GetInt("ENGINE_INACTIVITY_CAP"),
		ExpiringSoonDays:        v.GetInt("ENGINE_EXPIRING_SOON_DAYS"),
		ExpiringSoonWeight:      v.GetInt("ENGINE_EXPIRING_SOON_WEIGHT"),
		NewMemberDays:           v.GetInt("ENGINE_NEW_MEMBER_DAYS"),
		NewMemberInactivityDays: v.GetInt("ENGINE_NEW_MEMBER_INACTIVITY_DAYS"),
		NewMemberPenalty:        v.GetInt("ENGINE_NEW_MEMBER_PENALTY"),
		RetentionThreshold:      v.GetInt("ENGINE_RETENTION_THRESHOLD"),
		RetentionLimit:          v.GetInt("ENGINE_RETENTION_LIMIT"),
		HighRiskScore:           v.GetInt("ENGINE_HIGH_RISK_SCORE"),
		MediumRiskScore:         v.GetInt("ENGINE_MEDIUM_RISK_SCORE"),
		ForecastHorizonMonths:   v.GetInt("ENGINE_FORECAST_HORIZON_MONTHS"),
		ChurnDefaultRate:        v.GetFloat64("ENGINE_CHURN_DEFAULT_RATE"),
		ChurnMinHistoryMonths:   v.GetInt("ENGINE_CHURN_MIN_HISTORY_MONTHS"),
		ChurnAlertRate:          v.GetFloat64("ENGINE_CHURN_ALERT_RATE"),
		RenewalRate:             v.GetFloat64("ENGINE_RENEWAL_RATE"),
		NewMemberBase:           v.GetInt("ENGINE_NEW_MEMBER_BASE"),
		RevenueHistory:          v.GetInt("ENGINE_REVENUE_HISTORY_MONTHS"),
		PeakThreshold:           v.GetFloat64("ENGINE_PEAK_THRESHOLD"),
		CrowdedThreshold:        v.GetFloat64("ENGINE_CROWDED_THRESHOLD"),
		OccupancyJitter:         v.GetFloat64("ENGINE_OCCUPANCY_JITTER"),
		GymCapacity:             v.GetInt("ENGINE_GYM_CAPACITY"),
		OccupancyLookbackDays:   v.GetInt("ENGINE_OCCUPANCY_LOOKBACK_DAYS"),
		RenewalWindowDays:       v.GetInt("ENGINE_RENEWAL_WINDOW_DAYS"),
		LoyalTenureDays:         v.GetInt("ENGINE_LOYAL_TENURE_DAYS"),
		PlanPrices: PlanPrices{
			Basic:      v.GetFloat64("PLAN_PRICE_BASIC"),
			Pro:        v.GetFloat64("PLAN_PRICE_PRO"),
			Premium:    v.GetFloat64("PLAN_PRICE_PREMIUM"),
			OneDayPass: v.GetFloat64("PLAN_PRICE_ONE_DAY_PASS"),
		},
	}

	return cfg
}

// Validate checks field constraints and reports every violation at once.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(messages, "; "))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "gym_ops")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_KEY_PREFIX", "gym-ops")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("CORS_MAX_AGE", "10m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_INSIGHTS", true)
	v.SetDefault("INSIGHTS_CACHE_ENABLED", true)
	v.SetDefault("INSIGHTS_CACHE_TTL", "10m")
	v.SetDefault("INSIGHTS_FUNCTION_TIMEOUT", "5s")
	v.SetDefault("INSIGHTS_REFRESH_WORKERS", 1)
	v.SetDefault("INSIGHTS_REFRESH_RETRIES", 2)
	v.SetDefault("INSIGHTS_RATE_LIMIT_RPS", 5)
	v.SetDefault("INSIGHTS_RATE_LIMIT_BURST", 10)
	v.SetDefault("INSIGHTS_BREAKER_FAILURES", 5)
	v.SetDefault("INSIGHTS_BREAKER_OPEN_FOR", "30s")
	v.SetDefault("INSIGHTS_BREAKER_HALF_OPEN_REQUESTS", 1)
	v.SetDefault("INSIGHTS_OCCUPANCY_JITTER", true)

	v.SetDefault("ENGINE_ACTIVITY_WINDOW_DAYS", 30)
	v.SetDefault("ENGINE_INACTIVITY_DAYS", 14)
	v.SetDefault("ENGINE_INACTIVITY_CAP", 60)
	v.SetDefault("ENGINE_EXPIRING_SOON_DAYS", 14)
	v.SetDefault("ENGINE_EXPIRING_SOON_WEIGHT", 3)
	v.SetDefault("ENGINE_NEW_MEMBER_DAYS", 30)
	v.SetDefault("ENGINE_NEW_MEMBER_INACTIVITY_DAYS", 7)
	v.SetDefault("ENGINE_NEW_MEMBER_PENALTY", 20)
	v.SetDefault("ENGINE_RETENTION_THRESHOLD", 30)
	v.SetDefault("ENGINE_RETENTION_LIMIT", 10)
	v.SetDefault("ENGINE_HIGH_RISK_SCORE", 70)
	v.SetDefault("ENGINE_MEDIUM_RISK_SCORE", 50)
	v.SetDefault("ENGINE_FORECAST_HORIZON_MONTHS", 3)
	v.SetDefault("ENGINE_CHURN_DEFAULT_RATE", 5)
	v.SetDefault("ENGINE_CHURN_MIN_HISTORY_MONTHS", 3)
	v.SetDefault("ENGINE_CHURN_ALERT_RATE", 7)
	v.SetDefault("ENGINE_RENEWAL_RATE", 0.9)
	v.SetDefault("ENGINE_NEW_MEMBER_BASE", 5)
	v.SetDefault("ENGINE_REVENUE_HISTORY_MONTHS", 3)
	v.SetDefault("ENGINE_PEAK_THRESHOLD", 70)
	v.SetDefault("ENGINE_CROWDED_THRESHOLD", 85)
	v.SetDefault("ENGINE_OCCUPANCY_JITTER", 10)
	v.SetDefault("ENGINE_GYM_CAPACITY", 60)
	v.SetDefault("ENGINE_OCCUPANCY_LOOKBACK_DAYS", 28)
	v.SetDefault("ENGINE_RENEWAL_WINDOW_DAYS", 30)
	v.SetDefault("ENGINE_LOYAL_TENURE_DAYS", 180)

	v.SetDefault("PLAN_PRICE_BASIC", 30)
	v.SetDefault("PLAN_PRICE_PRO", 50)
	v.SetDefault("PLAN_PRICE_PREMIUM", 80)
	v.SetDefault("PLAN_PRICE_ONE_DAY_PASS", 10)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
