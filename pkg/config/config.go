package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	Prediction  PredictionConfig
	Rewards     RewardsConfig
	Pipeline    PipelineConfig
	GoalRecords GoalRecordsConfig
	Goals       GoalsConfig
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
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// PredictionConfig points at the external growth-rate prediction service.
type PredictionConfig struct {
	BaseURL         string
	ConnectTimeout  time.Duration
	ResponseTimeout time.Duration
}

// RewardsConfig sets the points credited to each member of an achieving group.
type RewardsConfig struct {
	Points int
}

// PipelineConfig controls the weekly triggers.
type PipelineConfig struct {
	Enabled           bool
	Timezone          string
	StatsCron         string
	AchievementCron   string
	RecordsCron       string
	AutoGenerateGoals bool
}

// GoalRecordsConfig sizes the audit record worker pool.
type GoalRecordsConfig struct {
	CoreWorkers  int
	MaxWorkers   int
	QueueSize    int
	MaxRetries   int
	DrainTimeout time.Duration
}

// GoalsConfig governs goal caching and user-triggered regeneration.
type GoalsConfig struct {
	CacheTTL             time.Duration
	RegenerationCooldown time.Duration
	GenerationTimeout    time.Duration
}

// Location resolves the pipeline time zone, falling back to UTC.
func (c PipelineConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
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

	return fromViper(v), nil
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
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Prediction = PredictionConfig{
		BaseURL:         strings.TrimRight(v.GetString("PREDICTION_BASE_URL"), "/"),
		ConnectTimeout:  parseDuration(v.GetString("PREDICTION_CONNECT_TIMEOUT"), 10*time.Second),
		ResponseTimeout: parseDuration(v.GetString("PREDICTION_RESPONSE_TIMEOUT"), 10*time.Second),
	}

	points := v.GetInt("REWARD_POINTS")
	if points <= 0 {
		points = 10
	}
	cfg.Rewards = RewardsConfig{Points: points}

	cfg.Pipeline = PipelineConfig{
		Enabled:           v.GetBool("PIPELINE_ENABLED"),
		Timezone:          v.GetString("PIPELINE_TIMEZONE"),
		StatsCron:         v.GetString("STATS_CRON"),
		AchievementCron:   v.GetString("ACHIEVEMENT_CRON"),
		RecordsCron:       v.GetString("RECORDS_CRON"),
		AutoGenerateGoals: v.GetBool("PIPELINE_AUTOGENERATE_GOALS"),
	}

	cfg.GoalRecords = GoalRecordsConfig{
		CoreWorkers:  v.GetInt("GOAL_RECORD_CORE_WORKERS"),
		MaxWorkers:   v.GetInt("GOAL_RECORD_MAX_WORKERS"),
		QueueSize:    v.GetInt("GOAL_RECORD_QUEUE_SIZE"),
		MaxRetries:   v.GetInt("GOAL_RECORD_MAX_RETRIES"),
		DrainTimeout: parseDuration(v.GetString("GOAL_RECORD_DRAIN_TIMEOUT"), 30*time.Second),
	}

	cfg.Goals = GoalsConfig{
		CacheTTL:             parseDuration(v.GetString("GOAL_CACHE_TTL"), 10*time.Minute),
		RegenerationCooldown: parseDuration(v.GetString("GOAL_REGENERATION_COOLDOWN"), time.Hour),
		GenerationTimeout:    parseDuration(v.GetString("GOAL_GENERATION_TIMEOUT"), 30*time.Second),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "fitgroup")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "fitgroup")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("PREDICTION_BASE_URL", "http://localhost:8000")
	v.SetDefault("PREDICTION_CONNECT_TIMEOUT", "10s")
	v.SetDefault("PREDICTION_RESPONSE_TIMEOUT", "10s")

	v.SetDefault("REWARD_POINTS", 10)

	v.SetDefault("PIPELINE_ENABLED", true)
	v.SetDefault("PIPELINE_TIMEZONE", "Asia/Seoul")
	v.SetDefault("STATS_CRON", "5 0 * * 1")
	v.SetDefault("ACHIEVEMENT_CRON", "30 0 * * 1")
	v.SetDefault("RECORDS_CRON", "0 1 * * 1")
	v.SetDefault("PIPELINE_AUTOGENERATE_GOALS", false)

	v.SetDefault("GOAL_RECORD_CORE_WORKERS", 3)
	v.SetDefault("GOAL_RECORD_MAX_WORKERS", 5)
	v.SetDefault("GOAL_RECORD_QUEUE_SIZE", 5000)
	v.SetDefault("GOAL_RECORD_MAX_RETRIES", 1)
	v.SetDefault("GOAL_RECORD_DRAIN_TIMEOUT", "30s")

	v.SetDefault("GOAL_CACHE_TTL", "10m")
	v.SetDefault("GOAL_REGENERATION_COOLDOWN", "1h")
	v.SetDefault("GOAL_GENERATION_TIMEOUT", "30s")
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
