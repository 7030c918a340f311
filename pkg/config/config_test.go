package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 10*time.Second, cfg.Prediction.ConnectTimeout)
	assert.Equal(t, 10*time.Second, cfg.Prediction.ResponseTimeout)
	assert.Equal(t, 10, cfg.Rewards.Points)
	assert.Equal(t, 3, cfg.GoalRecords.CoreWorkers)
	assert.Equal(t, 5, cfg.GoalRecords.MaxWorkers)
	assert.Equal(t, 5000, cfg.GoalRecords.QueueSize)
	assert.Equal(t, "5 0 * * 1", cfg.Pipeline.StatsCron)
	assert.Equal(t, time.Hour, cfg.Goals.RegenerationCooldown)
	assert.Equal(t, 30*time.Second, cfg.Goals.GenerationTimeout)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("PREDICTION_BASE_URL", "http://predictor:9000/")
	v.Set("PREDICTION_RESPONSE_TIMEOUT", "not-a-duration")
	v.Set("REWARD_POINTS", 0)
	v.Set("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg := fromViper(v)
	assert.Equal(t, "http://predictor:9000", cfg.Prediction.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Prediction.ResponseTimeout)
	assert.Equal(t, 10, cfg.Rewards.Points)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestPipelineLocation(t *testing.T) {
	loc := PipelineConfig{Timezone: "Asia/Seoul"}.Location()
	require.NotNil(t, loc)
	assert.Equal(t, "Asia/Seoul", loc.String())

	assert.Equal(t, time.UTC, PipelineConfig{Timezone: "Mars/Olympus"}.Location())
	assert.Equal(t, time.UTC, PipelineConfig{}.Location())
}
