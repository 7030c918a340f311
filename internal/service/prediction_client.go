package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/fitgroup-api/internal/models"
	appErrors "github.com/noah-isme/fitgroup-api/pkg/errors"
)

// PredictionInput is the feature vector sent for one metric.
type PredictionInput struct {
	Metric       string  `json:"metric"`
	MemberCount  int     `json:"member_count"`
	AvgAge       float64 `json:"avg_age"`
	AvgBMI       float64 `json:"avg_bmi"`
	Mean         float64 `json:"mean"`
	Std          float64 `json:"std"`
	DurationMean float64 `json:"duration_mean"`
	StepVariance float64 `json:"step_variance"`
}

type predictionResponse struct {
	GrowthRate *float64 `json:"growth_rate"`
}

// PredictionClientConfig bounds the external call.
type PredictionClientConfig struct {
	BaseURL         string
	ConnectTimeout  time.Duration
	ResponseTimeout time.Duration
}

// PredictionClient calls the growth-rate prediction service over HTTP.
type PredictionClient struct {
	cfg     PredictionClientConfig
	client  *http.Client
	metrics *MetricsService
	logger  *zap.Logger
}

// NewPredictionClient constructs a client with separate connect and response timeouts.
func NewPredictionClient(cfg PredictionClientConfig, metrics *MetricsService, logger *zap.Logger) *PredictionClient {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.ResponseTimeout <= 0 {
		cfg.ResponseTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: cfg.ConnectTimeout, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ResponseHeaderTimeout: cfg.ResponseTimeout,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
	}
	return &PredictionClient{
		cfg: cfg,
		client: &http.Client{
			Transport: transport,
			// headers and body together must arrive within both budgets
			Timeout: cfg.ConnectTimeout + cfg.ResponseTimeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// PredictGrowthRate returns the multiplicative growth factor for one metric.
// Any transport failure, non-2xx status or unusable rate is ErrPredictionUnavailable.
func (c *PredictionClient) PredictGrowthRate(ctx context.Context, metric models.Metric, input PredictionInput) (float64, error) {
	start := time.Now()
	rate, err := c.predict(ctx, input)
	c.metrics.ObservePrediction(metric, err == nil, time.Since(start))
	if err != nil {
		c.logger.Sugar().Warnw("prediction call failed", "metric", metric, "error", err)
		return 0, appErrors.Wrap(err, appErrors.ErrPredictionUnavailable.Code, appErrors.ErrPredictionUnavailable.Status, appErrors.ErrPredictionUnavailable.Message)
	}
	return rate, nil
}

func (c *PredictionClient) predict(ctx context.Context, input PredictionInput) (float64, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return 0, fmt.Errorf("encode prediction input: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build prediction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("call prediction service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return 0, fmt.Errorf("prediction service returned status %d", resp.StatusCode)
	}

	var payload predictionResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode prediction response: %w", err)
	}
	if payload.GrowthRate == nil {
		return 0, fmt.Errorf("prediction response missing growth_rate")
	}
	rate := *payload.GrowthRate
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
		return 0, fmt.Errorf("prediction service returned unusable growth rate %v", rate)
	}
	return rate, nil
}
