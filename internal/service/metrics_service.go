package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/fitgroup-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	pipelineEntities   *prometheus.CounterVec
	pipelineDuration   *prometheus.HistogramVec
	predictionDuration *prometheus.HistogramVec
	pointsCredited     prometheus.Counter
	goalRecords        *prometheus.CounterVec
	queueDepth         *prometheus.GaugeVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	predictionCount      uint64
	predictionFailures   uint64
	pointsCreditedTotal  uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	pipelineEntities := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_entities_total",
		Help: "Groups processed by weekly pipeline stages",
	}, []string{"stage", "outcome"})

	pipelineDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pipeline_run_duration_seconds",
		Help:    "Wall time of weekly pipeline runs",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
	}, []string{"stage"})

	predictionDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "prediction_request_duration_seconds",
		Help:    "Latency of growth-rate prediction calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"metric", "status"})

	pointsCredited := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reward_points_credited_total",
		Help: "Reward points credited to members",
	})

	goalRecords := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "goal_records_total",
		Help: "Goal record writer outcomes",
	}, []string{"result"})

	queueDepth := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "job_queue_pending",
		Help: "Units waiting in background queues",
	}, []string{"queue"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		pipelineEntities, pipelineDuration, predictionDuration, pointsCredited, goalRecords, queueDepth, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:           registry,
		handler:            handler,
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		cacheLatency:       cacheLatency,
		cacheWrite:         cacheWrite,
		cacheHitRatio:      cacheHitRatio,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
		pipelineEntities:   pipelineEntities,
		pipelineDuration:   pipelineDuration,
		predictionDuration: predictionDuration,
		pointsCredited:     pointsCredited,
		goalRecords:        goalRecords,
		queueDepth:         queueDepth,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveBatch records the per-group outcomes and wall time of a pipeline run.
func (m *MetricsService) ObserveBatch(report *models.BatchReport) {
	if m == nil || report == nil {
		return
	}
	stage := string(report.Stage)
	m.pipelineEntities.WithLabelValues(stage, "succeeded").Add(float64(report.Succeeded))
	m.pipelineEntities.WithLabelValues(stage, "skipped").Add(float64(report.Skipped))
	m.pipelineEntities.WithLabelValues(stage, "failed").Add(float64(report.Failed))
	m.pipelineDuration.WithLabelValues(stage).Observe(report.Duration().Seconds())
}

// ObservePrediction records one growth-rate call.
func (m *MetricsService) ObservePrediction(metric models.Metric, ok bool, duration time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
		atomic.AddUint64(&m.predictionFailures, 1)
	}
	atomic.AddUint64(&m.predictionCount, 1)
	m.predictionDuration.WithLabelValues(string(metric), status).Observe(duration.Seconds())
}

// AddPointsCredited counts reward points paid out.
func (m *MetricsService) AddPointsCredited(points int) {
	if m == nil || points <= 0 {
		return
	}
	m.pointsCredited.Add(float64(points))
	atomic.AddUint64(&m.pointsCreditedTotal, uint64(points))
}

// RecordGoalRecord counts a goal record writer outcome.
func (m *MetricsService) RecordGoalRecord(result string) {
	if m == nil {
		return
	}
	m.goalRecords.WithLabelValues(result).Inc()
}

// SetQueueDepth publishes the pending count of a background queue.
func (m *MetricsService) SetQueueDepth(queue string, pending int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(queue).Set(float64(pending))
}

// Snapshot returns aggregated metrics suitable for admin endpoints.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	if totalLookups := hits + misses; totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		PredictionCalls:          atomic.LoadUint64(&m.predictionCount),
		PredictionFailures:       atomic.LoadUint64(&m.predictionFailures),
		PointsCredited:           atomic.LoadUint64(&m.pointsCreditedTotal),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
