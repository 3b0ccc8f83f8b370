package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder handles metrics recording and exposure
type Recorder struct {
	// API metrics
	apiRequestCounter   *prometheus.CounterVec
	apiLatencyHistogram *prometheus.HistogramVec

	// Valuation metrics
	valuationCounter *prometheus.CounterVec
	valuationLatency *prometheus.HistogramVec
	simulatedPaths   *prometheus.CounterVec

	// Cache metrics
	cacheHitCounter  *prometheus.CounterVec
	cacheMissCounter *prometheus.CounterVec

	// Task metrics
	tasksSubmitted  *prometheus.CounterVec
	tasksCompleted  *prometheus.CounterVec
	tasksInFlight   prometheus.Gauge
	taskLatency     *prometheus.HistogramVec
	streamClients   prometheus.Gauge
	kafkaErrCounter *prometheus.CounterVec
}

// NewRecorder creates a new metrics recorder
func NewRecorder() *Recorder {
	return &Recorder{
		// API metrics
		apiRequestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ve_api_requests_total",
				Help: "The total number of API requests",
			},
			[]string{"method", "path", "status"},
		),
		apiLatencyHistogram: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ve_api_latency_seconds",
				Help:    "API request latency distribution",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // From 1ms to ~16s
			},
			[]string{"method", "path"},
		),

		// Valuation metrics
		valuationCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ve_valuations_total",
				Help: "The total number of valuations by model and outcome",
			},
			[]string{"model", "outcome"},
		),
		valuationLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ve_valuation_latency_seconds",
				Help:    "Valuation latency in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16), // From 0.1ms to ~6.5s
			},
			[]string{"model"},
		),
		simulatedPaths: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ve_simulated_paths_total",
				Help: "The total number of Monte Carlo paths generated",
			},
			[]string{"model"},
		),

		// Cache metrics
		cacheHitCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ve_cache_hits_total",
				Help: "The total number of result cache hits",
			},
			[]string{"operation"},
		),
		cacheMissCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ve_cache_misses_total",
				Help: "The total number of result cache misses",
			},
			[]string{"operation"},
		),

		// Task metrics
		tasksSubmitted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ve_tasks_submitted_total",
				Help: "The total number of valuation tasks submitted",
			},
			[]string{"type"},
		),
		tasksCompleted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ve_tasks_completed_total",
				Help: "The total number of valuation tasks completed by status",
			},
			[]string{"type", "status"},
		),
		tasksInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "ve_tasks_in_flight",
				Help: "Number of valuation tasks currently being processed",
			},
		),
		taskLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ve_task_latency_seconds",
				Help:    "End-to-end task latency from submission to result",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
			},
			[]string{"type"},
		),
		streamClients: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "ve_stream_clients",
				Help: "Number of connected result stream clients",
			},
		),
		kafkaErrCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ve_kafka_errors_total",
				Help: "The total number of Kafka produce/consume errors",
			},
			[]string{"topic", "op"},
		),
	}
}

// RecordAPIRequest records metrics for an API request
func (r *Recorder) RecordAPIRequest(method, path string, status int, latency time.Duration) {
	statusStr := strconv.Itoa(status)
	r.apiRequestCounter.WithLabelValues(method, path, statusStr).Inc()
	r.apiLatencyHistogram.WithLabelValues(method, path).Observe(latency.Seconds())
}

// RecordValuation records metrics for a valuation call
func (r *Recorder) RecordValuation(model, outcome string, latency time.Duration) {
	r.valuationCounter.WithLabelValues(model, outcome).Inc()
	r.valuationLatency.WithLabelValues(model).Observe(latency.Seconds())
}

// RecordSimulatedPaths records the number of Monte Carlo paths generated
func (r *Recorder) RecordSimulatedPaths(model string, paths int) {
	r.simulatedPaths.WithLabelValues(model).Add(float64(paths))
}

// RecordCacheHit records a result cache hit
func (r *Recorder) RecordCacheHit(operation string) {
	r.cacheHitCounter.WithLabelValues(operation).Inc()
}

// RecordCacheMiss records a result cache miss
func (r *Recorder) RecordCacheMiss(operation string) {
	r.cacheMissCounter.WithLabelValues(operation).Inc()
}

// RecordTaskSubmitted records a submitted valuation task
func (r *Recorder) RecordTaskSubmitted(taskType string) {
	r.tasksSubmitted.WithLabelValues(taskType).Inc()
	r.tasksInFlight.Inc()
}

// RecordTaskCompleted records a completed valuation task
func (r *Recorder) RecordTaskCompleted(taskType, status string, latency time.Duration) {
	r.tasksCompleted.WithLabelValues(taskType, status).Inc()
	r.tasksInFlight.Dec()
	r.taskLatency.WithLabelValues(taskType).Observe(latency.Seconds())
}

// RecordStreamClients records the current number of stream clients
func (r *Recorder) RecordStreamClients(count int) {
	r.streamClients.Set(float64(count))
}

// RecordKafkaError records a Kafka produce or consume error
func (r *Recorder) RecordKafkaError(topic, op string) {
	r.kafkaErrCounter.WithLabelValues(topic, op).Inc()
}
