package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// Config carries the static labels applied to every metric.
type Config struct {
	ServiceName string
	Environment string
}

const (
	BatchErrorTypeDeadlineExceeded = "deadline_exceeded"
	BatchErrorTypeNotFound         = "not_found"
	BatchErrorTypeBusinessRule     = "business_rule"
	BatchErrorTypeDB               = "db"
	BatchErrorTypeUnknown          = "unknown"
)

// BatchMetrics captures billing batch health signals.
type BatchMetrics struct {
	jobRuns         *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
	jobErrors       *prometheus.CounterVec
	chunkRetries    *prometheus.CounterVec
	chunkFailures   *prometheus.CounterVec
	chunkDuration   *prometheus.HistogramVec
	customersBilled *prometheus.CounterVec
	runTransitions  *prometheus.CounterVec
}

var (
	batchMetricsOnce sync.Once
	batchMetrics     *BatchMetrics
)

// Batch returns the singleton batch metrics registry.
func Batch() *BatchMetrics {
	return BatchWithConfig(Config{})
}

// BatchWithConfig returns the singleton batch metrics registry using config labels.
func BatchWithConfig(cfg Config) *BatchMetrics {
	batchMetricsOnce.Do(func() {
		batchMetrics = newBatchMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return batchMetrics
}

// ResetBatchMetricsForTest resets the batch metrics singleton for tests.
func ResetBatchMetricsForTest() {
	batchMetricsOnce = sync.Once{}
	batchMetrics = nil
}

func newBatchMetrics(registerer prometheus.Registerer, cfg Config) *BatchMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "tarifa"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	m := &BatchMetrics{
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "tarifa_billing_job_runs_total",
			Help:        "Billing job runs started.",
			ConstLabels: constLabels,
		}, []string{"job"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "tarifa_billing_job_duration_seconds",
			Help:        "Billing job run duration.",
			Buckets:     prometheus.ExponentialBuckets(0.1, 2, 12),
			ConstLabels: constLabels,
		}, []string{"job"}),
		jobErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "tarifa_billing_job_errors_total",
			Help:        "Billing job runs finished with an error.",
			ConstLabels: constLabels,
		}, []string{"job", "error_type"}),
		chunkRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "tarifa_billing_chunk_retries_total",
			Help:        "Chunk attempts that were rolled back and retried.",
			ConstLabels: constLabels,
		}, []string{"job"}),
		chunkFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "tarifa_billing_chunk_failures_total",
			Help:        "Chunks that exhausted the retry policy.",
			ConstLabels: constLabels,
		}, []string{"job"}),
		chunkDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "tarifa_billing_chunk_duration_seconds",
			Help:        "Committed chunk duration, including retries.",
			Buckets:     prometheus.ExponentialBuckets(0.01, 2, 12),
			ConstLabels: constLabels,
		}, []string{"job"}),
		customersBilled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "tarifa_billing_customers_billed_total",
			Help:        "Customers appended to a billing process.",
			ConstLabels: constLabels,
		}, []string{"job"}),
		runTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "tarifa_billing_run_transitions_total",
			Help:        "Billing process state transitions.",
			ConstLabels: constLabels,
		}, []string{"from", "to"}),
	}

	collectors := []prometheus.Collector{
		m.jobRuns,
		m.jobDuration,
		m.jobErrors,
		m.chunkRetries,
		m.chunkFailures,
		m.chunkDuration,
		m.customersBilled,
		m.runTransitions,
	}
	for _, collector := range collectors {
		if err := registerer.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				panic(err)
			}
		}
	}

	return m
}

func (m *BatchMetrics) IncJobRun(job string) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job).Inc()
}

func (m *BatchMetrics) ObserveJobDuration(job string, duration time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

func (m *BatchMetrics) IncJobError(job string, err error) {
	if m == nil {
		return
	}
	m.jobErrors.WithLabelValues(job, ClassifyBatchErrorType(err)).Inc()
}

func (m *BatchMetrics) IncChunkRetry(job string) {
	if m == nil {
		return
	}
	m.chunkRetries.WithLabelValues(job).Inc()
}

func (m *BatchMetrics) IncChunkFailure(job string) {
	if m == nil {
		return
	}
	m.chunkFailures.WithLabelValues(job).Inc()
}

func (m *BatchMetrics) ObserveChunkDuration(job string, duration time.Duration) {
	if m == nil {
		return
	}
	m.chunkDuration.WithLabelValues(job).Observe(duration.Seconds())
}

func (m *BatchMetrics) AddCustomersBilled(job string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.customersBilled.WithLabelValues(job).Add(float64(count))
}

func (m *BatchMetrics) IncRunTransition(from, to string) {
	if m == nil {
		return
	}
	m.runTransitions.WithLabelValues(from, to).Inc()
}

// ClassifyBatchErrorType buckets an error for the job_errors metric.
func ClassifyBatchErrorType(err error) string {
	switch {
	case err == nil:
		return BatchErrorTypeUnknown
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return BatchErrorTypeDeadlineExceeded
	case errors.Is(err, gorm.ErrRecordNotFound):
		return BatchErrorTypeNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrInvalidTransaction):
		return BatchErrorTypeDB
	default:
		return BatchErrorTypeUnknown
	}
}
