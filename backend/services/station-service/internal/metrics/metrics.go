package metrics

import (
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	metricPrefix = "station_service_"

	ResultSuccess  = "success"
	ResultNotFound = "not_found"
	ResultConflict = "conflict"
	ResultInvalid  = "invalid"
	ResultError    = "error"
)

var (
	registerOnce sync.Once

	transitionsTotal   *prometheus.CounterVec
	transitionLatency  *prometheus.HistogramVec
	historyRecords     prometheus.Counter
	registrationsTotal *prometheus.CounterVec
	loginsTotal        *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
)

// Init registers service metrics on reg. When db is non-nil, ledger size gauges
// backed by SQL are registered as well. Safe to call more than once.
func Init(reg prometheus.Registerer, db *sql.DB, logger *zap.Logger) {
	registerOnce.Do(func() {
		transitionsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "transitions_total",
				Help: "Station status transitions by result",
			},
			[]string{"result"},
		)
		transitionLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "transition_latency_seconds",
				Help:    "Transition latency in seconds, lock wait included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		historyRecords = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "history_records_total",
				Help: "Maintenance history entries appended",
			},
		)
		registrationsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "registrations_total",
				Help: "Station create/delete operations by result",
			},
			[]string{"operation", "result"},
		)
		loginsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "logins_total",
				Help: "Login attempts by result",
			},
			[]string{"result"},
		)
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "HTTP requests by method and status code",
			},
			[]string{"method", "code"},
		)

		reg.MustRegister(
			transitionsTotal,
			transitionLatency,
			historyRecords,
			registrationsTotal,
			loginsTotal,
			httpRequests,
		)

		if db != nil {
			registerDBMetrics(reg, db, logger)
		}
	})
}

// ObserveTransition records one applyTransition call.
func ObserveTransition(result string, historyRecorded bool, elapsed time.Duration) {
	if transitionsTotal == nil {
		return
	}
	transitionsTotal.WithLabelValues(result).Inc()
	transitionLatency.WithLabelValues(result).Observe(elapsed.Seconds())
	if historyRecorded {
		historyRecords.Inc()
	}
}

// ObserveRegistration records a create or delete.
func ObserveRegistration(operation, result string) {
	if registrationsTotal == nil {
		return
	}
	registrationsTotal.WithLabelValues(operation, result).Inc()
}

func ObserveLogin(result string) {
	if loginsTotal == nil {
		return
	}
	loginsTotal.WithLabelValues(result).Inc()
}

func ObserveHTTPRequest(method, code string) {
	if httpRequests == nil {
		return
	}
	httpRequests.WithLabelValues(method, code).Inc()
}
