// Package metrics holds the Prometheus collectors for interview sessions.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "interview"

var (
	registerOnce    sync.Once
	sessionsCreated prometheus.Counter
	sessionsActive  prometheus.Gauge
	turnsTotal      prometheus.Counter
	reportsTotal    *prometheus.CounterVec
	gatewayErrors   *prometheus.CounterVec
	sessionsEvicted prometheus.Counter
)

// Report outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeParseFailed = "parse_failed"
	OutcomeFailed      = "failed"
)

// Register initialises the collectors on the default registry. It is safe to
// call more than once.
func Register() {
	registerOnce.Do(func() {
		sessionsCreated = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Total number of interview sessions created.",
		})
		sessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of sessions currently held in the registry.",
		})
		turnsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Total number of answered questions.",
		})
		reportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Score reports produced, by outcome.",
		}, []string{"outcome"})
		gatewayErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_errors_total",
			Help:      "Error messages sent to clients, by code.",
		}, []string{"code"})
		sessionsEvicted = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_evicted_total",
			Help:      "Sessions removed by the idle janitor.",
		})

		prometheus.MustRegister(sessionsCreated, sessionsActive, turnsTotal, reportsTotal, gatewayErrors, sessionsEvicted)
	})
}

// SessionsCreated exposes the session creation counter.
func SessionsCreated() prometheus.Counter {
	Register()
	return sessionsCreated
}

// SessionsActive exposes the registry size gauge.
func SessionsActive() prometheus.Gauge {
	Register()
	return sessionsActive
}

// Turns exposes the answered-question counter.
func Turns() prometheus.Counter {
	Register()
	return turnsTotal
}

// Reports exposes the report counter.
func Reports() *prometheus.CounterVec {
	Register()
	return reportsTotal
}

// GatewayErrors exposes the client error counter.
func GatewayErrors() *prometheus.CounterVec {
	Register()
	return gatewayErrors
}

// SessionsEvicted exposes the janitor eviction counter.
func SessionsEvicted() prometheus.Counter {
	Register()
	return sessionsEvicted
}
