package client

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Request outcome labels.
const (
	labelNetwork          = "network"
	labelMockShortCircuit = "mock_shortcircuit"
	labelMockFallback     = "mock_fallback"
	labelFailed           = "failed"
)

// Refresh result labels.
const (
	refreshSuccess = "success"
	refreshFailure = "failure"
	refreshSkipped = "skipped"
)

type metrics struct {
	requests  *prometheus.CounterVec
	refreshes *prometheus.CounterVec
}

// newMetrics builds the client counters and registers them with reg when it is
// not nil. Counters already registered by another client are shared.
func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "water_client_requests_total",
			Help: "API calls by how they were answered.",
		}, []string{"outcome"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "water_client_refresh_total",
			Help: "Token refresh attempts by result.",
		}, []string{"result"}),
	}
	if reg != nil {
		m.requests = register(reg, m.requests)
		m.refreshes = register(reg, m.refreshes)
	}
	return m
}

func register(reg prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (m *metrics) request(outcome string) {
	m.requests.WithLabelValues(outcome).Inc()
}

func (m *metrics) refresh(result string) {
	m.refreshes.WithLabelValues(result).Inc()
}
