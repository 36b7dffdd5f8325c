package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests            *prometheus.CounterVec
	CounterHandleRequestPanic  prometheus.Counter
	CounterRateLimitedRequests prometheus.Counter
	CounterRouteDecisions      *prometheus.CounterVec
	CounterOnboardingTurns     *prometheus.CounterVec
	CounterBackendCalls        *prometheus.CounterVec
	CounterAnalyticsCache      *prometheus.CounterVec
	CounterStaleResponses      prometheus.Counter
	CounterPaymentConfirmed    *prometheus.CounterVec
	CounterRevokes             *prometheus.CounterVec
	CounterSweptProfiles       prometheus.Counter

	// gauges
	GaugeRequests   prometheus.Gauge
	GaugeLifeSignal prometheus.Gauge

	// histograms
	HistogramRequestDuration *prometheus.HistogramVec
	HistogramBackendDuration *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager("easyathlete", "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("easyathlete", "test_server", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterHandleRequestPanic := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "handle_request_panic",
		Help:      "The total number of serve request panics",
	})
	counterRateLimitedRequests := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rate_limited_requests",
		Help:      "The total number of rate limited requests",
	})
	counterRouteDecisions := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "route_decisions",
		Help:      "Routing decisions by requested and resolved screen",
	}, []string{"requested", "screen"})
	counterOnboardingTurns := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "onboarding_turns",
		Help:      "Onboarding chat turns by outcome",
	}, []string{"outcome"})
	counterBackendCalls := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "backend_calls",
		Help:      "Calls to the external backend by endpoint and outcome",
	}, []string{"endpoint", "outcome"})
	counterAnalyticsCache := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "analytics_cache",
		Help:      "Analytics reads by cache result (hit, miss, stale)",
	}, []string{"result"})
	counterStaleResponses := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "stale_responses_discarded",
		Help:      "Backend responses discarded because the session identity changed",
	})
	counterPaymentConfirmed := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "payment_confirmed",
		Help:      "Payment flag transitions to true by source",
	}, []string{"source"})
	counterRevokes := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "revokes",
		Help:      "Account revocations by backend outcome",
	}, []string{"outcome"})
	counterSweptProfiles := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "swept_profiles",
		Help:      "Idle session profiles removed by the sweeper",
	})

	gaugeRequests := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "current_requests",
		Help:      "Current number of requests served",
	})
	gaugeLifeSignal := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "life_signal",
		Help:      "Shows whether the service is alive",
	})

	histogramRequestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_duration_seconds",
		Help:      "Histogram of response time for requests in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"route", "method", "status_code"})
	histogramBackendDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "backend_call_duration_seconds",
		Help:      "Histogram of external backend call durations in seconds",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"endpoint"})

	return &Manager{
		CounterRequests:            counterRequests,
		CounterHandleRequestPanic:  counterHandleRequestPanic,
		CounterRateLimitedRequests: counterRateLimitedRequests,
		CounterRouteDecisions:      counterRouteDecisions,
		CounterOnboardingTurns:     counterOnboardingTurns,
		CounterBackendCalls:        counterBackendCalls,
		CounterAnalyticsCache:      counterAnalyticsCache,
		CounterStaleResponses:      counterStaleResponses,
		CounterPaymentConfirmed:    counterPaymentConfirmed,
		CounterRevokes:             counterRevokes,
		CounterSweptProfiles:       counterSweptProfiles,
		GaugeRequests:              gaugeRequests,
		GaugeLifeSignal:            gaugeLifeSignal,
		HistogramRequestDuration:   histogramRequestDuration,
		HistogramBackendDuration:   histogramBackendDuration,
	}
}
