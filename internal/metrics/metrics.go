package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// GatewayRequestsTotal counts outbound calls to the language model and
	// the transcription model, labeled by call and result.
	GatewayRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orderverifier",
		Subsystem: "gateway",
		Name:      "requests_total",
		Help:      "Total number of external service calls, labeled by call and result.",
	}, []string{"call", "result"})

	GatewayDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "orderverifier",
		Subsystem: "gateway",
		Name:      "duration_seconds",
		Help:      "Round-trip time of external service calls.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"call"})

	// TranscriptionsInFlight is the number of transcriptions holding a model slot.
	TranscriptionsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "orderverifier",
		Subsystem: "gateway",
		Name:      "transcriptions_in_flight",
		Help:      "Current number of transcriptions running on the local model.",
	})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orderverifier",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests, labeled by route template and status code.",
	}, []string{"route", "code"})
)

// Register registers metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			GatewayRequestsTotal,
			GatewayDurationSeconds,
			TranscriptionsInFlight,
			HTTPRequestsTotal,
		)
	})
}

// ObserveGateway records one external call that started at start.
func ObserveGateway(call string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	GatewayRequestsTotal.WithLabelValues(call, result).Inc()
	GatewayDurationSeconds.WithLabelValues(call).Observe(time.Since(start).Seconds())
}
