package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "scavenger"

// Extraction outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeParseFailed = "parse_failed"
	OutcomeError       = "error"
)

// Registry holds the process collectors. A nil *Registry is valid and records nothing.
type Registry struct {
	providerRequests *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
	extractions      *prometheus.CounterVec
	statusUpdates    *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Registry {
	r := &Registry{
		providerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Extraction provider calls by provider and HTTP status (0 for transport errors).",
		}, []string{"provider", "status"}),
		providerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Latency of extraction provider calls.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"provider"}),
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Extractions by provider and outcome.",
		}, []string{"provider", "outcome"}),
		statusUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_updates_total",
			Help:      "Flyer status notifications by result.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(r.providerRequests, r.providerDuration, r.extractions, r.statusUpdates)
	}
	return r
}

func (r *Registry) ObserveProviderCall(provider string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.providerRequests.WithLabelValues(provider, strconv.Itoa(status)).Inc()
	r.providerDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func (r *Registry) ObserveExtraction(provider, outcome string) {
	if r == nil {
		return
	}
	r.extractions.WithLabelValues(provider, outcome).Inc()
}

func (r *Registry) ObserveStatusUpdate(result string) {
	if r == nil {
		return
	}
	r.statusUpdates.WithLabelValues(result).Inc()
}
