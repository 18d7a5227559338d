package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// RateCalculationsTotal counts rate calculations by shipment type and outcome.
	RateCalculationsTotal *prometheus.CounterVec
	// SyntheticRateTotal counts decisions about the domestic rate-card quote.
	SyntheticRateTotal *prometheus.CounterVec
	// SlabMatchTotal counts which lookup rule matched a rate slab.
	SlabMatchTotal *prometheus.CounterVec
	// SlabSourceFallbackTotal counts calculations that used the built-in rate card.
	SlabSourceFallbackTotal prometheus.Counter
	// CarrierRequestLatency records carrier API latency in milliseconds.
	CarrierRequestLatency *prometheus.HistogramVec
)

// MustRegisterDomainMetrics initialises and registers the rate calculation
// collectors. Only the first call has any effect.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		RateCalculationsTotal = registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_calculations_total",
			Help:      "Count of rate calculations by shipment type and result.",
		}, []string{"shipment_type", "result"}))
		SyntheticRateTotal = registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthetic_rate_total",
			Help:      "Count of domestic rate-card decisions by result.",
		}, []string{"result"}))
		SlabMatchTotal = registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slab_match_total",
			Help:      "Count of rate slab lookups by matching rule.",
		}, []string{"match"}))
		SlabSourceFallbackTotal = registerOrReuse[prometheus.Counter](reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slab_source_fallback_total",
			Help:      "Number of calculations that fell back to the built-in rate card.",
		}))
		CarrierRequestLatency = registerOrReuse(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "carrier_request_duration_ms",
			Help:      "Latency of carrier rate API calls in milliseconds.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}, []string{"result"}))
	})
}
