package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Purchases       *prometheus.CounterVec
	OrdersProcessed *prometheus.CounterVec
	CacheLookups    *prometheus.CounterVec
	ReserveSeconds  prometheus.Histogram
}

// New registers the collectors on its own registry so tests can hold
// isolated instances.
func New() (*Metrics, *prometheus.Registry) {
	purchases := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shoplite",
		Name:      "purchases_total",
		Help:      "Purchase attempts by outcome.",
	}, []string{"result"})
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shoplite",
		Name:      "orders_processed_total",
		Help:      "Async processing outcomes by final status.",
	}, []string{"status"})
	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shoplite",
		Name:      "product_cache_lookups_total",
		Help:      "Product cache lookups by result.",
	}, []string{"result"})
	reserveSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "shoplite",
		Name:      "reserve_duration_seconds",
		Help:      "Stock reservation latency.",
		Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(purchases, processed, cacheLookups, reserveSeconds)

	return &Metrics{
		Purchases:       purchases,
		OrdersProcessed: processed,
		CacheLookups:    cacheLookups,
		ReserveSeconds:  reserveSeconds,
	}, registry
}

func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
