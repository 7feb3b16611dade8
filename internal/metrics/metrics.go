package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ResolutionsTotal *prometheus.CounterVec
	TransportSeconds *prometheus.HistogramVec
	TransportErrors  *prometheus.CounterVec
	Retries          prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		ResolutionsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "route_resolutions_total",
			Help: "Total number of route resolutions by outcome.",
		}, []string{"outcome"}),
		TransportSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "route_transport_request_duration_seconds",
			Help:    "Duration of requests to routing providers by transport.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider", "transport"}),
		TransportErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "route_transport_errors_total",
			Help: "Total number of failed transport attempts.",
		}, []string{"transport"}),
		Retries: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "route_manual_retries_total",
			Help: "Total number of accepted manual retry invocations.",
		}),
	}
}
