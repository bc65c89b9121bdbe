package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PgErrCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal",
		Subsystem: "pg",
		Name:      "err_count",
	}, []string{"method"})
	PgDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "portal",
		Subsystem: "pg",
		Name:      "duration_seconds",
	}, []string{"method"})
	GoogleErrCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal",
		Subsystem: "google",
		Name:      "err_count",
	}, []string{"method"})
	GoogleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "portal",
		Subsystem: "google",
		Name:      "duration_seconds",
	}, []string{"method"})
	BookingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal",
		Subsystem: "booking",
		Name:      "total",
	}, []string{"outcome"})
)
