package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_dispatched_total",
		Help: "Notifications handled, by kind and terminal outcome.",
	}, []string{"kind", "outcome"})

	ticketDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ticket_generation_duration_seconds",
		Help:    "Time spent rendering ticket documents.",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	})
)
