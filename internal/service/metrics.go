package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cartMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cart_mutations_total",
			Help: "Total number of cart mutations by operation",
		},
		[]string{"op"},
	)

	cartPersistFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cart_persist_failures_total",
			Help: "Total number of cart writes that failed to reach storage",
		},
		[]string{"op"},
	)

	cartSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storefront_cart_sessions_active",
			Help: "Number of cart sessions held in memory",
		},
	)

	backendFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_backend_fallbacks_total",
			Help: "Total number of hosted backend calls answered from the fallback cache",
		},
		[]string{"operation"},
	)
)
