package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	palettesMadeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "colorgorical",
		Subsystem: "server",
		Name:      "palettes_made_total",
		Help:      "Total palette build requests, by status.",
	}, []string{"status"})

	palettesShortTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "colorgorical",
		Subsystem: "server",
		Name:      "palettes_short_total",
		Help:      "Built palettes with fewer colors than requested.",
	})

	paletteBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "colorgorical",
		Subsystem: "server",
		Name:      "palette_build_duration_seconds",
		Help:      "Preferable palette build duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	palettesScoredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "colorgorical",
		Subsystem: "server",
		Name:      "palettes_scored_total",
		Help:      "Total palette score requests, by status.",
	}, []string{"status"})

	historyErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "colorgorical",
		Subsystem: "server",
		Name:      "history_errors_total",
		Help:      "Palette history writes that could not be queued.",
	})

	apiErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "colorgorical",
		Subsystem: "server",
		Name:      "api_errors_total",
		Help:      "API error responses, by error code.",
	}, []string{"code"})
)
