package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "menu_recommendation"

var (
	// ProviderErrors counts failed calls to external collaborators by provider and status.
	ProviderErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_errors_total",
		Help:      "External provider failures by provider and status.",
	}, []string{"provider", "status"})

	// RouteFallbacks counts routes answered with the straight-line estimate.
	RouteFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "route_fallbacks_total",
		Help:      "Routes degraded to a straight-line estimate.",
	})

	// FavoriteDeletions counts pending favorite deletions by outcome (committed, rolled_back, failed, discarded).
	FavoriteDeletions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "favorite_deletions_total",
		Help:      "Pending favorite deletions by outcome.",
	}, []string{"outcome"})

	// ListedPlaces observes the size of processed restaurant lists.
	ListedPlaces = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "listed_places",
		Help:      "Number of places returned by the list processor.",
		Buckets:   []float64{0, 5, 10, 20, 40, 60},
	})
)

// Deletion outcomes.
const (
	OutcomeCommitted  = "committed"
	OutcomeRolledBack = "rolled_back"
	OutcomeFailed     = "failed"
	OutcomeDiscarded  = "discarded"
)
