// Package metrics defines the Prometheus collectors of the storefront gateway.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

var (
	// BackendFailures counts failed calls to the remote services by operation
	// and error kind.
	BackendFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_failures_total",
		Help:      "Failed calls to catalog, search, cart and shipping services.",
	}, []string{"op", "kind"})

	// CartRollbacks counts optimistic cart mutations undone after the cart
	// service refused them.
	CartRollbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_rollbacks_total",
		Help:      "Optimistic cart mutations rolled back.",
	}, []string{"op"})

	// StaleSearches counts search responses dropped because a newer search
	// had started.
	StaleSearches = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stale_search_responses_total",
		Help:      "Search responses discarded in favour of a newer request.",
	})

	// AutocompleteRequests counts suggestion lookups by outcome.
	AutocompleteRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "autocomplete_requests_total",
		Help:      "Autocomplete lookups by outcome.",
	}, []string{"outcome"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
