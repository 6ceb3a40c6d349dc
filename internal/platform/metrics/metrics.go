package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crowdsolve_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crowdsolve_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	votesCast = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crowdsolve_votes_cast_total",
		Help: "Count of vote actions by outcome (created, removed, changed)",
	}, []string{"outcome"})

	solutionsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crowdsolve_solutions_accepted_total",
		Help: "Count of accepted solutions",
	})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crowdsolve_cache_lookups_total",
		Help: "Resource cache lookups by result",
	}, []string{"resource", "result"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveVote counts one vote action. Outcome is created, removed or changed.
func ObserveVote(outcome string) {
	votesCast.WithLabelValues(outcome).Inc()
}

// ObserveAcceptance counts one accepted solution.
func ObserveAcceptance() {
	solutionsAccepted.Inc()
}

// ObserveCacheLookup counts a cache hit or miss for a resource listing.
func ObserveCacheLookup(resource, result string) {
	cacheLookups.WithLabelValues(resource, result).Inc()
}
