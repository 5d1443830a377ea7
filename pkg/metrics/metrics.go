// Package metrics exposes the Prometheus registry used by the catalog client.
// Metrics are defined next to the code that records them (graphql,
// pagination, notify) and registered through promauto.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the catalog client.
var Registry = prometheus.DefaultRegisterer

// Handler serves the default gatherer in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// GraphQL Metrics (pkg/graphql):
//   - catalog_graphql_requests_total{operation, status} (Counter)
//   - catalog_graphql_request_duration_seconds{operation} (Histogram)
//   - catalog_graphql_errors_total{class} (Counter): transport, server, parse
//
// List Metrics (pkg/pagination):
//   - catalog_list_fetches_total{command} (Counter): loadInitial, loadMore, refresh
//   - catalog_list_fetch_errors_total{command, class} (Counter)
//   - catalog_list_ignored_commands_total{command} (Counter): re-entrancy guard hits
//   - catalog_list_superseded_total{command} (Counter): responses dropped after a refresh
//   - catalog_list_items{collection} (Gauge)
//
// Notification Metrics (pkg/notify):
//   - catalog_notify_published_total{outcome} (Counter)
//   - catalog_notify_received_total (Counter)
//
// Example Prometheus Queries:
//
//   # Load-more calls swallowed by the single-flight guard
//   rate(catalog_list_ignored_commands_total{command="loadMore"}[5m])
//
//   # Failed page fetches by class
//   sum by (class) (rate(catalog_list_fetch_errors_total[5m]))
//
//   # P95 GraphQL latency
//   histogram_quantile(0.95, rate(catalog_graphql_request_duration_seconds_bucket[5m]))
