package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchesTotal tracks page fetches issued by command.
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_list_fetches_total",
			Help: "Total number of page fetches issued by list controllers",
		},
		[]string{"command"},
	)

	// FetchErrors tracks failed fetches by command and error class.
	FetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_list_fetch_errors_total",
			Help: "Total number of failed page fetches",
		},
		[]string{"command", "class"},
	)

	// IgnoredCommands tracks commands dropped by the re-entrancy guard.
	IgnoredCommands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_list_ignored_commands_total",
			Help: "Total number of list commands ignored because they were not legal in the current phase",
		},
		[]string{"command"},
	)

	// SupersededResponses tracks responses discarded because a refresh replaced them.
	SupersededResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_list_superseded_total",
			Help: "Total number of page responses discarded after being superseded",
		},
		[]string{"command"},
	)

	// ListItems tracks the number of accumulated items per list.
	ListItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_list_items",
			Help: "Current number of items held by a list controller",
		},
		[]string{"collection"},
	)
)
