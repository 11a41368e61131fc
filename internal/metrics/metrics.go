package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all Gatherpoint metrics
const namespace = "gatherpoint"

// Registry is the global Prometheus registry for all metrics
var Registry = prometheus.NewRegistry()

// AppInfo is a gauge that exposes application version information as labels
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date"},
)

// EventsCreatedTotal counts event submissions by the approval state they
// entered the listing with
var EventsCreatedTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_created_total",
		Help:      "Total number of events created",
	},
	[]string{"state"}, // state: pending|approved
)

// EventsApprovedTotal counts admin approvals of pending events
var EventsApprovedTotal = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_approved_total",
		Help:      "Total number of events approved by an administrator",
	},
)

// EventsDeletedTotal counts admin deletions
var EventsDeletedTotal = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_deleted_total",
		Help:      "Total number of events deleted by an administrator",
	},
)

// LoginAttemptsTotal counts login attempts by outcome
var LoginAttemptsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts",
	},
	[]string{"outcome"}, // outcome: success|failure
)

// AccountsRegisteredTotal counts successful account registrations
var AccountsRegisteredTotal = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "accounts_registered_total",
		Help:      "Total number of accounts registered",
	},
)

// Init initializes the metrics registry and sets version information
func Init(version, commit, buildDate string) {
	// Register default Go metrics (memory, goroutines, GC, etc.)
	Registry.MustRegister(collectors.NewGoCollector())

	// Register process metrics (CPU, memory, file descriptors)
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Set application version info (value is always 1, info is in labels)
	AppInfo.WithLabelValues(version, commit, buildDate).Set(1)
}
