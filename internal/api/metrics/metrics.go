// Package metrics defines the custom Prometheus metrics for the package hub.
// It is the single source of truth for metric names, labels, and help strings.
// Registration happens at import time via promauto; request-level metrics come
// from the echoprometheus middleware instead.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "modhaven"

// NamespaceConflictsTotal counts namespace creations rejected by the
// authority resolver.
// Label:
//   - kind: "duplicate" (exact prefix taken) or "overlap" (related prefix
//     held by a namespace the caller does not administer)
var NamespaceConflictsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "namespace_conflicts_total",
		Help:      "Total number of namespace creations rejected by conflict resolution.",
	},
	[]string{"kind"},
)

// PermissionDenialsTotal counts operations rejected by the permission
// resolver or a namespace admin guard.
// Label:
//   - operation: short name of the rejected operation (e.g. "upsert",
//     "patch", "delete", "members")
var PermissionDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "permission_denials_total",
		Help:      "Total number of operations rejected for lack of permission.",
	},
	[]string{"operation"},
)

// PackageUpsertsTotal counts package upserts that persisted.
// Label:
//   - result: "created" or "updated"
var PackageUpsertsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "package_upserts_total",
		Help:      "Total number of package records created or updated.",
	},
	[]string{"result"},
)

// PackageListDuration measures how long the list endpoint spends in storage,
// including query evaluation or translation.
// Label:
//   - backend: "memory" or "mongo"
var PackageListDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "package_list_duration_seconds",
		Help:      "Duration of package listing queries against the storage engine.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"backend"},
)

// AccountsCreatedTotal counts accounts created on first login.
var AccountsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "accounts_created_total",
		Help:      "Total number of accounts created on first login.",
	},
)
