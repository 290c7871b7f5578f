// Package metrics exposes prometheus collectors for the overtime pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EntriesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ot_entries_created_total",
		Help: "Overtime entries inserted by bulk intake.",
	})

	EntriesDuplicate = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ot_entries_duplicate_total",
		Help: "Bulk intake rows skipped because the employee already has an entry for the date.",
	})

	EntriesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ot_entries_failed_total",
		Help: "Bulk intake rows the database refused for a reason other than a duplicate.",
	})

	Decisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ot_decisions_total",
		Help: "Lifecycle writes by action (UPDATE, APPROVE, REJECT).",
	}, []string{"action"})

	LifecycleConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ot_lifecycle_conflicts_total",
		Help: "Lifecycle writes refused because the entry was no longer pending or had changed.",
	}, []string{"action"})

	// AuditWriteFailures is the drift signal between entries and their audit
	// trail. Any non-zero rate needs an operator.
	AuditWriteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ot_audit_write_failures_total",
		Help: "Audit records that could not be persisted after a successful mutation.",
	}, []string{"action"})
)
