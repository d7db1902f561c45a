// Package metrics registers the Prometheus collectors for the task
// engine. Counters cover allocation outcomes, lifecycle transitions,
// optimistic-write conflicts, and the locally recovered failures
// (notifications, workflow chaining) that never surface to callers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AllocationsTotal counts successful automatic assignments per department.
	AllocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskrouter_allocations_total",
		Help: "Successful automatic task assignments.",
	}, []string{"department"})

	// AllocationsFailed counts allocations that found no eligible staff.
	AllocationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskrouter_allocations_failed_total",
		Help: "Allocations that found no eligible staff.",
	}, []string{"department"})

	// AllocationConflicts counts allocator retries caused by concurrent writers.
	AllocationConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskrouter_allocation_conflicts_total",
		Help: "Allocator write conflicts that triggered a re-read.",
	})

	// WriteConflicts counts lifecycle mutation retries caused by concurrent writers.
	WriteConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskrouter_write_conflicts_total",
		Help: "Optimistic-concurrency conflicts on task mutations.",
	})

	// TransitionsTotal counts accepted lifecycle transitions by target status.
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskrouter_transitions_total",
		Help: "Accepted task status transitions.",
	}, []string{"to_status"})

	// EscalationsTotal counts priority escalations.
	EscalationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskrouter_escalations_total",
		Help: "Task priority escalations.",
	})

	// FollowUpsCreated counts follow-up tasks synthesized by workflow chaining.
	FollowUpsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskrouter_followups_created_total",
		Help: "Follow-up tasks created by workflow chaining.",
	})

	// ChainFailures counts workflow chaining failures recovered locally.
	ChainFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskrouter_chain_failures_total",
		Help: "Workflow chaining failures (parent completion unaffected).",
	})

	// NotifyFailures counts notification deliveries that failed.
	NotifyFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskrouter_notify_failures_total",
		Help: "Notification gateway failures (never propagated).",
	})
)
