// Package metrics exports governance counters in Prometheus format.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Registry holds all sgov metrics.
type Registry struct {
	reg *prometheus.Registry

	transitions       *prometheus.CounterVec
	deadlineChanges   *prometheus.CounterVec
	extensionsBlocked prometheus.Counter
	auditEntries      *prometheus.CounterVec
	notifications     *prometheus.CounterVec
	rejections        *prometheus.CounterVec
}

// NewRegistry creates a registry with every sgov collector registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		reg: reg,
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sgov_transitions_total",
			Help: "Committed status transitions by source and target status.",
		}, []string{"from", "to"}),
		deadlineChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sgov_deadline_changes_total",
			Help: "Remediation deadline changes by direction.",
		}, []string{"direction"}),
		extensionsBlocked: factory.NewCounter(prometheus.CounterOpts{
			Name: "sgov_extensions_blocked_total",
			Help: "Deadline reductions blocked pending disable confirmation.",
		}),
		auditEntries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sgov_audit_entries_total",
			Help: "Audit entries written by action.",
		}, []string{"action"}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sgov_notifications_total",
			Help: "Owner notifications dispatched by result.",
		}, []string{"result"}),
		rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sgov_rejections_total",
			Help: "Rejected operations by error code.",
		}, []string{"code"}),
	}
}

// Gatherer exposes the underlying registry for scraping and tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// RecordTransition counts a committed status change.
func (r *Registry) RecordTransition(from, to string) {
	if from == "" {
		from = "none"
	}
	r.transitions.WithLabelValues(from, to).Inc()
}

// RecordDeadlineChange counts changed deadlines.
func (r *Registry) RecordDeadlineChange(direction string, count int) {
	r.deadlineChanges.WithLabelValues(direction).Add(float64(count))
}

// RecordExtensionBlocked counts a batch blocked on expiry.
func (r *Registry) RecordExtensionBlocked() {
	r.extensionsBlocked.Inc()
}

// RecordAudit counts a written audit entry.
func (r *Registry) RecordAudit(action string) {
	r.auditEntries.WithLabelValues(action).Inc()
}

// RecordNotification counts a dispatch attempt.
func (r *Registry) RecordNotification(success bool) {
	result := "sent"
	if !success {
		result = "failed"
	}
	r.notifications.WithLabelValues(result).Inc()
}

// RecordRejection counts an operation refused with an error class code.
func (r *Registry) RecordRejection(code string) {
	r.rejections.WithLabelValues(code).Inc()
}

// Handler serves the registry in Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// StartServer serves /metrics on addr until the server fails.
func StartServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Default().Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
