// Package metrics registers the connectord Prometheus collectors: gateway
// call latency, pipeline queue depth and orchestrator tick/job counters.
// Metrics are prefixed "connectord_" for namespace uniqueness.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry bundles every collector connectord exposes. Construct one with
// New; serve passes it to the orchestrator, which updates the tick, job and
// document collectors. The gateway and queue collectors are registered, but
// no caller updates them.
type Registry struct {
	GatewayCallDuration *prometheus.HistogramVec
	GatewayConflicts    *prometheus.CounterVec

	QueueBytes    *prometheus.GaugeVec
	DocsProcessed *prometheus.CounterVec

	TicksTotal       prometheus.Counter
	JobsCreated      *prometheus.CounterVec
	JobsReaped       *prometheus.CounterVec
	OrchestratorLoop prometheus.Histogram
}

// New registers every collector against reg and returns the Registry.
func New(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)
	return &Registry{
		GatewayCallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "connectord_gateway_call_duration_seconds",
			Help:    "Duration of IndexGateway calls by operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		GatewayConflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "connectord_gateway_update_conflicts_total",
			Help: "Optimistic update conflicts encountered, by index.",
		}, []string{"index"}),
		QueueBytes: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "connectord_pipeline_queue_bytes",
			Help: "Current byte occupancy of a sync job's MemQueue.",
		}, []string{"connector_id"}),
		DocsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "connectord_docs_processed_total",
			Help: "Documents processed by a sync job, by outcome.",
		}, []string{"connector_id", "outcome"}),
		TicksTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "connectord_orchestrator_ticks_total",
			Help: "Orchestrator scheduling ticks executed.",
		}),
		JobsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "connectord_sync_jobs_created_total",
			Help: "Sync jobs created, by trigger method.",
		}, []string{"trigger_method"}),
		JobsReaped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "connectord_sync_jobs_reaped_total",
			Help: "Sync jobs reaped, by reason.",
		}, []string{"reason"}),
		OrchestratorLoop: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "connectord_orchestrator_tick_duration_seconds",
			Help:    "Wall time of a single orchestrator tick.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveGatewayCall records the duration of a gateway operation.
func (r *Registry) ObserveGatewayCall(operation string, start time.Time) {
	if r == nil {
		return
	}
	r.GatewayCallDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
