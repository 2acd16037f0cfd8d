package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	// A vector collector is gathered only once it has at least one child.
	m.GatewayCallDuration.WithLabelValues("get")
	m.GatewayConflicts.WithLabelValues("connectors")
	m.QueueBytes.WithLabelValues("c1")
	m.DocsProcessed.WithLabelValues("c1", "indexed")
	m.JobsCreated.WithLabelValues("scheduled")
	m.JobsReaped.WithLabelValues("idle")

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}

	for _, want := range []string{
		"connectord_gateway_call_duration_seconds",
		"connectord_gateway_update_conflicts_total",
		"connectord_pipeline_queue_bytes",
		"connectord_docs_processed_total",
		"connectord_orchestrator_ticks_total",
		"connectord_sync_jobs_created_total",
		"connectord_sync_jobs_reaped_total",
		"connectord_orchestrator_tick_duration_seconds",
	} {
		assert.True(t, names[want], "missing collector %s", want)
	}
	assert.NotNil(t, m)
}

func TestObserveGatewayCall_RecordsDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveGatewayCall("get", time.Now().Add(-10*time.Millisecond))

	metric := &dto.Metric{}
	require.NoError(t, m.GatewayCallDuration.WithLabelValues("get").Write(metric))
	assert.Equal(t, uint64(1), metric.GetHistogram().GetSampleCount())
}

func TestObserveGatewayCall_NilRegistryIsNoop(t *testing.T) {
	var m *Registry
	assert.NotPanics(t, func() { m.ObserveGatewayCall("get", time.Now()) })
}
