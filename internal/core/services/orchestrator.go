package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/connectord/internal/core/domain"
	"github.com/custodia-labs/connectord/internal/core/ports/driven"
	"github.com/custodia-labs/connectord/internal/core/ports/driving"
	"github.com/custodia-labs/connectord/internal/logger"
	"github.com/custodia-labs/connectord/internal/metrics"
)

var _ driving.Orchestrator = (*Orchestrator)(nil)

var errStalledWorker = errors.New("stalled worker: no heartbeat within idle threshold")

// OrchestratorConfig is the process-level configuration a tick consults:
// which service_types run natively (in-process) and which individual
// connector ids are configured for non-native operation, plus the per-connector service_type map Prepare seeds new
// connectors with.
type OrchestratorConfig struct {
	NativeServiceTypes       []string
	ConfiguredConnectorIDs   []string
	ConnectorServiceTypes    map[string]string
	WorkerHostname           string
	HeartbeatIntervalSeconds int
	TickInterval             time.Duration
	UpdateCountsEvery         int
}

// Orchestrator is the top-level scheduling loop: enumerate supported
// connectors, heartbeat, decide next-sync, create/claim/drive jobs, reap
// orphans and idle jobs, service out-of-band pending jobs. Per-id
// serialization is handled by keyedLock.
type Orchestrator struct {
	cfg       OrchestratorConfig
	gw        domain.IndexGateway
	registry  driven.AdapterRegistry
	validator domain.FilterValidator
	metrics   *metrics.Registry
	locks     *keyedLock
}

// NewOrchestrator wires an Orchestrator's dependencies.
func NewOrchestrator(
	cfg OrchestratorConfig,
	gw domain.IndexGateway,
	registry driven.AdapterRegistry,
	validator domain.FilterValidator,
	metricsReg *metrics.Registry,
) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		gw:        gw,
		registry:  registry,
		validator: validator,
		metrics:   metricsReg,
		locks:     newKeyedLock(),
	}
}

// Run ticks RunOnce until ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.RunOnce(ctx); err != nil {
		logger.Warn("orchestrator: tick failed: %v", err)
	}

	interval := o.cfg.TickInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := o.RunOnce(ctx); err != nil {
				logger.Warn("orchestrator: tick failed: %v", err)
			}
		}
	}
}

// RunOnce executes exactly one scheduling tick.
func (o *Orchestrator) RunOnce(ctx context.Context) error {
	start := time.Now()
	if o.metrics != nil {
		o.metrics.TicksTotal.Inc()
		defer o.metrics.OrchestratorLoop.Observe(time.Since(start).Seconds())
	}

	connectors, ids, err := o.supportedConnectors(ctx)
	if err != nil {
		return fmt.Errorf("enumerate supported connectors: %w", err)
	}

	for _, c := range connectors {
		if err := o.driveConnector(ctx, c); err != nil {
			logger.ErrorFields(logger.Fields{"connector_id": c.ID(), "error": err.Error()}, "orchestrator: connector drive failed")
		}
	}

	if err := o.reapOrphans(ctx, ids); err != nil {
		logger.Warn("orchestrator: orphan reaper failed: %v", err)
	}
	if err := o.reapIdle(ctx, ids); err != nil {
		logger.Warn("orchestrator: idle reaper failed: %v", err)
	}
	if err := o.servicePending(ctx, ids, connectors); err != nil {
		logger.Warn("orchestrator: pending picker failed: %v", err)
	}
	return nil
}

// supportedConnectors returns native connectors whose service_type is in
// NativeServiceTypes, union non-native connectors explicitly listed in
// ConfiguredConnectorIDs.
func (o *Orchestrator) supportedConnectors(ctx context.Context) ([]*domain.Connector, map[string]bool, error) {
	nativeTypes := toSet(o.cfg.NativeServiceTypes)
	configuredIDs := toSet(o.cfg.ConfiguredConnectorIDs)

	pred := func(id string, doc domain.RawDoc) bool {
		isNative, _ := doc["is_native"].(bool)
		if isNative {
			serviceType, _ := doc["service_type"].(string)
			return nativeTypes[serviceType]
		}
		return configuredIDs[id]
	}

	stream, err := o.gw.Query(ctx, domain.ConnectorsIndex, domain.QueryFilter{Predicate: pred})
	if err != nil {
		return nil, nil, err
	}
	defer stream.Close()

	var connectors []*domain.Connector
	ids := make(map[string]bool)
	for stream.Next(ctx) {
		id, doc := stream.Doc()
		connectors = append(connectors, domain.NewConnector(o.gw, id, doc))
		ids[id] = true
	}
	return connectors, ids, stream.Err()
}

// driveConnector runs prepare, heartbeat, filter revalidation, a next-sync
// decision, and — if due — a full sync job run for one connector.
// Per-connector-id state transitions are serialized by keyedLock.
func (o *Orchestrator) driveConnector(ctx context.Context, c *domain.Connector) error {
	o.locks.Lock(c.ID())
	defer o.locks.Unlock(c.ID())

	if err := c.Prepare(ctx, domain.PrepareConfig{
		ConnectorID: c.ID(),
		ServiceType: o.cfg.ConnectorServiceTypes[c.ID()],
	}, o.registry); err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	if err := c.Heartbeat(ctx, o.cfg.HeartbeatIntervalSeconds); err != nil {
		return fmt.Errorf("heartbeat: %w", err)
	}
	if o.validator != nil {
		if err := c.ValidateFiltering(ctx, o.validator); err != nil {
			logger.Warn("connector %s: filter validation failed: %v", c.ID(), err)
		}
	}

	switch next := c.NextSync(); {
	case next == domain.SyncDisabled:
		return nil
	case next > 0:
		return nil
	default:
		return o.startSync(ctx, c, domain.TriggerMethodScheduled)
	}
}

// startSync resets the one-shot override, snapshots a new SyncJob, and runs
// it to completion.
func (o *Orchestrator) startSync(ctx context.Context, c *domain.Connector, trigger domain.TriggerMethod) error {
	if err := c.ResetSyncNowFlag(ctx); err != nil {
		return fmt.Errorf("reset sync_now: %w", err)
	}
	job, err := domain.CreateSyncJob(ctx, o.gw, c, trigger)
	if err != nil {
		return fmt.Errorf("create sync job: %w", err)
	}
	if o.metrics != nil {
		o.metrics.JobsCreated.WithLabelValues(string(trigger)).Inc()
	}
	return o.runJob(ctx, c, job)
}

// runJob claims a pending/suspended job, drives the configured adapter
// through the pipeline, and terminates the job, then folds the outcome
// back onto the connector via SyncDone.
func (o *Orchestrator) runJob(ctx context.Context, c *domain.Connector, job *domain.SyncJob) (err error) {
	if serr := c.SyncStarts(ctx); serr != nil {
		logger.Warn("connector %s: sync_starts failed: %v", c.ID(), serr)
	}
	defer func() {
		if serr := c.SyncDone(ctx, job); serr != nil {
			logger.Warn("connector %s: sync_done failed: %v", c.ID(), serr)
		}
	}()

	if err := job.Claim(ctx, o.cfg.WorkerHostname); err != nil {
		return fmt.Errorf("claim job %s: %w", job.ID(), err)
	}
	if err := job.ValidateFiltering(ctx, o.validator); err != nil {
		return job.Fail(ctx, err, 0, 0)
	}

	adapter, err := o.registry.Build(ctx, job.ServiceType(), configValues(job.Configuration()))
	if err != nil {
		return job.Fail(ctx, err, 0, 0)
	}
	defer adapter.Close()

	if err := adapter.ValidateConfig(); err != nil {
		return job.Fail(ctx, err, 0, 0)
	}

	docs, err := adapter.GetDocs(ctx, job.Filtering())
	if err != nil {
		return job.Fail(ctx, err, 0, 0)
	}

	return o.drainPipeline(ctx, c, job, docs)
}

// drainPipeline consumes the adapter's document channel, indexing each
// document and periodically checkpointing job counts/heartbeat, then
// terminates the job according to how the drain ended.
func (o *Orchestrator) drainPipeline(ctx context.Context, c *domain.Connector, job *domain.SyncJob, docs <-chan driven.DocRecord) error {
	every := o.cfg.UpdateCountsEvery
	if every <= 0 {
		every = 50
	}

	indexed := 0
	var runErr error
drain:
	for {
		select {
		case rec, ok := <-docs:
			if !ok {
				break drain
			}
			doc := rec.Doc
			if rec.Download != nil {
				attachment, derr := rec.Download(ctx)
				if derr != nil {
					logger.Warn("job %s: attachment download failed: %v", job.ID(), derr)
				} else {
					for k, v := range attachment {
						doc[k] = v
					}
				}
			}
			if _, indexErr := o.gw.Index(ctx, c.IndexName(), doc); indexErr != nil {
				runErr = indexErr
				break drain
			}
			indexed++
			if o.metrics != nil {
				o.metrics.DocsProcessed.WithLabelValues(c.ID(), "indexed").Inc()
			}
			if indexed%every == 0 {
				_ = job.UpdateCounts(ctx, indexed, 0)
				_ = job.Heartbeat(ctx)
			}
		case <-ctx.Done():
			runErr = ctx.Err()
			break drain
		}
	}

	switch {
	case runErr != nil && errors.Is(runErr, domain.ErrCancelled):
		return job.Cancel(ctx, indexed, 0)
	case runErr != nil && ctx.Err() != nil:
		return job.Suspend(ctx, indexed, 0)
	case runErr != nil:
		return job.Fail(ctx, runErr, indexed, 0)
	default:
		return job.Done(ctx, indexed, 0)
	}
}

// reapOrphans deletes every sync job whose connector id is no longer in the
// known set, unconditional on job status.
func (o *Orchestrator) reapOrphans(ctx context.Context, ids map[string]bool) error {
	pred := func(_ string, doc domain.RawDoc) bool {
		connID, _ := doc["connector_id"].(string)
		return !ids[connID]
	}
	n, err := o.gw.DeleteByQuery(ctx, domain.SyncJobsIndex, domain.QueryFilter{Predicate: pred})
	if err != nil {
		return err
	}
	if n > 0 && o.metrics != nil {
		o.metrics.JobsReaped.WithLabelValues("orphan").Add(float64(n))
	}
	return nil
}

// reapIdle fails jobs in_progress|canceling whose last_seen predates
// IdleJobsThreshold, with a stalled-worker message.
func (o *Orchestrator) reapIdle(ctx context.Context, ids map[string]bool) error {
	cutoff := time.Now().Add(-time.Duration(domain.IdleJobsThreshold) * time.Second)

	pred := func(_ string, doc domain.RawDoc) bool {
		connID, _ := doc["connector_id"].(string)
		if !ids[connID] {
			return false
		}
		status := domain.JobStatus(docString(doc, "status"))
		if status != domain.JobStatusInProgress && status != domain.JobStatusCanceling {
			return false
		}
		lastSeen, ok := docTime(doc, "last_seen")
		return ok && lastSeen.Before(cutoff)
	}

	stream, err := o.gw.Query(ctx, domain.SyncJobsIndex, domain.QueryFilter{Predicate: pred})
	if err != nil {
		return err
	}
	defer stream.Close()

	reaped := 0
	for stream.Next(ctx) {
		id, doc := stream.Doc()
		job := domain.NewSyncJob(o.gw, id, doc)
		if err := job.Fail(ctx, errStalledWorker, job.IndexedDocumentCount(), job.DeletedDocumentCount()); err != nil {
			logger.Warn("idle reaper: fail job %s: %v", id, err)
			continue
		}
		reaped++
	}
	if reaped > 0 && o.metrics != nil {
		o.metrics.JobsReaped.WithLabelValues("idle").Add(float64(reaped))
	}
	return stream.Err()
}

// servicePending drives jobs left pending or suspended outside the normal
// create-on-due path (e.g. an operator-created job, or one suspended by a
// prior graceful shutdown).
func (o *Orchestrator) servicePending(ctx context.Context, ids map[string]bool, connectors []*domain.Connector) error {
	byID := make(map[string]*domain.Connector, len(connectors))
	for _, c := range connectors {
		byID[c.ID()] = c
	}

	pred := func(_ string, doc domain.RawDoc) bool {
		connID, _ := doc["connector_id"].(string)
		if !ids[connID] {
			return false
		}
		status := domain.JobStatus(docString(doc, "status"))
		return status == domain.JobStatusPending || status == domain.JobStatusSuspended
	}

	stream, err := o.gw.Query(ctx, domain.SyncJobsIndex, domain.QueryFilter{Predicate: pred})
	if err != nil {
		return err
	}
	var pending []*domain.SyncJob
	for stream.Next(ctx) {
		id, doc := stream.Doc()
		pending = append(pending, domain.NewSyncJob(o.gw, id, doc))
	}
	streamErr := stream.Err()
	stream.Close()
	if streamErr != nil {
		return streamErr
	}

	for _, job := range pending {
		c, ok := byID[job.ConnectorID()]
		if !ok {
			continue
		}
		o.locks.Lock(c.ID())
		runErr := o.runJob(ctx, c, job)
		o.locks.Unlock(c.ID())
		if runErr != nil {
			logger.Warn("pending picker: job %s failed: %v", job.ID(), runErr)
		}
	}
	return nil
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

func configValues(cfg domain.Configuration) map[string]any {
	out := make(map[string]any, len(cfg))
	for k, opt := range cfg {
		out[k] = opt.Value
	}
	return out
}

func docString(doc domain.RawDoc, key string) string {
	s, _ := doc[key].(string)
	return s
}

func docTime(doc domain.RawDoc, key string) (time.Time, bool) {
	s, ok := doc[key].(string)
	if !ok || s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
