package domain

import (
	"context"
	"fmt"
)

// SyncJob is a typed view over a raw sync-jobs-index document. It snapshots
// its parent Connector's service_type, configuration and filtering at
// creation time so a run is unaffected by configuration
// changes made while it executes.
type SyncJob struct {
	gw  IndexGateway
	id  string
	doc RawDoc
}

// NewSyncJob wraps a raw document loaded from the sync-jobs index.
func NewSyncJob(gw IndexGateway, id string, doc RawDoc) *SyncJob {
	if doc == nil {
		doc = RawDoc{}
	}
	return &SyncJob{gw: gw, id: id, doc: doc}
}

// LoadSyncJob fetches and wraps a sync job by id.
func LoadSyncJob(ctx context.Context, gw IndexGateway, id string) (*SyncJob, error) {
	doc, err := gw.Get(ctx, SyncJobsIndex, id)
	if err != nil {
		return nil, err
	}
	return NewSyncJob(gw, id, doc), nil
}

// CreateSyncJob snapshots connector onto a new pending SyncJob document and
// indexes it, returning the wrapped job.
func CreateSyncJob(ctx context.Context, gw IndexGateway, connector *Connector, trigger TriggerMethod) (*SyncJob, error) {
	filtering := connector.Filtering().GetActiveFilter().TransformFiltering()
	doc := RawDoc{
		"connector_id":   connector.ID(),
		"service_type":   connector.ServiceType(),
		"index_name":     connector.IndexName(),
		"language":       connector.Language(),
		"configuration":  configurationToRaw(connector.Configuration()),
		"pipeline":       map[string]any(connector.Pipeline()),
		"filtering":      map[string]any{"advanced_snippet": filtering.AdvancedSnippet, "rules": filtering.Rules},
		"trigger_method": string(trigger),
		"status":         string(JobStatusPending),
		"worker_hostname": nil,
		"error":           nil,
	}
	id, err := gw.Index(ctx, SyncJobsIndex, doc)
	if err != nil {
		return nil, err
	}
	doc["id"] = id
	return NewSyncJob(gw, id, doc), nil
}

// ID returns the sync job's document id.
func (j *SyncJob) ID() string { return j.id }

// ConnectorID returns the id of the connector this job was created for.
func (j *SyncJob) ConnectorID() string { return getString(j.doc, "connector_id") }

// ServiceType returns the snapshotted adapter type.
func (j *SyncJob) ServiceType() string { return getString(j.doc, "service_type") }

// Status returns the job's lifecycle status.
func (j *SyncJob) Status() JobStatus { return JobStatus(getString(j.doc, "status")) }

// TriggerMethod returns why this job was created.
func (j *SyncJob) TriggerMethod() TriggerMethod { return TriggerMethod(getString(j.doc, "trigger_method")) }

// Error returns the job's recorded error message, or "".
func (j *SyncJob) Error() string { return getString(j.doc, "error") }

// Configuration returns the snapshotted configuration this job runs with.
func (j *SyncJob) Configuration() Configuration {
	raw, _ := j.doc["configuration"].(map[string]any)
	cfg := Configuration{}
	for k, v := range raw {
		if m, ok := v.(map[string]any); ok {
			cfg[k] = ConfigOption{Key: k, Value: m["value"], Label: getString(m, "label"), Type: ConfigValueType(getString(m, "type"))}
		}
	}
	return cfg
}

// Filtering returns the snapshotted filter this job runs with.
func (j *SyncJob) Filtering() TransformedFilter {
	m, _ := j.doc["filtering"].(map[string]any)
	tf := TransformedFilter{AdvancedSnippet: map[string]any{}, Rules: []map[string]any{}}
	if snippet, ok := m["advanced_snippet"].(map[string]any); ok {
		tf.AdvancedSnippet = snippet
	}
	if rules, ok := m["rules"].([]any); ok {
		for _, r := range rules {
			if rm, ok := r.(map[string]any); ok {
				tf.Rules = append(tf.Rules, rm)
			}
		}
	}
	return tf
}

// Pipeline returns the snapshotted pipeline flags this job runs with.
func (j *SyncJob) Pipeline() Pipeline {
	raw, _ := j.doc["pipeline"].(map[string]any)
	return NewPipeline(raw)
}

// IndexedDocumentCount returns the running count of documents indexed.
func (j *SyncJob) IndexedDocumentCount() int { return getInt(j.doc, "indexed_document_count") }

// DeletedDocumentCount returns the running count of documents deleted.
func (j *SyncJob) DeletedDocumentCount() int { return getInt(j.doc, "deleted_document_count") }

// Terminated reports whether the job has reached a terminal status.
func (j *SyncJob) Terminated() bool { return j.Status().Terminal() }

// ValidateFiltering re-runs validator against this job's snapshotted filter
// and reports ErrInvalidFiltering unless the result is exactly valid.
func (j *SyncJob) ValidateFiltering(ctx context.Context, validator FilterValidator) error {
	snapshot := j.Filtering()
	filter := Filter{AdvancedSnippet: snapshot.AdvancedSnippet, Rules: snapshot.Rules}

	result, err := validator.ValidateFiltering(ctx, filter)
	if err != nil {
		return err
	}
	if result.State != ValidationStateValid {
		return fmt.Errorf("filtering in state %s, errors: %v: %w", result.State, result.Errors, ErrInvalidFiltering)
	}
	return nil
}

// Claim transitions a pending job to in_progress, recording the claiming
// worker.
func (j *SyncJob) Claim(ctx context.Context, workerHostname string) error {
	return j.update(ctx, RawDoc{
		"status":          string(JobStatusInProgress),
		"worker_hostname": workerHostname,
		"started_at":      isoUTC(nowFunc()),
		"last_seen":       isoUTC(nowFunc()),
	})
}

// Heartbeat records liveness for an in_progress job.
func (j *SyncJob) Heartbeat(ctx context.Context) error {
	return j.update(ctx, RawDoc{"last_seen": isoUTC(nowFunc())})
}

// UpdateCounts records progress counters without changing status.
func (j *SyncJob) UpdateCounts(ctx context.Context, indexed, deleted int) error {
	return j.update(ctx, RawDoc{
		"indexed_document_count": indexed,
		"deleted_document_count": deleted,
		"last_seen":              isoUTC(nowFunc()),
	})
}

// Done terminates the job successfully.
func (j *SyncJob) Done(ctx context.Context, indexed, deleted int) error {
	return j.terminate(ctx, JobStatusCompleted, "", indexed, deleted)
}

// Fail terminates the job with an error.
func (j *SyncJob) Fail(ctx context.Context, cause error, indexed, deleted int) error {
	msg := UnknownError
	if cause != nil {
		msg = cause.Error()
	}
	return j.terminate(ctx, JobStatusError, msg, indexed, deleted)
}

// Cancel terminates the job as canceled.
func (j *SyncJob) Cancel(ctx context.Context, indexed, deleted int) error {
	return j.terminate(ctx, JobStatusCanceled, "", indexed, deleted)
}

// Suspend transitions an in_progress job to suspended without marking it
// terminal, preserving counts so a future Claim can resume it.
func (j *SyncJob) Suspend(ctx context.Context, indexed, deleted int) error {
	return j.update(ctx, RawDoc{
		"status":                 string(JobStatusSuspended),
		"indexed_document_count": indexed,
		"deleted_document_count": deleted,
	})
}

// RequestCancel moves an in_progress job to canceling, the cooperative
// signal a running pipeline observes to stop early.
func (j *SyncJob) RequestCancel(ctx context.Context) error {
	return j.update(ctx, RawDoc{"status": string(JobStatusCanceling)})
}

func (j *SyncJob) terminate(ctx context.Context, status JobStatus, errMsg string, indexed, deleted int) error {
	patch := RawDoc{
		"status":                 string(status),
		"error":                  nullableString(errMsg),
		"indexed_document_count": indexed,
		"deleted_document_count": deleted,
		"completed_at":           isoUTC(nowFunc()),
		"last_seen":              isoUTC(nowFunc()),
	}
	if status == JobStatusCanceled {
		patch["canceled_at"] = isoUTC(nowFunc())
	}
	if err := j.update(ctx, patch); err != nil {
		return fmt.Errorf("terminate %s: %w", j.id, err)
	}
	return j.reload(ctx)
}

func (j *SyncJob) update(ctx context.Context, patch RawDoc) error {
	return j.gw.Update(ctx, SyncJobsIndex, j.id, patch, RetryOnConflict)
}

func (j *SyncJob) reload(ctx context.Context) error {
	doc, err := j.gw.Get(ctx, SyncJobsIndex, j.id)
	if err != nil {
		return err
	}
	j.doc = doc
	return nil
}
