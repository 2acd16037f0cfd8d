package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Connector is a typed view over a raw connectors-index document. It owns a
// back-reference to the IndexGateway it was loaded from so that every mutator
// is a partial update sent straight through the gateway.
type Connector struct {
	gw    IndexGateway
	id    string
	doc   RawDoc
}

// NewConnector wraps a raw document loaded from the connectors index.
func NewConnector(gw IndexGateway, id string, doc RawDoc) *Connector {
	if doc == nil {
		doc = RawDoc{}
	}
	return &Connector{gw: gw, id: id, doc: doc}
}

// LoadConnector fetches and wraps a connector by id.
func LoadConnector(ctx context.Context, gw IndexGateway, id string) (*Connector, error) {
	doc, err := gw.Get(ctx, ConnectorsIndex, id)
	if err != nil {
		return nil, err
	}
	return NewConnector(gw, id, doc), nil
}

// ID returns the connector's document id.
func (c *Connector) ID() string { return c.id }

// ServiceType returns the configured adapter type, or "" if unset.
func (c *Connector) ServiceType() string { return getString(c.doc, "service_type") }

// IsNative reports whether this connector is operated in-process.
func (c *Connector) IsNative() bool { return getBool(c.doc, "is_native") }

// Status returns the connector's lifecycle status.
func (c *Connector) Status() Status { return Status(getString(c.doc, "status")) }

// Error returns the last recorded error message, or "".
func (c *Connector) Error() string { return getString(c.doc, "error") }

// SyncNow reports the one-shot immediate-sync override.
func (c *Connector) SyncNow() bool { return getBool(c.doc, "sync_now") }

// LastSeen returns the last heartbeat time, or nil if never heartbeat.
func (c *Connector) LastSeen() *time.Time { return getTime(c.doc, "last_seen") }

// LastSyncStatus returns the status of the most recently completed sync.
func (c *Connector) LastSyncStatus() JobStatus { return JobStatus(getString(c.doc, "last_sync_status")) }

// LastSyncError returns the error from the most recently completed sync.
func (c *Connector) LastSyncError() string { return getString(c.doc, "last_sync_error") }

// IndexName returns the index this connector's documents are written to.
func (c *Connector) IndexName() string { return getString(c.doc, "index_name") }

// Language returns the configured content language.
func (c *Connector) Language() string { return getString(c.doc, "language") }

// Scheduling returns the connector's cron-like schedule.
func (c *Connector) Scheduling() Scheduling {
	m, _ := c.doc["scheduling"].(map[string]any)
	return Scheduling{
		Enabled:  getBool(m, "enabled"),
		Interval: getString(m, "interval"),
	}
}

// Configuration returns the connector's option descriptors.
func (c *Connector) Configuration() Configuration {
	raw, _ := c.doc["configuration"].(map[string]any)
	cfg := Configuration{}
	for k, v := range raw {
		if m, ok := v.(map[string]any); ok {
			cfg[k] = ConfigOption{
				Key:   k,
				Value: m["value"],
				Label: getString(m, "label"),
				Type:  ConfigValueType(getString(m, "type")),
			}
		}
	}
	return cfg
}

// Filtering returns the connector's ordered rule bundles.
func (c *Connector) Filtering() Filtering {
	raw, _ := c.doc["filtering"].([]any)
	out := make(Filtering, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, FilterBundle{
			Domain: getString(m, "domain"),
			Draft:  parseFilter(m["draft"]),
			Active: parseFilter(m["active"]),
		})
	}
	return out
}

// Pipeline returns the connector's post-processing flags, merged over
// defaults.
func (c *Connector) Pipeline() Pipeline {
	raw, _ := c.doc["pipeline"].(map[string]any)
	return NewPipeline(raw)
}

// Features returns the connector's nested feature-flag mapping.
func (c *Connector) Features() Features {
	raw, _ := c.doc["features"].(map[string]any)
	return Features(raw)
}

// LastIndexedDocumentCount returns the document count from the last
// terminated sync.
func (c *Connector) LastIndexedDocumentCount() int { return getInt(c.doc, "last_indexed_document_count") }

// LastDeletedDocumentCount returns the deleted-document count from the last
// terminated sync.
func (c *Connector) LastDeletedDocumentCount() int { return getInt(c.doc, "last_deleted_document_count") }

// Heartbeat writes last_seen = now if it is null or older than interval
// seconds; otherwise it is a no-op.
func (c *Connector) Heartbeat(ctx context.Context, intervalSeconds int) error {
	last := c.LastSeen()
	if last != nil && nowFunc().Sub(*last).Seconds() <= float64(intervalSeconds) {
		return nil
	}
	return c.update(ctx, RawDoc{"last_seen": isoUTC(nowFunc())})
}

// NextSync returns seconds-until-next-sync: 0 if sync_now is set (which
// supersedes a disabled schedule), SyncDisabled if scheduling is off,
// otherwise the cron-computed delay.
func (c *Connector) NextSync() int {
	if c.SyncNow() {
		return 0
	}
	sched := c.Scheduling()
	if !sched.Enabled {
		return SyncDisabled
	}
	return nextRun(sched.Interval)
}

// ResetSyncNowFlag clears the one-shot sync_now override.
func (c *Connector) ResetSyncNowFlag(ctx context.Context) error {
	return c.update(ctx, RawDoc{"sync_now": false})
}

// SyncStarts marks the connector as actively syncing.
func (c *Connector) SyncStarts(ctx context.Context) error {
	return c.update(ctx, RawDoc{
		"last_sync_status": string(JobStatusInProgress),
		"last_sync_error":  nil,
		"status":           string(StatusConnected),
	})
}

// MarkError transitions the connector to the error status with msg recorded.
func (c *Connector) MarkError(ctx context.Context, msg string) error {
	return c.update(ctx, RawDoc{
		"status": string(StatusError),
		"error":  msg,
	})
}

// SyncDone folds a completed SyncJob's outcome back onto the connector. job
// may be nil if the job could not be found.
func (c *Connector) SyncDone(ctx context.Context, job *SyncJob) error {
	var jobStatus JobStatus
	var jobError string
	var terminal bool
	var indexed, deleted int

	if job == nil {
		jobStatus = JobStatusError
		jobError = JobNotFoundError
	} else {
		jobStatus = job.Status()
		jobError = job.Error()
		terminal = job.Terminated()
		indexed = job.IndexedDocumentCount()
		deleted = job.DeletedDocumentCount()
	}
	if jobError == "" && jobStatus == JobStatusError {
		jobError = UnknownError
	}

	connectorStatus := StatusConnected
	if jobStatus == JobStatusError {
		connectorStatus = StatusError
	}

	patch := RawDoc{
		"last_sync_status": string(jobStatus),
		"last_synced":      isoUTC(nowFunc()),
		"last_sync_error":  nullableString(jobError),
		"status":           string(connectorStatus),
		"error":            nullableString(jobError),
	}
	if job != nil && terminal {
		patch["last_indexed_document_count"] = indexed
		patch["last_deleted_document_count"] = deleted
	}
	return c.update(ctx, patch)
}

// ServiceRegistry resolves a service_type to an adapter's default
// configuration descriptor. Implemented by internal/connectors.Registry.
type ServiceRegistry interface {
	// DefaultConfiguration returns the default configuration descriptor for
	// serviceType, or (nil, false) if unknown.
	DefaultConfiguration(serviceType string) (map[string]ConfigOption, bool)
}

// PrepareConfig is the process-level configuration consulted by Prepare.
type PrepareConfig struct {
	ConnectorID string
	ServiceType string
}

// Prepare populates service_type and a default configuration the first time
// the connector is seen It is a no-op if cfg does not
// target this connector, or if the connector is already configured.
func (c *Connector) Prepare(ctx context.Context, cfg PrepareConfig, registry ServiceRegistry) error {
	if c.id != cfg.ConnectorID {
		return nil
	}
	if c.ServiceType() != "" && !c.Configuration().IsEmpty() {
		return nil
	}

	patch := RawDoc{}
	serviceType := c.ServiceType()
	if serviceType == "" {
		if cfg.ServiceType == "" {
			return fmt.Errorf("connector %s: %w", c.id, ErrServiceTypeNotConfigured)
		}
		serviceType = cfg.ServiceType
		patch["service_type"] = serviceType
	}

	if c.Configuration().IsEmpty() {
		defaults, ok := registry.DefaultConfiguration(serviceType)
		if !ok {
			return fmt.Errorf("%s: %w", serviceType, ErrServiceTypeNotSupported)
		}
		if defaults == nil {
			return fmt.Errorf("instantiate %s: %w", serviceType, ErrDataSourceError)
		}
		patch["configuration"] = configurationToRaw(defaults)
		patch["status"] = string(StatusNeedsConfiguration)
	}

	if err := c.update(ctx, patch); err != nil {
		return fmt.Errorf("%s: %w", err, ErrConnectorUpdateError)
	}
	return c.reload(ctx)
}

// ValidateFiltering re-validates the default-domain draft filter if it is in
// state "edited", promoting it to active on a valid verdict.
func (c *Connector) ValidateFiltering(ctx context.Context, validator FilterValidator) error {
	draft := c.Filtering().GetDraftFilter()
	if !draft.HasValidationState(ValidationStateEdited) {
		return nil
	}

	result, err := validator.ValidateFiltering(ctx, draft)
	if err != nil {
		return err
	}

	bundles := c.Filtering()
	updated := make([]any, 0, len(bundles))
	for _, bundle := range bundles {
		entry := map[string]any{
			"domain": bundle.Domain,
			"draft":  filterToRaw(bundle.Draft),
			"active": filterToRaw(bundle.Active),
		}
		if bundle.Domain == DefaultDomain {
			draftRaw := filterToRaw(bundle.Draft)
			draftRaw["validation"] = map[string]any{
				"state":  string(result.State),
				"errors": result.Errors,
			}
			entry["draft"] = draftRaw
			if result.State == ValidationStateValid {
				entry["active"] = draftRaw
			}
		}
		updated = append(updated, entry)
	}

	if err := c.update(ctx, RawDoc{"filtering": updated}); err != nil {
		return err
	}
	return c.reload(ctx)
}

func (c *Connector) update(ctx context.Context, patch RawDoc) error {
	return c.gw.Update(ctx, ConnectorsIndex, c.id, patch, RetryOnConflict)
}

func (c *Connector) reload(ctx context.Context) error {
	doc, err := c.gw.Get(ctx, ConnectorsIndex, c.id)
	if err != nil {
		return err
	}
	c.doc = doc
	return nil
}

// nextRun computes seconds until the next firing of a standard 5-field
// cron-like interval expression, relative to now. Returns 0 on a parse
// error so a malformed schedule degrades to "sync immediately" rather than
// silently disabling sync.
func nextRun(expr string) int {
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return 0
	}
	now := nowFunc()
	next := schedule.Next(now)
	delay := next.Sub(now).Seconds()
	if delay < 0 {
		return 0
	}
	return int(delay)
}
