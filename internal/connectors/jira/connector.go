// Package jira is the connectord SourceAdapter for Jira Cloud and Jira
// Server/Data Center, grounded line-for-line on connectors-python's
// JiraDataSource (original_source/connectors/sources/jira.py).
package jira

import (
	"context"
	"fmt"

	"github.com/custodia-labs/connectord/internal/core/domain"
	"github.com/custodia-labs/connectord/internal/core/ports/driven"
	"github.com/custodia-labs/connectord/internal/logger"
	"github.com/custodia-labs/connectord/internal/pipeline"
)

var _ driven.SourceAdapter = (*Connector)(nil)

// ServiceType is the service_type string connectord routes to this adapter.
const ServiceType = "jira"

// Connector is the Jira SourceAdapter.
type Connector struct {
	cfg    Config
	client *client
	sleeps *pipeline.CancellableSleeps
}

// New builds a Jira Connector from raw persisted configuration, matching
// driven.AdapterFactory's signature.
func New(ctx context.Context, rawConfig map[string]any) (driven.SourceAdapter, error) {
	cfg := configFromMap(rawConfig)
	sleeps := pipeline.NewCancellableSleeps()
	cl, err := newClient(cfg, sleeps)
	if err != nil {
		return nil, err
	}
	return &Connector{cfg: cfg, client: cl, sleeps: sleeps}, nil
}

// GetDefaultConfiguration returns the Jira adapter's configuration option
// descriptors.
func (c *Connector) GetDefaultConfiguration() map[string]domain.ConfigOption {
	return GetDefaultConfiguration()
}

// ValidateConfig checks that the connection fields required by the
// configured auth mode are present, mirroring jira.py's validate_config.
func (c *Connector) ValidateConfig() error {
	logger.Info("jira: validating configuration")

	var missing []string
	if c.cfg.HostURL == "" {
		missing = append(missing, "host_url")
	}
	if c.cfg.IsCloud {
		if c.cfg.ServiceAccountID == "" {
			missing = append(missing, "service_account_id")
		}
		if c.cfg.APIToken == "" {
			missing = append(missing, "api_token")
		}
	} else {
		if c.cfg.Username == "" {
			missing = append(missing, "username")
		}
		if c.cfg.Password == "" {
			missing = append(missing, "password")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: configured keys %v can't be empty", domain.ErrDataSourceError, missing)
	}
	if c.cfg.SSLEnabled && c.cfg.SSLCA == "" {
		return fmt.Errorf("%w: ssl certificate must be configured", domain.ErrDataSourceError)
	}
	if c.cfg.ConcurrentDownloads > MaxConcurrentDownloads {
		return fmt.Errorf("%w: concurrent downloads can't be set more than %d", domain.ErrDataSourceError, MaxConcurrentDownloads)
	}
	return nil
}

// Ping verifies the connection to Jira.
func (c *Connector) Ping(ctx context.Context) error {
	if err := c.client.ping(ctx); err != nil {
		return fmt.Errorf("jira: connectivity check failed: %w", err)
	}
	return nil
}

// TweakBulkOptions caps concurrent attachment downloads at the configured
// value, mirroring jira.py's tweak_bulk_options.
func (c *Connector) TweakBulkOptions(opts *driven.BulkOptions) {
	opts.MaxConcurrentDownloads = c.cfg.ConcurrentDownloads
}

// Close cancels any in-flight backoff sleeps. The underlying http.Client
// needs no explicit teardown.
func (c *Connector) Close() error {
	c.sleeps.CancelAll()
	return nil
}

// GetDocs fans out two producers -- projects and issues -- plus one more
// per scheduled attachment batch onto a single bounded MemQueue, and drains
// it into the returned channel, grounded on jira.py's get_docs/_grab_content.
// produceIssues registers an additional producer (queue.AddProducer) for
// every attachment batch it schedules, so the queue's producer count keeps
// pace with jira.py's self.tasks counter and the consumer only reports
// drained once every batch -- not just projects and issues -- has finished.
func (c *Connector) GetDocs(ctx context.Context, filter domain.TransformedFilter) (<-chan driven.DocRecord, error) {
	queue := pipeline.NewMemQueue(driven.DefaultBulkOptions().QueueMemSize)
	queue.AddProducer() // projects
	queue.AddProducer() // issues

	fetchers := pipeline.NewConcurrentTasks(ctx, MaxConcurrency)

	go c.produceProjects(ctx, queue)
	go c.produceIssues(ctx, queue, fetchers)

	out := make(chan driven.DocRecord)
	go func() {
		defer close(out)
		for {
			item, ok, err := queue.Get(ctx)
			if err != nil {
				logger.Warn("jira: get_docs aborted: %v", err)
				return
			}
			if !ok {
				break
			}
			rec, isRec := item.(driven.DocRecord)
			if !isRec {
				continue
			}
			select {
			case out <- rec:
			case <-ctx.Done():
				return
			}
		}
		if err := fetchers.Join(); err != nil {
			logger.Warn("jira: attachment fetchers returned error: %v", err)
		}
	}()
	return out, nil
}

func (c *Connector) produceProjects(ctx context.Context, queue *pipeline.MemQueue) {
	defer func() { _ = queue.Done(ctx) }()

	list, err := c.client.getJSONArray(ctx, pathProject)
	if err != nil {
		logger.Warn("jira: fetch projects failed: %v", err)
		return
	}
	for _, raw := range list {
		project, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		doc := driven.DocRecord{Doc: domain.RawDoc{
			"id":      fmt.Sprintf("%v-%v", project["name"], project["id"]),
			"type":    "Project",
			"project": project,
		}}
		if err := queue.Put(ctx, doc, estimateSize(doc.Doc)); err != nil {
			return
		}
	}
}

func (c *Connector) produceIssues(ctx context.Context, queue *pipeline.MemQueue, fetchers *pipeline.ConcurrentTasks) {
	defer func() { _ = queue.Done(ctx) }()

	startAt := 0
	for {
		page, err := c.client.getJSON(ctx, fmt.Sprintf(pathIssues, FetchSize, startAt))
		if err != nil {
			logger.Warn("jira: search issues failed: %v", err)
			return
		}
		total := asInt(page["total"], 0)
		issues, _ := page["issues"].([]any)

		for _, raw := range issues {
			issueRef, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			key, _ := issueRef["key"].(string)
			issue, err := c.client.getJSON(ctx, fmt.Sprintf(pathIssueData, key))
			if err != nil {
				logger.Warn("jira: fetch issue %s failed: %v", key, err)
				continue
			}
			fields, _ := issue["fields"].(map[string]any)
			projectName := ""
			if project, ok := fields["project"].(map[string]any); ok {
				projectName, _ = project["name"].(string)
			}
			issueType := ""
			if it, ok := fields["issuetype"].(map[string]any); ok {
				issueType, _ = it["name"].(string)
			}
			doc := driven.DocRecord{Doc: domain.RawDoc{
				"id":    fmt.Sprintf("%s-%s", projectName, key),
				"type":  issueType,
				"issue": fields,
			}}
			if err := queue.Put(ctx, doc, estimateSize(doc.Doc)); err != nil {
				return
			}

			attachments, _ := fields["attachment"].([]any)
			if len(attachments) > 0 {
				queue.AddProducer() // this attachment batch
				fetchers.Put(func(ctx context.Context) error {
					return c.grabAttachments(ctx, queue, attachments, key)
				})
			}
		}

		if startAt+FetchSize > total || total <= FetchSize {
			return
		}
		startAt += FetchSize
	}
}

// grabAttachments enqueues one DocRecord per attachment with a lazy
// Download func, then signals its own completion, mirroring jira.py's
// _grab_content/_get_attachments pairing. Each batch is its own registered
// producer (queue.AddProducer in produceIssues), so its FINISHED sentinel
// is counted separately from the projects and issues producers.
func (c *Connector) grabAttachments(ctx context.Context, queue *pipeline.MemQueue, attachments []any, issueKey string) error {
	defer func() { _ = queue.Done(ctx) }()

	for _, raw := range attachments {
		attachment, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		id, _ := attachment["id"].(string)
		filename, _ := attachment["filename"].(string)
		size := asInt(attachment["size"], 0)
		created, _ := attachment["created"].(string)

		doc := driven.DocRecord{
			Doc: domain.RawDoc{
				"id":         fmt.Sprintf("%s-%s", issueKey, id),
				"title":      filename,
				"type":       "Attachment",
				"issue":      issueKey,
				"created_at": created,
				"size_bytes": size,
			},
		}
		if c.cfg.EnableContentExtraction && size > 0 && size <= FileSizeLimit {
			attachmentID, attachmentName := id, filename
			doc.Download = func(ctx context.Context) (domain.RawDoc, error) {
				body, err := c.client.downloadAttachment(ctx, attachmentID, attachmentName)
				if err != nil {
					return nil, err
				}
				return domain.RawDoc{
					"id":         fmt.Sprintf("%s-%s", issueKey, attachmentID),
					"created_at": created,
					"body":       body,
				}, nil
			}
		}
		if err := queue.Put(ctx, doc, estimateSize(doc.Doc)+size); err != nil {
			return err
		}
	}
	return nil
}

func estimateSize(doc domain.RawDoc) int {
	size := 0
	for k, v := range doc {
		size += len(k) + 32
		if s, ok := v.(string); ok {
			size += len(s)
		}
	}
	if size == 0 {
		return 256
	}
	return size
}
