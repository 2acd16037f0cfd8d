package driven

import (
	"context"

	"github.com/custodia-labs/connectord/internal/core/domain"
)

// DownloadFunc lazily fetches a document's binary attachment. Adapters
// attach one to a DocRecord instead of inlining the bytes so the pipeline
// can fan attachment downloads out across a bounded worker pool.
type DownloadFunc func(ctx context.Context) (domain.RawDoc, error)

// DocRecord is one item a SourceAdapter emits from GetDocs: the document
// body plus an optional lazy attachment download.
type DocRecord struct {
	Doc      domain.RawDoc
	Download DownloadFunc
}

// SourceAdapter is the contract every connector type implements, grounded on connectors-python's BaseDataSource / jira.py.
type SourceAdapter interface {
	// GetDefaultConfiguration returns this adapter's configuration option
	// descriptors, used to seed a newly prepared Connector.
	GetDefaultConfiguration() map[string]domain.ConfigOption

	// ValidateConfig checks the adapter's configured connection parameters
	// for internal consistency, without making a network call.
	ValidateConfig() error

	// Ping performs the lightweight connectivity/auth check a Connector's
	// status reflects: nil on success.
	Ping(ctx context.Context) error

	// GetDocs streams every document currently visible to the configured
	// credentials, honouring filter. The returned channel is closed when
	// the adapter has nothing further to emit or ctx is cancelled.
	GetDocs(ctx context.Context, filter domain.TransformedFilter) (<-chan DocRecord, error)

	// TweakBulkOptions adjusts default bulk-indexing options (queue size,
	// concurrency) to this adapter's characteristics, e.g. a high-latency
	// API lowering concurrency to respect a rate limit.
	TweakBulkOptions(opts *BulkOptions)

	// Close releases adapter resources (HTTP clients, file handles).
	Close() error
}

// BulkOptions are the pipeline tunables a SourceAdapter may tweak for
// itself.
type BulkOptions struct {
	QueueMemSize int
	MaxConcurrency int
	MaxConcurrentDownloads int
}

// DefaultBulkOptions mirrors jira.py's module-level constants.
func DefaultBulkOptions() BulkOptions {
	return BulkOptions{
		QueueMemSize:           5 * 1024 * 1024,
		MaxConcurrency:         5,
		MaxConcurrentDownloads: 50,
	}
}
