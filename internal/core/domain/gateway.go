package domain

import "context"

// RawDoc is an untyped index document: a JSON object as read from or written
// to the search cluster. Connector/SyncJob wrappers marshal to and from this
// shape so that fields neither type knows about survive a partial update
// (structural merge, never replace).
type RawDoc map[string]any

// QueryFilter is an opaque, gateway-specific filter expression. Concrete
// IndexGateway implementations interpret it (e.g. the in-memory gateway
// evaluates a predicate; a real cluster client would translate it to a
// query DSL). Both gateways in internal/gateway evaluate Predicate; the
// orchestrator writes its predicates inline.
type QueryFilter struct {
	// Index restricts the query to documents from a specific index, for
	// gateways that share one underlying collection across indices.
	Index string
	// Predicate is evaluated against each candidate document. A nil
	// Predicate matches everything.
	Predicate func(id string, doc RawDoc) bool
}

// DocStream yields documents one page at a time, restartable on transport
// error by the underlying implementation. Consumers must call Close.
type DocStream interface {
	// Next advances to the next document. Returns false when the stream is
	// exhausted or an error occurred (check Err).
	Next(ctx context.Context) bool
	// Doc returns the current document and its id.
	Doc() (id string, doc RawDoc)
	// Err returns the first error encountered, if any.
	Err() error
	// Close releases stream resources.
	Close() error
}

// IndexGateway is the thin abstraction over the search cluster: get/update/
// index/query/delete_by_query/refresh/count, giving at-most-one-in-flight-
// per-id write semantics. Wrappers (Connector, SyncJob) hold
// a reference to one and use it for every mutator.
type IndexGateway interface {
	Get(ctx context.Context, index, id string) (RawDoc, error)
	// Update merges patch into the stored document, retrying on optimistic
	// conflict up to retryOnConflict times before returning ErrConflictExhausted.
	Update(ctx context.Context, index, id string, patch RawDoc, retryOnConflict int) error
	// Index creates a new document, returning its server-assigned id.
	Index(ctx context.Context, index string, doc RawDoc) (string, error)
	// Query returns a stream of documents matching filter.
	Query(ctx context.Context, index string, filter QueryFilter) (DocStream, error)
	// DeleteByQuery deletes every document matching filter, returning the
	// count deleted.
	DeleteByQuery(ctx context.Context, index string, filter QueryFilter) (int, error)
	Refresh(ctx context.Context, index string) error
	Count(ctx context.Context, index string) (int, error)
}

// Index names for the two control-plane indices.
const (
	ConnectorsIndex = "connectors"
	SyncJobsIndex   = "sync-jobs"
)
