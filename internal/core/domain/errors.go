package domain

import "errors"

// Domain errors represent control-plane failures distinct from transport errors.
var (
	// ErrNotFound indicates a requested document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrServiceTypeNotSupported indicates the configured service_type has no
	// registered adapter.
	ErrServiceTypeNotSupported = errors.New("service type not supported")

	// ErrServiceTypeNotConfigured indicates prepare was called without a
	// service_type available from either the connector or the process config.
	ErrServiceTypeNotConfigured = errors.New("service type not configured")

	// ErrDataSourceError indicates the adapter could not be instantiated.
	ErrDataSourceError = errors.New("data source error")

	// ErrConnectorUpdateError indicates the prepare() persistence write failed.
	ErrConnectorUpdateError = errors.New("connector update error")

	// ErrInvalidFiltering indicates a sync job's filtering snapshot failed
	// validation and the job must be failed.
	ErrInvalidFiltering = errors.New("invalid filtering")

	// ErrConflictExhausted indicates an optimistic update ran out of retries.
	ErrConflictExhausted = errors.New("conflict exhausted")

	// ErrTransport indicates a gateway transport failure.
	ErrTransport = errors.New("transport error")

	// ErrInvalidQuery indicates a malformed gateway query.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrCancelled indicates a sync was cooperatively cancelled.
	ErrCancelled = errors.New("cancelled")

	// ErrRateLimited indicates a source adapter's upstream API rejected a
	// request with a rate-limit response after retries were exhausted.
	ErrRateLimited = errors.New("rate limited")
)
