// Package domain holds the connector-service control-plane model: the
// Connector and SyncJob document wrappers, the Filtering/Features/Pipeline
// value types, and the errors shared across the sync runtime.
package domain
