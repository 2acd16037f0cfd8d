// Package gateway implements domain.IndexGateway: a memory-backed variant
// for tests and single-process deployments, and a modernc.org/sqlite-backed
// variant for durable single-node operation. Both give every write
// at-most-one-in-flight-per-id optimistic concurrency.
package gateway
