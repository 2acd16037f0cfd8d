// Package pipeline is the bounded-memory producer/consumer runtime a
// SourceAdapter's GetDocs stage runs under: a byte-bounded queue, a
// fixed-capacity worker pool and a cooperative sleep/cancel group.
package pipeline
