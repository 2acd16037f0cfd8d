// Package connectors wires every SourceAdapter implementation (jira,
// filesystem) into a single driven.AdapterRegistry that also satisfies
// domain.ServiceRegistry, so Connector.Prepare can resolve a service_type
// without importing any adapter package directly.
package connectors
