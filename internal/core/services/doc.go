// Package services implements the driving port interfaces, chiefly
// Orchestrator: the scheduling loop that drives Connector/SyncJob wrappers
// through a SourceAdapter's pipeline against an IndexGateway. Services are
// pure Go with no CGO or external network dependencies of their own.
package services
