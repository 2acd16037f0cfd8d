package driving

import "context"

// Orchestrator is the scheduler/tick-loop port: it enumerates
// supported connectors once per tick, heartbeats them, claims or creates due
// sync jobs, drives each job's pipeline and reaps orphaned/idle jobs.
type Orchestrator interface {
	// Run blocks ticking until ctx is cancelled.
	Run(ctx context.Context) error

	// RunOnce executes a single tick synchronously; Run calls it once per
	// tick, and tests call it directly.
	RunOnce(ctx context.Context) error
}
