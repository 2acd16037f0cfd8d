package domain

// Status is the lifecycle state of a Connector. The zero value, StatusUnset,
// models a field absent from the stored document -- it is never a real state
// and callers must not treat it as equivalent to any other status.
type Status string

const (
	StatusUnset             Status = ""
	StatusCreated            Status = "created"
	StatusNeedsConfiguration Status = "needs_configuration"
	StatusConfigured         Status = "configured"
	StatusConnected          Status = "connected"
	StatusError              Status = "error"
)

// JobStatus is the lifecycle state of a SyncJob. StatusUnset-equivalent zero
// value is JobStatusUnset.
type JobStatus string

const (
	JobStatusUnset      JobStatus = ""
	JobStatusPending    JobStatus = "pending"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCanceling  JobStatus = "canceling"
	JobStatusCanceled   JobStatus = "canceled"
	JobStatusSuspended  JobStatus = "suspended"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusError      JobStatus = "error"
)

// Terminal reports whether this status is a terminal SyncJob state.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusError, JobStatusCanceled:
		return true
	default:
		return false
	}
}

// TriggerMethod identifies why a SyncJob was created.
type TriggerMethod string

const (
	TriggerMethodUnset     TriggerMethod = ""
	TriggerMethodOnDemand  TriggerMethod = "on_demand"
	TriggerMethodScheduled TriggerMethod = "scheduled"
)

// ValidationState is the outcome of validating a Filter's rules.
type ValidationState string

const (
	ValidationStateUnset   ValidationState = ""
	ValidationStateEdited  ValidationState = "edited"
	ValidationStateValid   ValidationState = "valid"
	ValidationStateInvalid ValidationState = "invalid"
)

// Package-level constants
const (
	// RetryOnConflict is the default number of optimistic-update retries.
	RetryOnConflict = 3

	// SyncDisabled is returned by Connector.NextSync when scheduling is off.
	SyncDisabled = -1

	// IdleJobsThreshold is how long a job may go without a heartbeat before
	// the idle reaper marks it errored.
	IdleJobsThreshold = 60 // seconds

	// JobNotFoundError is the last_sync_error text written when sync_done is
	// called with no job.
	JobNotFoundError = "Couldn't find the job"

	// UnknownError substitutes for a nil job error on a failed job.
	UnknownError = "unknown error"

	// FinishedSentinel marks end-of-stream for one pipeline producer.
	FinishedSentinel = "FINISHED"
)
