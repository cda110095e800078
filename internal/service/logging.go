package service

// Logging Standards for remindd
//
// This file defines standard field names so that every lifecycle event
// (create/deliver/reschedule/delete) carries the same structured fields.

// Standard Field Names
const (
	// Core identifiers
	LogFieldReminderID = "reminder_id"
	LogFieldScopeID    = "scope_id"
	LogFieldAuthorID   = "author_id"
	LogFieldTargetID   = "target_id"
	LogFieldActorID    = "actor_id"
	LogFieldHandle     = "proposal_handle"
	LogFieldPromptID   = "prompt_id"

	// Lifecycle fields
	LogFieldEvent   = "event"
	LogFieldOutcome = "outcome"
	LogFieldStatus  = "status"
	LogFieldDueAt   = "due_at"

	// Service and operation fields
	LogFieldComponent = "component"
	LogFieldOperation = "operation"

	// HTTP fields
	LogFieldRequestID = "request_id"
	LogFieldMethod    = "method"
	LogFieldURL       = "url"
	LogFieldRemoteIP  = "remote_ip"

	// Performance
	LogFieldDuration = "duration_ms"
	LogFieldCount    = "count"
)

// Standard outcome values for lifecycle events
const (
	OutcomeValueDelivered = "delivered"
	OutcomeValueFailed    = "failed"
	OutcomeValueCreated   = "created"
	OutcomeValueApplied   = "applied"
	OutcomeValueCanceled  = "canceled"
	OutcomeValueTimedOut  = "timed_out"
)
