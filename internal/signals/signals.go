// Package signals declares the lifecycle events emitted by the bridge.
// Signals follow the pattern: stdinbridge.<entity>.<event>.
package signals

import "github.com/zoobzio/capitan"

// Task lifecycle signals.
var (
	TaskStarted = capitan.NewSignal(
		"stdinbridge.task.started",
		"Tracked task began running",
	)
	TaskCompleted = capitan.NewSignal(
		"stdinbridge.task.completed",
		"Tracked task returned without error",
	)
	TaskFailed = capitan.NewSignal(
		"stdinbridge.task.failed",
		"Tracked task returned an error or panicked",
	)
	TaskCancelled = capitan.NewSignal(
		"stdinbridge.task.cancelled",
		"Tracked task stopped because its context was cancelled",
	)
	FailureReported = capitan.NewSignal(
		"stdinbridge.failure.reported",
		"Exception monitor surfaced a task failure",
	)
)

// Shutdown signals.
var (
	ShutdownStarted = capitan.NewSignal(
		"stdinbridge.shutdown.started",
		"Coordinator began cancelling tracked tasks",
	)
	ShutdownCompleted = capitan.NewSignal(
		"stdinbridge.shutdown.completed",
		"All tracked tasks settled and the scheduler stopped",
	)
)

// Protocol signals.
var (
	ProtocolViolation = capitan.NewSignal(
		"stdinbridge.protocol.violation",
		"Output sink rejected a malformed message",
	)
)

// Field keys for event data.
var (
	FieldTaskID      = capitan.NewStringKey("task_id")
	FieldTaskName    = capitan.NewStringKey("task_name")
	FieldTaskCount   = capitan.NewIntKey("task_count")
	FieldMessageType = capitan.NewStringKey("message_type")
	FieldDuration    = capitan.NewDurationKey("duration")
	FieldError       = capitan.NewErrorKey("error")
)
