// Package supervisor observes and winds down the bridge's tracked tasks.
//
// Monitor polls the scheduler on a fixed interval and prints a diagnostic for each
// task that failed. Tasks do not propagate their errors to anyone, so this poll is
// the only place a failure becomes visible. The policy is report-only: the process
// keeps running and the task is not restarted, unless escalation is configured.
//
// Coordinator runs the shutdown sequence once:
//
//	Running ──> Stopping ──> Stopped
//
//  1. run finalization hooks, most recently registered first
//  2. cancel every tracked task with one combined request
//  3. wait for the tasks to settle, treating cancellation as the expected outcome
//  4. drain the queue, halt supervision, print the farewell line
package supervisor
