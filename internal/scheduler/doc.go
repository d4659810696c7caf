// Package scheduler runs the bridge's concurrent work: tracked tasks with an
// observable lifecycle, and a worker pool for calls with blocking semantics.
//
// Design decisions:
//   - Explicit context object: a Scheduler is created at startup and handed to
//     every component; nothing looks it up globally
//   - Task registry: every spawned task is recorded so it can be inspected by the
//     exception monitor and cancelled by the shutdown coordinator
//   - Combined cancellation: all tasks derive from one group context, so CancelAll
//     reaches the whole set with a single request
//   - Blocking calls are never assumed cheap: Offload runs them on the pool and
//     returns a Future that is awaited with a context
//   - Cancellation is an outcome, not a failure: a task that stops because its
//     context was cancelled ends in Cancelled, never Failed
//
// Task lifecycle:
//
//	Pending ──> Running ──┬──> Completed
//	                      ├──> Failed
//	                      └──> Cancelled
//
// Example usage:
//
//	sched := scheduler.New(ctx, scheduler.Workers(4))
//	defer sched.Close()
//
//	task := sched.Spawn("input", func(ctx context.Context) error {
//	    line, err := scheduler.Offload(sched, readLine).Await(ctx)
//	    ...
//	})
//	<-task.Done()
package scheduler
