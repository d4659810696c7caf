package scheduler

import "context"

type schedulerKey struct{}

// WithScheduler returns a context carrying s, so code running inside a task can
// offload blocking calls without holding a reference to the scheduler.
func WithScheduler(ctx context.Context, s *Scheduler) context.Context {
	return context.WithValue(ctx, schedulerKey{}, s)
}

// FromContext returns the scheduler carried by ctx.
func FromContext(ctx context.Context) (*Scheduler, bool) {
	s, ok := ctx.Value(schedulerKey{}).(*Scheduler)
	return s, ok && s != nil
}
