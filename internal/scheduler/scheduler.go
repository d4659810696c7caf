package scheduler

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/alphadose/haxmap"
	"github.com/casualjim/stdinbridge/pkg/slogx"
	"github.com/casualjim/stdinbridge/pkg/uuidx"
	"github.com/fogfish/opts"
)

// Scheduler owns the execution of every tracked task and the offload pool.
type Scheduler struct {
	ctx     context.Context
	cancel  context.CancelFunc
	tasks   *haxmap.Map[string, *Task]
	pool    *pool
	workers int
}

// Workers sets the size of the offload pool. Values below 1 are raised to 1.
var Workers = opts.ForName[Scheduler, int]("workers")

// New creates a scheduler whose tasks are cancelled when ctx is.
func New(ctx context.Context, options ...opts.Option[Scheduler]) *Scheduler {
	s := &Scheduler{
		tasks:   haxmap.New[string, *Task](),
		workers: DefaultWorkers,
	}
	if err := opts.Apply(s, options); err != nil {
		panic(err)
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.pool = newPool(s.workers)
	return s
}

// Context returns the group context every task derives from.
func (s *Scheduler) Context() context.Context { return s.ctx }

// Spawn registers a task and starts it. Tasks spawned after CancelAll start
// already cancelled.
func (s *Scheduler) Spawn(name string, fn Func) *Task {
	id := uuidx.New()
	task := newTask(WithScheduler(s.ctx, s), id, name, fn)
	s.tasks.Set(id.String(), task)
	slog.Debug("spawned task", slogx.Task(name, id))
	go task.run()
	return task
}

// Tasks returns every tracked task in spawn order.
func (s *Scheduler) Tasks() []*Task {
	result := make([]*Task, 0, s.tasks.Len())
	s.tasks.ForEach(func(_ string, t *Task) bool {
		result = append(result, t)
		return true
	})
	// v7 identifiers are time ordered
	slices.SortFunc(result, func(a, b *Task) int {
		return strings.Compare(a.id.String(), b.id.String())
	})
	return result
}

// CancelAll requests cancellation of the whole task set with one call.
func (s *Scheduler) CancelAll() {
	s.cancel()
}

// Wait blocks until every tracked task settled or ctx is done.
func (s *Scheduler) Wait(ctx context.Context) error {
	for _, t := range s.Tasks() {
		if err := t.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close cancels all tasks and stops the offload pool.
func (s *Scheduler) Close() {
	s.cancel()
	s.pool.close()
}
