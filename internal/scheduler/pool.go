package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/casualjim/stdinbridge/internal/queue"
)

// DefaultWorkers is the size of the offload pool when none is configured.
const DefaultWorkers = 4

// pool runs jobs with blocking semantics on a fixed set of goroutines.
type pool struct {
	jobs   *queue.Queue[func()]
	ctx    context.Context
	cancel context.CancelFunc
}

func newPool(size int) *pool {
	if size < 1 {
		size = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &pool{
		jobs:   queue.New[func()](),
		ctx:    ctx,
		cancel: cancel,
	}
	for range size {
		go p.work()
	}
	return p
}

func (p *pool) work() {
	for {
		job, err := p.jobs.Receive(p.ctx)
		if err != nil {
			return
		}
		job()
	}
}

func (p *pool) submit(job func()) {
	p.jobs.Push(job)
}

// close stops idle workers. Jobs already running are not interrupted; a worker
// stuck in a blocking read exits together with the process.
func (p *pool) close() {
	p.cancel()
	p.jobs.Drain()
}

// Offload runs fn on the scheduler's worker pool and returns a future for its result.
func Offload[T any](s *Scheduler, fn func() (T, error)) *Future[T] {
	fut := NewFuture[T]()
	s.pool.submit(func() {
		defer func() {
			if r := recover(); r != nil {
				fut.Error(fmt.Errorf("offloaded call: %w", &PanicError{Value: r, stack: debug.Stack()}))
			}
		}()
		v, err := fn()
		if err != nil {
			fut.Error(err)
			return
		}
		fut.Complete(v)
	})
	return fut
}
