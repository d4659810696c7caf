package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/casualjim/stdinbridge/internal/queue"
	"github.com/casualjim/stdinbridge/internal/scheduler"
	"github.com/casualjim/stdinbridge/internal/signals"
	"github.com/casualjim/stdinbridge/messages"
	"github.com/casualjim/stdinbridge/pkg/slogx"
	"github.com/fogfish/opts"
	"github.com/zoobzio/capitan"
)

// DefaultShutdownTimeout bounds how long the coordinator waits for tasks to settle.
const DefaultShutdownTimeout = 10 * time.Second

// Farewell is printed once the shutdown sequence finished.
const Farewell = "Goodbye!"

// ShutdownState is the state of the shutdown sequence.
type ShutdownState string

const (
	StateRunning  ShutdownState = "RUNNING"
	StateStopping ShutdownState = "STOPPING"
	StateStopped  ShutdownState = "STOPPED"
)

// Hook is a finalization step run before tasks are cancelled.
type Hook func(context.Context) error

// Coordinator cancels and drains all outstanding work exactly once.
type Coordinator struct {
	sched   *scheduler.Scheduler
	queue   *queue.Queue[messages.Message]
	out     io.Writer
	timeout time.Duration
	halt    func()

	mu    sync.Mutex
	state ShutdownState
	hooks []Hook

	once sync.Once
	done chan struct{}
	err  error
}

var (
	// ShutdownTimeout bounds the wait for tasks to settle.
	ShutdownTimeout = opts.ForName[Coordinator, time.Duration]("timeout")
	// Halt is called after the tasks settled, to stop supervision that is not itself a tracked task.
	Halt = opts.ForName[Coordinator, func()]("halt")
)

// NewCoordinator creates a coordinator for the tasks of sched.
func NewCoordinator(sched *scheduler.Scheduler, q *queue.Queue[messages.Message], out io.Writer, options ...opts.Option[Coordinator]) (*Coordinator, error) {
	var err error
	if sched == nil {
		err = errors.Join(err, errors.New("scheduler is required"))
	}
	if q == nil {
		err = errors.Join(err, errors.New("queue is required"))
	}
	if out == nil {
		err = errors.Join(err, errors.New("output is required"))
	}
	if err != nil {
		return nil, err
	}

	c := &Coordinator{
		sched:   sched,
		queue:   q,
		out:     out,
		timeout: DefaultShutdownTimeout,
		state:   StateRunning,
		done:    make(chan struct{}),
	}
	if err := opts.Apply(c, options); err != nil {
		return nil, err
	}
	return c, nil
}

// OnShutdown registers a finalization hook.
func (c *Coordinator) OnShutdown(hook Hook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, hook)
}

// State returns the current state of the shutdown sequence.
func (c *Coordinator) State() ShutdownState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Done is closed when the shutdown sequence finished.
func (c *Coordinator) Done() <-chan struct{} { return c.done }

// Stop runs the shutdown sequence. Concurrent and repeated calls wait for the
// first one and return its result. Cancellation of ctx does not abort the
// sequence; the wait for tasks is bounded by the shutdown timeout instead.
func (c *Coordinator) Stop(ctx context.Context) error {
	c.once.Do(func() {
		defer close(c.done)
		c.err = c.stop(context.WithoutCancel(ctx))
	})
	return c.err
}

func (c *Coordinator) stop(ctx context.Context) error {
	start := time.Now()
	log := slog.Default().With(slogx.LoggerName("supervisor.coordinator"))

	c.mu.Lock()
	c.state = StateStopping
	hooks := c.hooks
	c.mu.Unlock()

	tasks := c.sched.Tasks()
	capitan.Emit(ctx, signals.ShutdownStarted, signals.FieldTaskCount.Field(len(tasks)))
	log.DebugContext(ctx, "shutting down", slog.Int("tasks", len(tasks)))

	var err error
	for i := len(hooks) - 1; i >= 0; i-- {
		if herr := hooks[i](ctx); herr != nil {
			log.WarnContext(ctx, "finalization hook failed", slogx.Error(herr))
			err = errors.Join(err, herr)
		}
	}

	c.sched.CancelAll()

	waitCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if werr := c.sched.Wait(waitCtx); werr != nil {
		for _, t := range c.sched.Tasks() {
			if !t.State().IsTerminal() {
				log.WarnContext(ctx, "task did not settle before the shutdown timeout", slogx.Task(t.Name(), t.ID()))
			}
		}
	}

	if pending := c.queue.Drain(); len(pending) > 0 {
		log.DebugContext(ctx, "discarded undelivered messages", slog.Int("count", len(pending)))
	}

	if c.halt != nil {
		c.halt()
	}
	c.sched.Close()

	fmt.Fprintln(c.out, Farewell)

	c.mu.Lock()
	c.state = StateStopped
	c.mu.Unlock()

	capitan.Emit(ctx, signals.ShutdownCompleted,
		signals.FieldTaskCount.Field(len(tasks)),
		signals.FieldDuration.Field(time.Since(start)),
	)
	return err
}
