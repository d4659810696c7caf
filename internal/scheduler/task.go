package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/casualjim/stdinbridge/internal/signals"
	"github.com/casualjim/stdinbridge/pkg/slogx"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/zoobzio/capitan"
)

// Func is the body of a tracked task.
type Func func(ctx context.Context) error

// Task is a tracked unit of concurrent work. The scheduler owns its execution;
// everything else holds it only to observe or cancel it.
type Task struct {
	id     uuid.UUID
	name   string
	fn     Func
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu    sync.Mutex
	state State
	err   *TaskError
}

func newTask(ctx context.Context, id uuid.UUID, name string, fn Func) *Task {
	tctx, cancel := context.WithCancel(ctx)
	return &Task{
		id:     id,
		name:   name,
		fn:     fn,
		ctx:    tctx,
		cancel: cancel,
		done:   make(chan struct{}),
		state:  Pending,
	}
}

func (t *Task) ID() uuid.UUID { return t.id }

func (t *Task) Name() string { return t.name }

// State returns the current lifecycle state.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Err returns the captured failure when the task ended in Failed, nil otherwise.
func (t *Task) Err() *TaskError {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Done is closed once the task reached a terminal state.
func (t *Task) Done() <-chan struct{} { return t.done }

// Cancel requests cancellation of this task only.
func (t *Task) Cancel() { t.cancel() }

// Wait blocks until the task settles or ctx is done.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Task) transition(from, to State) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != from {
		return transitionError(t.name, from, t.state)
	}
	if !isAllowedTransition(from, to) {
		return transitionError(t.name, from, to)
	}
	t.state = to
	return nil
}

func (t *Task) run() {
	defer close(t.done)
	defer t.cancel()

	if err := t.ctx.Err(); err != nil {
		_ = t.transition(Pending, Cancelled)
		t.emit(signals.TaskCancelled, 0, nil)
		return
	}
	if err := t.transition(Pending, Running); err != nil {
		slog.Error("task failed to start", slogx.Task(t.name, t.id), slogx.Error(err))
		return
	}
	t.emit(signals.TaskStarted, 0, nil)

	start := time.Now()
	err := t.call()
	elapsed := time.Since(start)

	switch {
	case err == nil:
		_ = t.transition(Running, Completed)
		t.emit(signals.TaskCompleted, elapsed, nil)
	case t.isCancellation(err):
		_ = t.transition(Running, Cancelled)
		t.emit(signals.TaskCancelled, elapsed, nil)
	default:
		t.mu.Lock()
		t.err = &TaskError{
			TaskID: t.id,
			Name:   t.name,
			Err:    err,
			Stack:  stackOf(err),
			At:     strfmt.DateTime(time.Now()),
		}
		t.mu.Unlock()
		_ = t.transition(Running, Failed)
		t.emit(signals.TaskFailed, elapsed, err)
	}
}

func (t *Task) call() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, stack: debug.Stack()}
		}
	}()
	return t.fn(t.ctx)
}

// isCancellation treats every returned error as a cancellation outcome once the
// task context is done, whatever the function wrapped. Panics stay failures.
func (t *Task) isCancellation(err error) bool {
	var perr *PanicError
	if errors.As(err, &perr) {
		return false
	}
	return errors.Is(err, context.Canceled) || t.ctx.Err() != nil
}

func (t *Task) emit(signal capitan.Signal, elapsed time.Duration, err error) {
	// the task context is usually cancelled by now
	ctx := context.WithoutCancel(t.ctx)
	id := signals.FieldTaskID.Field(t.id.String())
	name := signals.FieldTaskName.Field(t.name)
	duration := signals.FieldDuration.Field(elapsed)
	if err != nil {
		capitan.Error(ctx, signal, id, name, duration, signals.FieldError.Field(err))
		return
	}
	capitan.Emit(ctx, signal, id, name, duration)
}
