package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitDone(t *testing.T, task *Task) {
	t.Helper()
	select {
	case <-task.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for task %s", task.Name())
	}
}

func TestTaskLifecycle(t *testing.T) {
	t.Run("completes", func(t *testing.T) {
		s := New(context.Background())
		defer s.Close()

		task := s.Spawn("ok", func(context.Context) error { return nil })
		waitDone(t, task)
		assert.Equal(t, Completed, task.State())
		assert.Nil(t, task.Err())
	})

	t.Run("fails with the originating stack", func(t *testing.T) {
		s := New(context.Background())
		defer s.Close()

		task := s.Spawn("broken", func(context.Context) error {
			return pkgerrors.New("no valid command passed")
		})
		waitDone(t, task)
		require.Equal(t, Failed, task.State())

		terr := task.Err()
		require.NotNil(t, terr)
		assert.Equal(t, "no valid command passed", terr.Error())
		assert.Equal(t, "broken", terr.Name)
		assert.Equal(t, task.ID(), terr.TaskID)
		assert.Contains(t, terr.Stack, "scheduler_test.go")
		assert.False(t, time.Time(terr.At).IsZero())
	})

	t.Run("plain errors carry no scheduler frames", func(t *testing.T) {
		s := New(context.Background())
		defer s.Close()

		task := s.Spawn("plain", func(context.Context) error { return errors.New("plain") })
		waitDone(t, task)
		require.Equal(t, Failed, task.State())
		assert.Empty(t, task.Err().Stack)
	})

	t.Run("panics are captured as failures", func(t *testing.T) {
		s := New(context.Background())
		defer s.Close()

		task := s.Spawn("panicky", func(context.Context) error { panic("kaboom") })
		waitDone(t, task)
		require.Equal(t, Failed, task.State())

		var perr *PanicError
		require.ErrorAs(t, task.Err(), &perr)
		assert.Equal(t, "kaboom", perr.Value)
		assert.Equal(t, "panic: kaboom", task.Err().Error())
		assert.Contains(t, task.Err().Stack, "goroutine")
	})

	t.Run("cancellation is not a failure", func(t *testing.T) {
		s := New(context.Background())
		defer s.Close()

		started := make(chan struct{})
		task := s.Spawn("loop", func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return fmt.Errorf("receive: %w", ctx.Err())
		})
		<-started
		task.Cancel()
		waitDone(t, task)
		assert.Equal(t, Cancelled, task.State())
		assert.Nil(t, task.Err())
	})

	t.Run("any error after cancellation is not a failure", func(t *testing.T) {
		s := New(context.Background())
		defer s.Close()

		started := make(chan struct{})
		task := s.Spawn("application", func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return errors.New("application stopped")
		})
		<-started
		s.CancelAll()
		waitDone(t, task)
		assert.Equal(t, Cancelled, task.State())
		assert.Nil(t, task.Err())
	})

	t.Run("a panic after cancellation is still a failure", func(t *testing.T) {
		s := New(context.Background())
		defer s.Close()

		started := make(chan struct{})
		task := s.Spawn("application", func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			panic("cleanup broke")
		})
		<-started
		task.Cancel()
		waitDone(t, task)
		assert.Equal(t, Failed, task.State())
	})

	t.Run("tasks spawned after cancel never run", func(t *testing.T) {
		s := New(context.Background())
		defer s.Close()
		s.CancelAll()

		var ran atomic.Bool
		task := s.Spawn("late", func(context.Context) error {
			ran.Store(true)
			return nil
		})
		waitDone(t, task)
		assert.Equal(t, Cancelled, task.State())
		assert.False(t, ran.Load())
	})
}

func TestState(t *testing.T) {
	assert.False(t, Pending.IsTerminal())
	assert.False(t, Running.IsTerminal())
	assert.True(t, Completed.IsTerminal())
	assert.True(t, Failed.IsTerminal())
	assert.True(t, Cancelled.IsTerminal())

	assert.True(t, isAllowedTransition(Pending, Running))
	assert.True(t, isAllowedTransition(Running, Failed))
	assert.False(t, isAllowedTransition(Completed, Running))
	assert.False(t, isAllowedTransition(Pending, Completed))
}

func TestScheduler(t *testing.T) {
	t.Run("tasks are listed in spawn order", func(t *testing.T) {
		s := New(context.Background())
		defer s.Close()

		block := func(ctx context.Context) error { <-ctx.Done(); return ctx.Err() }
		s.Spawn("input", block)
		s.Spawn("application", block)
		s.Spawn("extra", block)

		tasks := s.Tasks()
		require.Len(t, tasks, 3)
		assert.Equal(t, "input", tasks[0].Name())
		assert.Equal(t, "application", tasks[1].Name())
		assert.Equal(t, "extra", tasks[2].Name())
	})

	t.Run("cancel all reaches every task", func(t *testing.T) {
		s := New(context.Background())
		defer s.Close()

		const n = 10
		for i := 0; i < n; i++ {
			s.Spawn(fmt.Sprintf("worker-%d", i), func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			})
		}
		s.CancelAll()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, s.Wait(ctx))
		for _, task := range s.Tasks() {
			assert.Equal(t, Cancelled, task.State(), task.Name())
		}
	})

	t.Run("parent cancellation propagates", func(t *testing.T) {
		parent, cancelParent := context.WithCancel(context.Background())
		s := New(parent)
		defer s.Close()

		task := s.Spawn("child", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
		cancelParent()
		waitDone(t, task)
		assert.Equal(t, Cancelled, task.State())
	})

	t.Run("wait gives up with its context", func(t *testing.T) {
		s := New(context.Background())
		defer s.Close()

		stuck := make(chan struct{})
		defer close(stuck)
		s.Spawn("stubborn", func(context.Context) error {
			<-stuck
			return nil
		})
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, s.Wait(ctx), context.DeadlineExceeded)
	})

	t.Run("tasks can find their scheduler", func(t *testing.T) {
		s := New(context.Background())
		defer s.Close()

		found := make(chan *Scheduler, 1)
		task := s.Spawn("lookup", func(ctx context.Context) error {
			got, _ := FromContext(ctx)
			found <- got
			return nil
		})
		waitDone(t, task)
		assert.Same(t, s, <-found)

		_, ok := FromContext(context.Background())
		assert.False(t, ok)
	})
}

func TestOffload(t *testing.T) {
	t.Run("returns the result", func(t *testing.T) {
		s := New(context.Background(), Workers(1))
		defer s.Close()

		v, err := Offload(s, func() (int, error) { return 42, nil }).Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	})

	t.Run("returns the error", func(t *testing.T) {
		s := New(context.Background())
		defer s.Close()

		_, err := Offload(s, func() (string, error) { return "", errors.New("db down") }).Await(context.Background())
		assert.EqualError(t, err, "db down")
	})

	t.Run("recovers panics", func(t *testing.T) {
		s := New(context.Background())
		defer s.Close()

		_, err := Offload(s, func() (int, error) { panic("bad") }).Await(context.Background())
		var perr *PanicError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "bad", perr.Value)
	})

	t.Run("await honors cancellation while the call blocks", func(t *testing.T) {
		s := New(context.Background(), Workers(1))
		defer s.Close()

		release := make(chan struct{})
		defer close(release)
		fut := Offload(s, func() (string, error) {
			<-release
			return "late", nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := fut.Await(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("blocking calls do not stall other workers", func(t *testing.T) {
		s := New(context.Background(), Workers(2))
		defer s.Close()

		release := make(chan struct{})
		defer close(release)
		Offload(s, func() (struct{}, error) {
			<-release
			return struct{}{}, nil
		})

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		v, err := Offload(s, func() (string, error) { return "fast", nil }).Await(ctx)
		require.NoError(t, err)
		assert.Equal(t, "fast", v)
	})
}

func TestFuture(t *testing.T) {
	fut := NewFuture[string]()
	fut.Complete("first")
	fut.Error(errors.New("ignored"))
	fut.Complete("ignored")

	v, err := fut.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", v)

	select {
	case <-fut.Done():
	default:
		t.Fatal("future should be resolved")
	}
}
