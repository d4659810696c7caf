package stdinbridge

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/casualjim/stdinbridge/internal/console"
	"github.com/casualjim/stdinbridge/internal/queue"
	"github.com/casualjim/stdinbridge/internal/scheduler"
	"github.com/casualjim/stdinbridge/internal/supervisor"
	"github.com/casualjim/stdinbridge/messages"
	"github.com/casualjim/stdinbridge/pkg/slogx"
	"github.com/fogfish/opts"
)

// Task names as they appear in diagnostics.
const (
	InputTask       = "input"
	ApplicationTask = "application"
)

// Server runs one console session for an Application.
type Server struct {
	app       Application
	in        io.Reader
	out       io.Writer
	workers   int
	interval  time.Duration
	timeout   time.Duration
	escalate  bool
	markdown  bool
	sentinels []string
	prompt    string
	hooks     []func(context.Context) error

	running sync.Mutex
}

// New creates a server for app.
func New(app Application, options ...opts.Option[Server]) (*Server, error) {
	if app == nil {
		return nil, errors.New("application is required")
	}

	s := &Server{
		app:       app,
		in:        os.Stdin,
		out:       os.Stdout,
		workers:   scheduler.DefaultWorkers,
		interval:  supervisor.DefaultCheckInterval,
		timeout:   supervisor.DefaultShutdownTimeout,
		sentinels: console.DefaultSentinels,
		prompt:    console.DefaultPrompt,
	}
	if err := opts.Apply(s, options); err != nil {
		return nil, err
	}

	var err error
	if s.in == nil {
		err = errors.Join(err, errors.New("input is required"))
	}
	if s.out == nil {
		err = errors.Join(err, errors.New("output is required"))
	}
	if s.workers < 1 {
		err = errors.Join(err, errors.New("workers must be at least 1"))
	}
	if s.interval <= 0 {
		err = errors.Join(err, errors.New("check interval must be positive"))
	}
	if s.timeout <= 0 {
		err = errors.Join(err, errors.New("shutdown timeout must be positive"))
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Run serves the session until the input ends, ctx is cancelled or, with
// Escalate, the application fails. It returns after the shutdown sequence
// completed. Only one Run can be active at a time.
func (s *Server) Run(ctx context.Context) error {
	if !s.running.TryLock() {
		return errors.New("server is already running")
	}
	defer s.running.Unlock()

	log := slog.Default().With(slogx.LoggerName("stdinbridge.server"))

	sched := scheduler.New(ctx, scheduler.Workers(s.workers))
	q := queue.New[messages.Message]()

	sink, err := console.NewSink(s.out, console.Markdown(s.markdown))
	if err != nil {
		sched.Close()
		return err
	}
	reader, err := console.NewReader(sched, s.in, sink, q,
		console.Sentinels(s.sentinels),
		console.Prompt(s.prompt),
	)
	if err != nil {
		sched.Close()
		return err
	}

	stop := make(chan struct{})
	var stopOnce sync.Once
	requestStop := func() { stopOnce.Do(func() { close(stop) }) }

	monitor, err := supervisor.NewMonitor(sched, sink,
		supervisor.CheckInterval(s.interval),
		supervisor.OnFailure(func(r supervisor.Report) {
			if s.escalate {
				log.InfoContext(ctx, "shutting down after application failure", slogx.Task(r.Task, r.TaskID))
				requestStop()
			}
		}),
	)
	if err != nil {
		sched.Close()
		return err
	}

	// the monitor outlives the tasks it watches, so it does not share their context
	monitorCtx, cancelMonitor := context.WithCancel(context.WithoutCancel(ctx))
	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		_ = monitor.Run(monitorCtx)
	}()
	halt := func() {
		cancelMonitor()
		<-monitorDone
		monitor.Check(monitorCtx)
	}

	coordinator, err := supervisor.NewCoordinator(sched, q, sink,
		supervisor.ShutdownTimeout(s.timeout),
		supervisor.Halt(halt),
	)
	if err != nil {
		halt()
		sched.Close()
		return err
	}
	for _, hook := range s.hooks {
		coordinator.OnShutdown(hook)
	}

	receive := func(ctx context.Context) (messages.Message, error) {
		return q.Receive(ctx)
	}
	input := sched.Spawn(InputTask, reader.Run)
	sched.Spawn(ApplicationTask, func(ctx context.Context) error {
		return s.app.Run(ctx, receive, sink.Deliver)
	})

	select {
	case <-input.Done():
		log.DebugContext(ctx, "console input ended")
	case <-ctx.Done():
		log.DebugContext(ctx, "server context done", slogx.Error(context.Cause(ctx)))
	case <-stop:
	}

	return coordinator.Stop(ctx)
}
