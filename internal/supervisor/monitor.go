package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/casualjim/stdinbridge/internal/scheduler"
	"github.com/casualjim/stdinbridge/internal/signals"
	"github.com/casualjim/stdinbridge/pkg/slogx"
	"github.com/fatih/color"
	"github.com/fogfish/opts"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/zoobzio/capitan"
)

// DefaultCheckInterval is how often tracked tasks are inspected for failures.
const DefaultCheckInterval = time.Second

// Report describes a task failure surfaced by the monitor.
type Report struct {
	TaskID uuid.UUID
	Task   string
	Err    error
	Stack  string
	At     strfmt.DateTime
}

// Monitor periodically surfaces failures of tracked tasks.
type Monitor struct {
	sched     *scheduler.Scheduler
	out       io.Writer
	interval  time.Duration
	onFailure func(Report)
	reported  *haxmap.Map[string, struct{}]
}

var (
	// CheckInterval sets the polling interval.
	CheckInterval = opts.ForName[Monitor, time.Duration]("interval")
	// OnFailure is called once for every reported failure, after the diagnostic is printed.
	OnFailure = opts.ForName[Monitor, func(Report)]("onFailure")
)

// NewMonitor creates a monitor for the tasks of sched that prints diagnostics to out.
func NewMonitor(sched *scheduler.Scheduler, out io.Writer, options ...opts.Option[Monitor]) (*Monitor, error) {
	var err error
	if sched == nil {
		err = errors.Join(err, errors.New("scheduler is required"))
	}
	if out == nil {
		err = errors.Join(err, errors.New("output is required"))
	}
	if err != nil {
		return nil, err
	}

	m := &Monitor{
		sched:    sched,
		out:      out,
		interval: DefaultCheckInterval,
		reported: haxmap.New[string, struct{}](),
	}
	if err := opts.Apply(m, options); err != nil {
		return nil, err
	}
	if m.interval <= 0 {
		return nil, fmt.Errorf("check interval must be positive, got %s", m.interval)
	}
	return m, nil
}

// Run checks the tracked tasks every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check inspects every tracked task once and reports failures that were not
// reported before. Completed and cancelled tasks are never reported.
func (m *Monitor) Check(ctx context.Context) []Report {
	var reports []Report
	for _, task := range m.sched.Tasks() {
		if task.State() != scheduler.Failed {
			continue
		}
		if _, seen := m.reported.GetOrSet(task.ID().String(), struct{}{}); seen {
			continue
		}

		terr := task.Err()
		report := Report{
			TaskID: task.ID(),
			Task:   task.Name(),
			Err:    terr.Err,
			Stack:  terr.Stack,
			At:     terr.At,
		}
		m.surface(ctx, report)
		reports = append(reports, report)

		if m.onFailure != nil {
			m.onFailure(report)
		}
	}
	return reports
}

func (m *Monitor) surface(ctx context.Context, report Report) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %v\n", color.RedString("Exception inside application:"), report.Err)
	if stack := strings.TrimSpace(report.Stack); stack != "" {
		b.WriteString(stack)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "  %v\n", report.Err)
	// one write keeps the block together on a shared console
	_, _ = io.WriteString(m.out, b.String())

	slog.ErrorContext(ctx, "exception inside application",
		slogx.LoggerName("supervisor.monitor"),
		slogx.Task(report.Task, report.TaskID),
		slogx.Error(report.Err),
	)
	capitan.Error(context.WithoutCancel(ctx), signals.FailureReported,
		signals.FieldTaskID.Field(report.TaskID.String()),
		signals.FieldTaskName.Field(report.Task),
		signals.FieldError.Field(report.Err),
	)
}
