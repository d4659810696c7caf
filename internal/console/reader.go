package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/casualjim/stdinbridge/internal/queue"
	"github.com/casualjim/stdinbridge/internal/scheduler"
	"github.com/casualjim/stdinbridge/messages"
	"github.com/casualjim/stdinbridge/pkg/slogx"
	"github.com/fatih/color"
	"github.com/fogfish/opts"
)

// DefaultPrompt is printed once before the first read.
const DefaultPrompt = "Enter commands:"

// DefaultSentinels end the session when typed on their own line.
var DefaultSentinels = []string{"q", "quit"}

// Reader forwards console lines to a message queue until a sentinel line, the end
// of input or a read failure.
type Reader struct {
	sched     *scheduler.Scheduler
	in        *bufio.Reader
	out       io.Writer
	queue     *queue.Queue[messages.Message]
	sentinels []string
	prompt    string
}

var (
	// Sentinels replaces the lines that end the session.
	Sentinels = opts.ForName[Reader, []string]("sentinels")
	// Prompt replaces the text printed before the first read. An empty prompt prints nothing.
	Prompt = opts.ForName[Reader, string]("prompt")
)

// NewReader creates a reader for in that prints its prompt to out and pushes
// inbound messages onto q.
func NewReader(sched *scheduler.Scheduler, in io.Reader, out io.Writer, q *queue.Queue[messages.Message], options ...opts.Option[Reader]) (*Reader, error) {
	var err error
	if sched == nil {
		err = errors.Join(err, errors.New("scheduler is required"))
	}
	if in == nil {
		err = errors.Join(err, errors.New("input is required"))
	}
	if out == nil {
		err = errors.Join(err, errors.New("output is required"))
	}
	if q == nil {
		err = errors.Join(err, errors.New("queue is required"))
	}
	if err != nil {
		return nil, err
	}

	r := &Reader{
		sched:     sched,
		in:        bufio.NewReader(in),
		out:       out,
		queue:     q,
		sentinels: DefaultSentinels,
		prompt:    DefaultPrompt,
	}
	if err := opts.Apply(r, options); err != nil {
		return nil, err
	}
	return r, nil
}

// Run reads until the session ends. It returns nil when a sentinel line or the
// end of input was reached and the context error when it was cancelled.
func (r *Reader) Run(ctx context.Context) error {
	if r.prompt != "" {
		fmt.Fprintln(r.out, color.CyanString(r.prompt))
	}

	for {
		line, err := r.readLine(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				slog.DebugContext(ctx, "end of console input", slogx.LoggerName("console.reader"))
				return nil
			}
			// a broken input stream ends the session rather than leaving shutdown waiting on it
			slog.WarnContext(ctx, "failed to read console input", slogx.LoggerName("console.reader"), slogx.Error(err))
			return nil
		}

		if slices.Contains(r.sentinels, line) {
			return nil
		}
		r.queue.Push(messages.NewParse(line))
	}
}

// readLine returns the next line of any length. A final line without a
// newline is returned before io.EOF.
func (r *Reader) readLine(ctx context.Context) (string, error) {
	line, err := scheduler.Offload(r.sched, func() (string, error) {
		line, err := r.in.ReadString('\n')
		if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
			return "", err
		}
		return line, nil
	}).Await(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
