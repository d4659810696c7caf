package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/casualjim/stdinbridge/internal/queue"
	"github.com/casualjim/stdinbridge/internal/scheduler"
	"github.com/casualjim/stdinbridge/messages"
	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func runReader(t *testing.T, input io.Reader, options ...func(*Reader)) (*queue.Queue[messages.Message], string, error) {
	t.Helper()
	sched := scheduler.New(context.Background())
	t.Cleanup(sched.Close)

	q := queue.New[messages.Message]()
	var out syncBuffer
	r, err := NewReader(sched, input, &out, q)
	require.NoError(t, err)
	for _, o := range options {
		o(r)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err = r.Run(ctx)
	return q, out.String(), err
}

func texts(q *queue.Queue[messages.Message]) []string {
	var result []string
	for _, m := range q.Drain() {
		result = append(result, m.(messages.Parse).Text)
	}
	return result
}

func TestReader(t *testing.T) {
	t.Run("forwards trimmed lines in order", func(t *testing.T) {
		q, out, err := runReader(t, strings.NewReader("  hello  \nadd a thought\n\n\tcount\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"hello", "add a thought", "", "count"}, texts(q))
		assert.Equal(t, "Enter commands:\n", out)
	})

	t.Run("stops at a sentinel line", func(t *testing.T) {
		for _, sentinel := range []string{"q", "quit", "  quit  "} {
			q, _, err := runReader(t, strings.NewReader("one\n"+sentinel+"\ntwo\n"))
			require.NoError(t, err)
			assert.Equal(t, []string{"one"}, texts(q), sentinel)
		}
	})

	t.Run("sentinels are case sensitive", func(t *testing.T) {
		q, _, err := runReader(t, strings.NewReader("QUIT\nQ\nquitting\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"QUIT", "Q", "quitting"}, texts(q))
	})

	t.Run("quit as the first line enqueues nothing", func(t *testing.T) {
		q, _, err := runReader(t, strings.NewReader("quit\n"))
		require.NoError(t, err)
		assert.Equal(t, 0, q.Len())
	})

	t.Run("end of input ends the session", func(t *testing.T) {
		q, _, err := runReader(t, strings.NewReader("last line without newline"))
		require.NoError(t, err)
		assert.Equal(t, []string{"last line without newline"}, texts(q))
	})

	t.Run("lines of any length are forwarded", func(t *testing.T) {
		long := strings.Repeat("x", 70*1024)
		q, _, err := runReader(t, strings.NewReader(long+"\nafter\r\nquit\n"))
		require.NoError(t, err)
		got := texts(q)
		require.Len(t, got, 2)
		assert.Len(t, got[0], len(long))
		assert.Equal(t, "after", got[1])
	})

	t.Run("read failures end the session", func(t *testing.T) {
		q, _, err := runReader(t, io.MultiReader(strings.NewReader("ok\n"), &failingReader{}))
		require.NoError(t, err)
		assert.Equal(t, []string{"ok"}, texts(q))
	})

	t.Run("custom sentinels and prompt", func(t *testing.T) {
		q, out, err := runReader(t, strings.NewReader("q\nexit\n"), func(r *Reader) {
			r.sentinels = []string{"exit"}
			r.prompt = ""
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"q"}, texts(q))
		assert.Empty(t, out)
	})

	t.Run("cancellation unblocks a pending read", func(t *testing.T) {
		sched := scheduler.New(context.Background())
		defer sched.Close()

		pr, pw := io.Pipe()
		defer pw.Close()
		q := queue.New[messages.Message]()
		r, err := NewReader(sched, pr, io.Discard, q)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		errs := make(chan error, 1)
		go func() { errs <- r.Run(ctx) }()

		_, err = pw.Write([]byte("first\n"))
		require.NoError(t, err)
		require.Eventually(t, func() bool { return q.Len() == 1 }, time.Second, 5*time.Millisecond)

		cancel()
		select {
		case err := <-errs:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(2 * time.Second):
			t.Fatal("reader did not stop after cancellation")
		}
	})

	t.Run("validates collaborators", func(t *testing.T) {
		_, err := NewReader(nil, nil, nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "scheduler is required")
		assert.Contains(t, err.Error(), "input is required")
		assert.Contains(t, err.Error(), "output is required")
		assert.Contains(t, err.Error(), "queue is required")
	})
}

type failingReader struct{}

func (*failingReader) Read([]byte) (int, error) {
	return 0, errors.New("stream closed abnormally")
}

func TestSink(t *testing.T) {
	ctx := context.Background()

	t.Run("prints with the marker", func(t *testing.T) {
		var out bytes.Buffer
		s, err := NewSink(&out)
		require.NoError(t, err)

		require.NoError(t, s.Deliver(ctx, messages.NewPrint("echo:hello")))
		require.NoError(t, s.Deliver(ctx, messages.NewPrint("")))
		assert.Equal(t, "--> echo:hello\n--> \n", out.String())
	})

	t.Run("resolves raw envelopes", func(t *testing.T) {
		var out bytes.Buffer
		s, err := NewSink(&out)
		require.NoError(t, err)

		require.NoError(t, s.Deliver(ctx, messages.Raw{"type": "print", "text": "from afar"}))
		assert.Equal(t, "--> from afar\n", out.String())
	})

	t.Run("rejects malformed messages and keeps going", func(t *testing.T) {
		var out bytes.Buffer
		s, err := NewSink(&out)
		require.NoError(t, err)

		bad := []messages.Message{
			nil,
			messages.NewParse("inbound only"),
			messages.Raw{"text": "no type"},
			messages.Raw{"type": "cli.print", "text": "unknown"},
			messages.Raw{"type": "print"},
		}
		for _, msg := range bad {
			err := s.Deliver(ctx, msg)
			require.Error(t, err)
			assert.ErrorIs(t, err, messages.ErrProtocolViolation)
		}

		require.NoError(t, s.Deliver(ctx, messages.NewPrint("still here")))
		assert.Equal(t, "--> still here\n", out.String())
	})

	t.Run("custom marker", func(t *testing.T) {
		var out bytes.Buffer
		s, err := NewSink(&out, Marker(">>"))
		require.NoError(t, err)
		require.NoError(t, s.Deliver(ctx, messages.NewPrint("x")))
		assert.Equal(t, ">> x\n", out.String())
	})

	t.Run("renders markdown", func(t *testing.T) {
		r, err := glamour.NewTermRenderer(glamour.WithStandardStyle("notty"))
		require.NoError(t, err)

		var out bytes.Buffer
		s, err := NewSink(&out, WithRenderer(r))
		require.NoError(t, err)
		require.NoError(t, s.Deliver(ctx, messages.NewPrint("some **deep** thought")))
		assert.True(t, strings.HasPrefix(out.String(), "--> "))
		assert.Contains(t, out.String(), "deep")
	})

	t.Run("status writes share the lock", func(t *testing.T) {
		var out syncBuffer
		s, err := NewSink(&out)
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				_ = s.Deliver(ctx, messages.NewPrint("msg"))
			}()
			go func() {
				defer wg.Done()
				_, _ = s.Write([]byte("status\n"))
			}()
		}
		wg.Wait()

		for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
			assert.Contains(t, []string{"--> msg", "status"}, line)
		}
	})

	t.Run("requires an output", func(t *testing.T) {
		_, err := NewSink(nil)
		assert.Error(t, err)
	})
}
