package console

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/casualjim/stdinbridge/internal/signals"
	"github.com/casualjim/stdinbridge/messages"
	"github.com/casualjim/stdinbridge/pkg/slogx"
	"github.com/charmbracelet/glamour"
	"github.com/fogfish/opts"
	"github.com/zoobzio/capitan"
)

// DefaultMarker prefixes every printed message.
const DefaultMarker = "-->"

// Sink renders outbound messages on the console. All writes, including status
// lines written through Write, are serialized.
type Sink struct {
	mu       sync.Mutex
	out      io.Writer
	marker   string
	renderer *glamour.TermRenderer
	markdown bool
}

var (
	// Marker replaces the prefix printed before each message text.
	Marker = opts.ForName[Sink, string]("marker")
	// Markdown renders message text as markdown before printing it.
	Markdown = opts.ForName[Sink, bool]("markdown")
)

// WithRenderer uses r to render message text as markdown.
func WithRenderer(r *glamour.TermRenderer) opts.Option[Sink] {
	return opts.Type[Sink](func(s *Sink) error {
		s.renderer = r
		s.markdown = r != nil
		return nil
	})
}

// NewSink creates a sink writing to out.
func NewSink(out io.Writer, options ...opts.Option[Sink]) (*Sink, error) {
	if out == nil {
		return nil, fmt.Errorf("output is required")
	}
	s := &Sink{
		out:    out,
		marker: DefaultMarker,
	}
	if err := opts.Apply(s, options); err != nil {
		return nil, err
	}
	if s.markdown && s.renderer == nil {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
		if err != nil {
			return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
		}
		s.renderer = r
	}
	return s, nil
}

// Deliver validates msg and prints it. Anything other than a print message fails
// with an error wrapping messages.ErrProtocolViolation; the sink stays usable.
func (s *Sink) Deliver(ctx context.Context, msg messages.Message) error {
	if raw, ok := msg.(messages.Raw); ok {
		resolved, err := messages.FromMap(raw)
		if err != nil {
			return s.reject(ctx, raw.Type(), err)
		}
		msg = resolved
	}

	switch m := msg.(type) {
	case messages.Print:
		return s.print(m.Text)
	case nil:
		return s.reject(ctx, "", &messages.ProtocolError{Reason: "message has no `type` defined"})
	default:
		return s.reject(ctx, m.Type(), &messages.ProtocolError{
			Type:   m.Type(),
			Reason: "server cannot handle message type",
		})
	}
}

// Write writes p to the console, serialized with printed messages.
func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out.Write(p)
}

func (s *Sink) print(text string) error {
	if s.markdown {
		rendered, err := s.renderer.Render(text)
		if err != nil {
			return fmt.Errorf("failed to render markdown: %w", err)
		}
		text = strings.TrimSpace(rendered)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.out, "%s %s\n", s.marker, text)
	return err
}

func (s *Sink) reject(ctx context.Context, tpe string, err error) error {
	slog.WarnContext(ctx, "rejected outbound message",
		slogx.LoggerName("console.sink"),
		slog.String("type", tpe),
		slogx.Error(err),
	)
	capitan.Error(context.WithoutCancel(ctx), signals.ProtocolViolation,
		signals.FieldMessageType.Field(tpe),
		signals.FieldError.Field(err),
	)
	return err
}
