// Package natsapp registers the "nats" application, which forwards every
// console line to a NATS subject as a request and prints the replies.
//
// Requests carry the parse message in its wire form:
//
//	{"type":"parse","text":"<line>"}
//
// A responder answers with one message or a JSON array of messages. Each one
// goes to the console as is, so the console decides what it can render. The
// locator argument names the subject: "nats:thoughts.requests".
package natsapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/casualjim/stdinbridge"
	"github.com/casualjim/stdinbridge/apps"
	"github.com/casualjim/stdinbridge/messages"
	"github.com/casualjim/stdinbridge/pkg/natsx"
	"github.com/casualjim/stdinbridge/pkg/slogx"
	"github.com/nats-io/nats.go"
)

func init() {
	apps.Register("nats", func(_ context.Context, env apps.Env, subject string) (stdinbridge.Application, error) {
		if subject == "" {
			return nil, errors.New("a subject is required, use nats:<subject>")
		}
		nc, err := natsx.NewClient(env.NATSURL)
		if err != nil {
			return nil, fmt.Errorf("connect to nats: %w", err)
		}
		app, err := New(nc, subject)
		if err != nil {
			nc.Close()
			return nil, err
		}
		app.closer = nc.Drain
		return app, nil
	})
}

// Requester sends a request and waits for the first reply.
type Requester interface {
	RequestWithContext(ctx context.Context, subject string, data []byte) (*nats.Msg, error)
}

// App relays console lines over NATS request/reply.
type App struct {
	requester Requester
	subject   string
	closer    func() error
}

// New creates the application publishing to subject through requester.
func New(requester Requester, subject string) (*App, error) {
	var err error
	if requester == nil {
		err = errors.Join(err, errors.New("requester is required"))
	}
	if subject == "" {
		err = errors.Join(err, errors.New("subject is required"))
	}
	if err != nil {
		return nil, err
	}
	return &App{requester: requester, subject: subject}, nil
}

func (a *App) Run(ctx context.Context, receive stdinbridge.ReceiveFunc, send stdinbridge.SendFunc) error {
	log := slog.Default().With(slogx.LoggerName("apps.nats"), slog.String("subject", a.subject))

	for {
		msg, err := receive(ctx)
		if err != nil {
			return err
		}

		replies, err := a.request(ctx, msg)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.WarnContext(ctx, "request failed", slogx.Error(err))
			_ = send(ctx, messages.NewPrint(fmt.Sprintf("request to %s failed: %v", a.subject, err)))
			continue
		}

		for _, reply := range replies {
			// rejected replies are logged by the console
			_ = send(ctx, reply)
		}
	}
}

func (a *App) request(ctx context.Context, msg messages.Message) ([]messages.Raw, error) {
	body, err := messages.Encode(msg)
	if err != nil {
		return nil, err
	}
	reply, err := a.requester.RequestWithContext(ctx, a.subject, body)
	if err != nil {
		return nil, err
	}
	return messages.Split(reply.Data)
}

// Close releases the connection the application was resolved with.
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer()
}
