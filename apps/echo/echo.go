// Package echo registers the "echo" application, which answers every line
// with the same text behind a prefix. The locator argument replaces the
// prefix: "echo:>> " answers "hi" with ">> hi".
package echo

import (
	"context"

	"github.com/casualjim/stdinbridge"
	"github.com/casualjim/stdinbridge/apps"
	"github.com/casualjim/stdinbridge/messages"
)

// DefaultPrefix is put in front of every echoed line.
const DefaultPrefix = "echo:"

func init() {
	apps.Register("echo", func(_ context.Context, _ apps.Env, arg string) (stdinbridge.Application, error) {
		if arg == "" {
			arg = DefaultPrefix
		}
		return New(arg), nil
	})
}

// New creates an echo application with the given prefix.
func New(prefix string) stdinbridge.Application {
	return stdinbridge.ApplicationFunc(func(ctx context.Context, receive stdinbridge.ReceiveFunc, send stdinbridge.SendFunc) error {
		for {
			msg, err := receive(ctx)
			if err != nil {
				return err
			}
			parse, ok := msg.(messages.Parse)
			if !ok {
				continue
			}
			// rejected messages are logged by the console
			_ = send(ctx, messages.NewPrint(prefix+parse.Text))
		}
	})
}
