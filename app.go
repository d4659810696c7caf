package stdinbridge

import (
	"context"

	"github.com/casualjim/stdinbridge/internal/scheduler"
	"github.com/casualjim/stdinbridge/messages"
)

// ReceiveFunc suspends until the next inbound message is available or ctx is done.
type ReceiveFunc func(ctx context.Context) (messages.Message, error)

// SendFunc delivers an outbound message to the console. It returns an error
// wrapping messages.ErrProtocolViolation when the message cannot be rendered;
// the session continues either way.
type SendFunc func(ctx context.Context, msg messages.Message) error

// Application consumes inbound messages and produces outbound ones.
//
// Run is called once on its own task and is expected to loop until ctx is
// cancelled. Any other return, and any panic, is reported as a failure of the
// application task.
type Application interface {
	Run(ctx context.Context, receive ReceiveFunc, send SendFunc) error
}

// ApplicationFunc adapts a function to the Application interface.
type ApplicationFunc func(ctx context.Context, receive ReceiveFunc, send SendFunc) error

func (f ApplicationFunc) Run(ctx context.Context, receive ReceiveFunc, send SendFunc) error {
	return f(ctx, receive, send)
}

// Offload runs a blocking call on the worker pool of the scheduler carried by ctx
// and waits for its result. Cancelling ctx stops the wait, not the call.
// Without a scheduler on ctx the call runs inline.
func Offload[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	s, ok := scheduler.FromContext(ctx)
	if !ok {
		return fn()
	}
	return scheduler.Offload(s, fn).Await(ctx)
}
