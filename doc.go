/*
Package stdinbridge connects a line-oriented console to an asynchronous
Application.

Every line typed on the console becomes a parse message on an unbounded queue.
The Application reads that queue through its receive function and answers with
print messages through its send function, which the console renders as

	--> <text>

Typing q or quit, or closing the input, ends the session. Shutdown cancels
every task, discards undelivered messages and prints Goodbye!.

# Basic Usage

	app := stdinbridge.ApplicationFunc(func(ctx context.Context, receive stdinbridge.ReceiveFunc, send stdinbridge.SendFunc) error {
		for {
			msg, err := receive(ctx)
			if err != nil {
				return err
			}
			if p, ok := msg.(messages.Parse); ok {
				_ = send(ctx, messages.NewPrint("echo:"+p.Text))
			}
		}
	})

	srv, err := stdinbridge.New(app, stdinbridge.CheckInterval(time.Second))
	if err != nil {
		return err
	}
	return srv.Run(ctx)

# Failures

The Application runs as a tracked task. It does not report errors to anyone:
when it returns an error or panics, a monitor prints the failure with its stack
on its next check and the session keeps accepting input. Escalate turns a
reported failure into a shutdown.

# Blocking calls

Applications that call blocking code wrap it with Offload, which runs it on the
server's worker pool and suspends the caller until it finished or its context
was cancelled. The console read itself goes through the same pool.
*/
package stdinbridge
