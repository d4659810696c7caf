package stdinbridge

import (
	"context"
	"io"
	"time"

	"github.com/fogfish/opts"
)

var (
	// Input sets the console input. Defaults to os.Stdin.
	Input = opts.ForName[Server, io.Reader]("in")

	// Output sets the console output. Defaults to os.Stdout.
	Output = opts.ForName[Server, io.Writer]("out")

	// Workers sets the size of the pool that runs blocking calls.
	Workers = opts.ForName[Server, int]("workers")

	// CheckInterval sets how often failed tasks are looked for.
	CheckInterval = opts.ForName[Server, time.Duration]("interval")

	// ShutdownTimeout bounds how long shutdown waits for cancelled tasks.
	ShutdownTimeout = opts.ForName[Server, time.Duration]("timeout")

	// Escalate makes a reported application failure shut the server down.
	Escalate = opts.ForName[Server, bool]("escalate")

	// Markdown renders printed text as terminal markdown.
	Markdown = opts.ForName[Server, bool]("markdown")

	// Sentinels replaces the input lines that end the session.
	Sentinels = opts.ForName[Server, []string]("sentinels")

	// Prompt replaces the text printed before the first read.
	Prompt = opts.ForName[Server, string]("prompt")
)

// OnShutdown registers a hook that runs before the tasks are cancelled.
// Hooks run in reverse registration order.
func OnShutdown(hook func(context.Context) error) opts.Option[Server] {
	return opts.Type[Server](func(s *Server) error {
		s.hooks = append(s.hooks, hook)
		return nil
	})
}
