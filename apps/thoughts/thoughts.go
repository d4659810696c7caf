// Package thoughts registers the "thoughts" application, a small command
// interpreter over a store of deep thoughts.
//
// Commands, matched case-insensitively on the first word:
//
//	count        reports how many thoughts are stored
//	random       prints a random thought
//	add <text>   records text as a new thought
//
// Any other line is answered with a notice. An empty line is treated as a
// broken request and fails the application.
package thoughts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/casualjim/stdinbridge"
	"github.com/casualjim/stdinbridge/apps"
	"github.com/casualjim/stdinbridge/messages"
	pkgerrors "github.com/pkg/errors"
)

func init() {
	apps.Register("thoughts", func(context.Context, apps.Env, string) (stdinbridge.Application, error) {
		store, err := NewMemoryStore(
			"The answer is 42.",
			"Time is an illusion. Lunchtime doubly so.",
		)
		if err != nil {
			return nil, err
		}
		return New(store), nil
	})
}

// App answers thought commands from a Store.
type App struct {
	store Store
}

// New creates the application over store.
func New(store Store) *App {
	return &App{store: store}
}

func (a *App) Run(ctx context.Context, receive stdinbridge.ReceiveFunc, send stdinbridge.SendFunc) error {
	for {
		msg, err := receive(ctx)
		if err != nil {
			return err
		}
		parse, ok := msg.(messages.Parse)
		if !ok {
			continue
		}
		reply, err := a.Handle(ctx, parse.Text)
		if err != nil {
			return err
		}
		_ = send(ctx, messages.NewPrint(reply))
	}
}

// Handle executes one command line and returns the text to print.
func (a *App) Handle(ctx context.Context, text string) (string, error) {
	if text == "" {
		return "", pkgerrors.New("no valid command passed")
	}

	command, _, _ := strings.Cut(text, " ")
	switch strings.ToLower(command) {
	case "count":
		count, err := stdinbridge.Offload(ctx, a.store.Count)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("There are %d deep thoughts!", count), nil

	case "random":
		thought, err := stdinbridge.Offload(ctx, a.store.Random)
		if errors.Is(err, ErrEmpty) {
			return "There are no deep thoughts yet", nil
		}
		if err != nil {
			return "", err
		}
		return thought.Content, nil

	case "add":
		content := ""
		if len(text) > 4 {
			content = text[4:]
		}
		thought, err := stdinbridge.Offload(ctx, func() (Thought, error) {
			return a.store.Add(content)
		})
		if err != nil {
			if ctx.Err() != nil {
				return "", err
			}
			return fmt.Sprintf("Could not record thought: %v", err), nil
		}
		return fmt.Sprintf(`Recorded thought "%s"`, thought.Content), nil

	default:
		return fmt.Sprintf(`"%s" does not contain a valid command`, text), nil
	}
}
