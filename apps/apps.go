// Package apps resolves application locators to runnable applications.
//
// A locator is a registered name, optionally followed by a colon and an
// argument for the factory, e.g. "echo" or "nats:thoughts.requests".
// Application packages register themselves from init, so a binary exposes
// exactly the applications it imports.
package apps

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/casualjim/stdinbridge"
	"github.com/casualjim/stdinbridge/internal/registry"
)

// ErrUnknownApplication is returned by Resolve for a locator nobody registered.
var ErrUnknownApplication = errors.New("unknown application")

// Env carries the process settings an application factory may need.
type Env struct {
	NATSURL string
}

// Factory builds an application from the argument part of its locator.
type Factory func(ctx context.Context, env Env, arg string) (stdinbridge.Application, error)

var factories = registry.New[Factory]()

// Register makes a factory available under name. It panics when name is empty,
// contains a colon or is registered twice.
func Register(name string, factory Factory) {
	if name == "" || strings.Contains(name, ":") {
		panic(fmt.Sprintf("apps: invalid application name %q", name))
	}
	if factory == nil {
		panic("apps: Register factory is nil")
	}
	if _, loaded := factories.GetOrAdd(name, func() Factory { return factory }); loaded {
		panic("apps: Register called twice for " + name)
	}
}

// Resolve builds the application a locator points to.
func Resolve(ctx context.Context, locator string, env Env) (stdinbridge.Application, error) {
	// the argument is passed verbatim, surrounding spaces included
	name, arg, _ := strings.Cut(locator, ":")
	name = strings.TrimSpace(name)
	factory, ok := factories.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w %q, available: %s", ErrUnknownApplication, name, strings.Join(Names(), ", "))
	}
	app, err := factory(ctx, env, arg)
	if err != nil {
		return nil, fmt.Errorf("application %q: %w", locator, err)
	}
	return app, nil
}

// Names lists the registered application names.
func Names() []string {
	return factories.Names()
}
