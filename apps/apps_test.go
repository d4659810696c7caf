package apps

import (
	"context"
	"errors"
	"testing"

	"github.com/casualjim/stdinbridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type named struct {
	stdinbridge.ApplicationFunc
	arg string
	env Env
}

func TestResolve(t *testing.T) {
	Register("test-resolve", func(_ context.Context, env Env, arg string) (stdinbridge.Application, error) {
		if arg == "bad" {
			return nil, errors.New("bad argument")
		}
		return &named{arg: arg, env: env}, nil
	})

	t.Run("plain name", func(t *testing.T) {
		app, err := Resolve(context.Background(), "test-resolve", Env{NATSURL: "nats://example:4222"})
		require.NoError(t, err)
		n := app.(*named)
		assert.Empty(t, n.arg)
		assert.Equal(t, "nats://example:4222", n.env.NATSURL)
	})

	t.Run("with argument", func(t *testing.T) {
		app, err := Resolve(context.Background(), " test-resolve:a.b:c", Env{})
		require.NoError(t, err)
		assert.Equal(t, "a.b:c", app.(*named).arg)

		app, err = Resolve(context.Background(), "test-resolve:>> ", Env{})
		require.NoError(t, err)
		assert.Equal(t, ">> ", app.(*named).arg)
	})

	t.Run("factory error", func(t *testing.T) {
		_, err := Resolve(context.Background(), "test-resolve:bad", Env{})
		assert.EqualError(t, err, `application "test-resolve:bad": bad argument`)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := Resolve(context.Background(), "nope", Env{})
		assert.ErrorIs(t, err, ErrUnknownApplication)
		assert.Contains(t, err.Error(), "test-resolve")
	})

	assert.Contains(t, Names(), "test-resolve")
}

func TestRegister(t *testing.T) {
	factory := func(context.Context, Env, string) (stdinbridge.Application, error) { return nil, nil }

	Register("test-register", factory)
	assert.Panics(t, func() { Register("test-register", factory) })
	assert.Panics(t, func() { Register("", factory) })
	assert.Panics(t, func() { Register("with:colon", factory) })
	assert.Panics(t, func() { Register("test-nil", nil) })
}
