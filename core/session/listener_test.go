package session_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/rpgconsent/core/logger"
	"github.com/dmitrymomot/rpgconsent/core/session"
)

func TestListeners(t *testing.T) {
	t.Parallel()

	t.Run("every mutation notifies in registration order", func(t *testing.T) {
		t.Parallel()

		mgr := session.NewManager()
		s, _ := mgr.Ensure("")
		ctx := ctxWith(s)

		var calls []string
		mgr.Register(func(_ context.Context, got *session.Session) error {
			assert.Same(t, s, got)
			calls = append(calls, "first")
			return nil
		})
		mgr.Register(func(context.Context, *session.Session) error {
			calls = append(calls, "second")
			return nil
		})

		require.NoError(t, mgr.Storage().Set(ctx, "lang", "de"))
		require.NoError(t, mgr.BeginUserSession(ctx, "u1"))
		require.NoError(t, mgr.EndUserSession(ctx))
		require.NoError(t, mgr.Storage().Clear(ctx))

		assert.Equal(t, []string{
			"first", "second",
			"first", "second",
			"first", "second",
			"first", "second",
		}, calls)
	})

	t.Run("listener can read the session it is notified about", func(t *testing.T) {
		t.Parallel()

		mgr := session.NewManager()
		s, _ := mgr.Ensure("")

		var seen any
		mgr.Register(func(ctx context.Context, got *session.Session) error {
			seen = mgr.Storage().Get(ctx, "lang", nil)
			_ = got.Info()
			return nil
		})

		require.NoError(t, mgr.Storage().Set(ctxWith(s), "lang", "de"))
		assert.Equal(t, "de", seen)
	})

	t.Run("failing listeners never break mutation or other listeners", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithJSONFormatter(), logger.WithOutput(&buf))

		mgr := session.NewManager(session.WithLogger(log))
		s, _ := mgr.Ensure("")

		reached := false
		mgr.Register(func(context.Context, *session.Session) error {
			return errors.New("render failed")
		})
		mgr.Register(func(context.Context, *session.Session) error {
			panic("boom")
		})
		mgr.Register(func(context.Context, *session.Session) error {
			reached = true
			return nil
		})

		require.NoError(t, mgr.Storage().Set(ctxWith(s), "lang", "de"))

		assert.True(t, reached)
		assert.Equal(t, "de", mgr.Storage().Get(ctxWith(s), "lang", nil))
		assert.Contains(t, buf.String(), "render failed")
		assert.Contains(t, buf.String(), "listener panic: boom")
		assert.Contains(t, buf.String(), s.ID.String())
		assert.NotContains(t, buf.String(), s.Token())
	})

	t.Run("registry", func(t *testing.T) {
		t.Parallel()

		l := session.NewListeners(nil)
		l.Register(nil)
		assert.Zero(t, l.Len())

		l.Register(func(context.Context, *session.Session) error { return nil })
		assert.Equal(t, 1, l.Len())
	})
}
