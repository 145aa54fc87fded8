package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/rpgconsent/core/session"
	"github.com/dmitrymomot/rpgconsent/middleware"
)

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == session.DefaultCookieName {
			return c
		}
	}
	return nil
}

func serve(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: token})
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestSession(t *testing.T) {
	t.Parallel()

	t.Run("new visitor gets a session cookie", func(t *testing.T) {
		t.Parallel()

		mgr := session.NewManager()
		var seen *session.Session
		h := middleware.Session(mgr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := session.FromContext(r.Context())
			require.True(t, ok)
			seen = s
			_, _ = w.Write([]byte("ok"))
		}))

		w := serve(h, "")

		c := sessionCookie(t, w)
		require.NotNil(t, c)
		assert.Equal(t, seen.Token(), c.Value)
		assert.Equal(t, 604800, c.MaxAge)
		assert.Equal(t, "/", c.Path)
		assert.True(t, c.HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
		assert.False(t, c.Secure)
		assert.False(t, seen.IsDirty())
	})

	t.Run("secure flag follows https base url", func(t *testing.T) {
		t.Parallel()

		cfg := session.DefaultConfig()
		cfg.BaseURL = "https://consent.example.com"
		mgr := session.NewFromConfig(cfg)

		h := middleware.Session(mgr)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		c := sessionCookie(t, serve(h, ""))
		require.NotNil(t, c)
		assert.True(t, c.Secure)
	})

	t.Run("known clean session does not rewrite the cookie", func(t *testing.T) {
		t.Parallel()

		mgr := session.NewManager()
		s, _ := mgr.Ensure("")
		h := middleware.Session(mgr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, _ := session.FromContext(r.Context())
			assert.Same(t, s, got)
		}))

		w := serve(h, s.Token())
		assert.Nil(t, sessionCookie(t, w))
	})

	t.Run("mutation writes the cookie", func(t *testing.T) {
		t.Parallel()

		mgr := session.NewManager()
		s, _ := mgr.Ensure("")
		h := middleware.Session(mgr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, mgr.Storage().Set(r.Context(), "lang", "de"))
			w.WriteHeader(http.StatusNoContent)
		}))

		w := serve(h, s.Token())
		c := sessionCookie(t, w)
		require.NotNil(t, c)
		assert.Equal(t, s.Token(), c.Value)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.False(t, s.IsDirty())
	})

	t.Run("login rotates the token before the body is written", func(t *testing.T) {
		t.Parallel()

		mgr := session.NewManager()
		s, _ := mgr.Ensure("")
		oldToken := s.Token()

		h := middleware.Session(mgr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, mgr.BeginUserSession(r.Context(), "alice"))
			_, _ = w.Write([]byte("welcome"))
		}))

		w := serve(h, oldToken)
		c := sessionCookie(t, w)
		require.NotNil(t, c)
		assert.NotEqual(t, oldToken, c.Value)
		assert.Equal(t, s.Token(), c.Value)
		assert.False(t, s.NeedsRotation())
		assert.Equal(t, "welcome", w.Body.String())

		// Both tokens resolve to the same session inside the grace window.
		fromOld, created := mgr.Ensure(oldToken)
		assert.False(t, created)
		fromNew, created := mgr.Ensure(c.Value)
		assert.False(t, created)
		assert.Same(t, fromOld, fromNew)
		assert.Equal(t, "alice", fromNew.UserID())
	})

	t.Run("rotation requested after flush is deferred", func(t *testing.T) {
		t.Parallel()

		mgr := session.NewManager()
		s, _ := mgr.Ensure("")
		token := s.Token()

		h := middleware.Session(mgr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.(http.Flusher).Flush()
			require.NoError(t, mgr.BeginUserSession(r.Context(), "bob"))
		}))

		w := serve(h, token)
		assert.Nil(t, sessionCookie(t, w))
		assert.Equal(t, token, s.Token())
		assert.True(t, s.NeedsRotation())

		next := serve(middleware.Session(mgr)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})), token)
		c := sessionCookie(t, next)
		require.NotNil(t, c)
		assert.NotEqual(t, token, c.Value)
		assert.False(t, s.NeedsRotation())
	})

	t.Run("unknown token starts a fresh session", func(t *testing.T) {
		t.Parallel()

		mgr := session.NewManager()
		h := middleware.Session(mgr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, mgr.CurrentUserID(r.Context()))
		}))

		w := serve(h, "forged-token")
		c := sessionCookie(t, w)
		require.NotNil(t, c)
		assert.NotEqual(t, "forged-token", c.Value)
		assert.Equal(t, 1, mgr.Stats().Active)
	})

	t.Run("skip bypasses session handling", func(t *testing.T) {
		t.Parallel()

		mgr := session.NewManager()
		h := middleware.SessionWithConfig(mgr, middleware.SessionConfig{
			Skip: func(r *http.Request) bool { return strings.HasPrefix(r.URL.Path, "/") },
		})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, ok := session.FromContext(r.Context())
			assert.False(t, ok)
		}))

		w := serve(h, "")
		assert.Nil(t, sessionCookie(t, w))
		assert.Zero(t, mgr.Stats().Active)
	})
}

func TestSessionWithConfig_AuthRequirements(t *testing.T) {
	t.Parallel()

	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	t.Run("require auth rejects anonymous sessions", func(t *testing.T) {
		t.Parallel()

		mgr := session.NewManager()
		h := middleware.SessionWithConfig(mgr, middleware.SessionConfig{RequireAuth: true})(ok)

		w := serve(h, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		// The fresh session still gets its cookie.
		assert.NotNil(t, sessionCookie(t, w))
	})

	t.Run("require auth passes authenticated sessions", func(t *testing.T) {
		t.Parallel()

		mgr := session.NewManager()
		s, _ := mgr.Ensure("")
		require.NoError(t, mgr.BeginUserSession(session.WithSession(t.Context(), s), "alice"))
		require.NoError(t, mgr.RotateToken(s))

		h := middleware.SessionWithConfig(mgr, middleware.SessionConfig{RequireAuth: true})(ok)

		w := serve(h, s.Token())
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", w.Body.String())
	})

	t.Run("require guest rejects authenticated sessions", func(t *testing.T) {
		t.Parallel()

		mgr := session.NewManager()
		s, _ := mgr.Ensure("")
		require.NoError(t, mgr.BeginUserSession(session.WithSession(t.Context(), s), "alice"))

		var gotErr error
		h := middleware.SessionWithConfig(mgr, middleware.SessionConfig{
			RequireGuest: true,
			ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
				gotErr = err
				http.Redirect(w, r, "/sheets", http.StatusSeeOther)
			},
		})(ok)

		w := serve(h, s.Token())
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.ErrorIs(t, gotErr, middleware.ErrForbidden)
	})

	t.Run("conflicting requirements panic", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			middleware.SessionWithConfig(session.NewManager(), middleware.SessionConfig{
				RequireAuth:  true,
				RequireGuest: true,
			})
		})
	})

	t.Run("nil manager panics", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			middleware.Session(nil)
		})
	})
}
