package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/rpgconsent/core/session"
	"github.com/dmitrymomot/rpgconsent/middleware"
)

func TestLocale(t *testing.T) {
	t.Parallel()

	supported := []language.Tag{language.English, language.German}

	newHandler := func(mgr *session.Manager, got *language.Tag) http.Handler {
		inner := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			tag, ok := middleware.GetLocale(r.Context())
			require.True(t, ok)
			*got = tag
		})
		return middleware.Session(mgr)(middleware.Locale(mgr.Storage(), supported...)(inner))
	}

	t.Run("falls back to the first supported language", func(t *testing.T) {
		t.Parallel()

		var got language.Tag
		w := httptest.NewRecorder()
		newHandler(session.NewManager(), &got).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, language.English, got)
		assert.Equal(t, "en", w.Header().Get("Content-Language"))
	})

	t.Run("uses accept-language", func(t *testing.T) {
		t.Parallel()

		var got language.Tag
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Language", "de-DE,de;q=0.9,en;q=0.5")

		newHandler(session.NewManager(), &got).ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, language.German, got)
	})

	t.Run("session language wins over the header", func(t *testing.T) {
		t.Parallel()

		mgr := session.NewManager()
		s, _ := mgr.Ensure("")
		require.NoError(t, mgr.Storage().Set(session.WithSession(t.Context(), s), "lang", "de"))

		var got language.Tag
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Language", "en-US")
		req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: s.Token()})

		newHandler(mgr, &got).ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, language.German, got)
	})

	t.Run("unsupported language falls back", func(t *testing.T) {
		t.Parallel()

		var got language.Tag
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Language", "ja")

		newHandler(session.NewManager(), &got).ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, language.English, got)
	})

	t.Run("requires supported languages", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			middleware.Locale(nil)
		})
	})
}
