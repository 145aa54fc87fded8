package middleware

import (
	"context"
	"net/http"

	"golang.org/x/text/language"

	"github.com/dmitrymomot/rpgconsent/core/session"
)

// LocaleSessionKey is the session storage key holding the user's chosen language.
const LocaleSessionKey = "lang"

type localeContextKey struct{}

// LocaleConfig configures the locale middleware.
type LocaleConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(r *http.Request) bool
	// Supported lists the languages the UI is translated into. The first entry is the fallback.
	Supported []language.Tag
	// Storage reads the session language preference. Optional; without it only
	// Accept-Language is consulted.
	Storage *session.Storage
	// SessionKey overrides LocaleSessionKey.
	SessionKey string
}

// Locale resolves the request language and stores the matched tag in the context.
// A language saved in the session wins over the Accept-Language header.
// Mount it after the session middleware.
//
//	r.Use(middleware.Session(mgr))
//	r.Use(middleware.Locale(mgr.Storage(), language.English, language.German))
func Locale(storage *session.Storage, supported ...language.Tag) func(http.Handler) http.Handler {
	return LocaleWithConfig(LocaleConfig{Storage: storage, Supported: supported})
}

// LocaleWithConfig creates a locale middleware with custom configuration.
func LocaleWithConfig(cfg LocaleConfig) func(http.Handler) http.Handler {
	if len(cfg.Supported) == 0 {
		panic("locale middleware: at least one supported language is required")
	}

	if cfg.SessionKey == "" {
		cfg.SessionKey = LocaleSessionKey
	}

	matcher := language.NewMatcher(cfg.Supported)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip != nil && cfg.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()

			var preferred []string
			if cfg.Storage != nil {
				if lang := cfg.Storage.String(ctx, cfg.SessionKey, ""); lang != "" {
					preferred = append(preferred, lang)
				}
			}
			if accept := r.Header.Get("Accept-Language"); accept != "" {
				preferred = append(preferred, accept)
			}

			tag := cfg.Supported[0]
			if len(preferred) > 0 {
				_, idx, conf := matcher.Match(parseTags(preferred)...)
				if conf != language.No {
					tag = cfg.Supported[idx]
				}
			}

			w.Header().Set("Content-Language", tag.String())
			next.ServeHTTP(w, r.WithContext(WithLocale(ctx, tag)))
		})
	}
}

// parseTags turns session values and Accept-Language headers into an ordered
// preference list. Malformed entries are skipped.
func parseTags(values []string) []language.Tag {
	var tags []language.Tag
	for _, v := range values {
		parsed, _, err := language.ParseAcceptLanguage(v)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	return tags
}

// WithLocale returns a copy of ctx carrying tag.
func WithLocale(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, localeContextKey{}, tag)
}

// GetLocale returns the language resolved by the Locale middleware.
func GetLocale(ctx context.Context) (language.Tag, bool) {
	tag, ok := ctx.Value(localeContextKey{}).(language.Tag)
	return tag, ok
}
