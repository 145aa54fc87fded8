package cookie

import "net/http"

// attrs are the adjustable attributes of the cookies a Manager writes.
// Path=/, HttpOnly and SameSite=Lax are fixed.
type attrs struct {
	domain string
	maxAge int
	secure bool
}

// Option adjusts cookie attributes, either for a whole Manager (New) or for a single Set call.
type Option func(*attrs)

// WithDomain scopes cookies to domain and its subdomains.
func WithDomain(domain string) Option {
	return func(a *attrs) { a.domain = domain }
}

// WithMaxAge sets Max-Age in seconds. Zero omits it and the cookie ends with the browser session.
func WithMaxAge(seconds int) Option {
	return func(a *attrs) { a.maxAge = seconds }
}

// WithSecure restricts cookies to HTTPS.
func WithSecure(secure bool) Option {
	return func(a *attrs) { a.secure = secure }
}

// with returns a copy of a with opts applied; manager defaults are never mutated.
func (a attrs) with(opts []Option) attrs {
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

func (a attrs) cookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   a.domain,
		MaxAge:   a.maxAge,
		Secure:   a.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
