package middleware

import (
	"maps"
	"net/http"
)

// SecurityHeadersConfig configures the security headers middleware.
type SecurityHeadersConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(r *http.Request) bool

	ContentTypeOptions        string
	FrameOptions              string
	StrictTransportSecurity   string
	ContentSecurityPolicy     string
	ReferrerPolicy            string
	PermissionsPolicy         string
	CrossOriginOpenerPolicy   string
	CrossOriginResourcePolicy string

	// CustomHeaders are set after the predefined ones and may override them.
	CustomHeaders map[string]string

	// IsDevelopment drops HSTS so local http:// origins keep working.
	IsDevelopment bool
}

// BalancedSecurity suits server-rendered pages that open a same-origin
// WebSocket and load assets from self.
var BalancedSecurity = SecurityHeadersConfig{
	ContentTypeOptions:        "nosniff",
	FrameOptions:              "SAMEORIGIN",
	StrictTransportSecurity:   "max-age=31536000; includeSubDomains",
	ContentSecurityPolicy:     "default-src 'self'; connect-src 'self' ws: wss:; img-src 'self' data:; style-src 'self' 'unsafe-inline'; frame-ancestors 'self'",
	ReferrerPolicy:            "strict-origin-when-cross-origin",
	PermissionsPolicy:         "geolocation=(), microphone=(), camera=()",
	CrossOriginOpenerPolicy:   "same-origin",
	CrossOriginResourcePolicy: "same-origin",
}

// SecurityHeaders adds the BalancedSecurity headers to every response.
func SecurityHeaders() func(http.Handler) http.Handler {
	return SecurityHeadersWithConfig(BalancedSecurity)
}

// SecurityHeadersWithConfig creates a security headers middleware with custom configuration.
// Empty fields are not sent.
func SecurityHeadersWithConfig(cfg SecurityHeadersConfig) func(http.Handler) http.Handler {
	if cfg.IsDevelopment {
		cfg.StrictTransportSecurity = ""
	}

	headers := make(map[string]string)
	for name, value := range map[string]string{
		"X-Content-Type-Options":       cfg.ContentTypeOptions,
		"X-Frame-Options":              cfg.FrameOptions,
		"Strict-Transport-Security":    cfg.StrictTransportSecurity,
		"Content-Security-Policy":      cfg.ContentSecurityPolicy,
		"Referrer-Policy":              cfg.ReferrerPolicy,
		"Permissions-Policy":           cfg.PermissionsPolicy,
		"Cross-Origin-Opener-Policy":   cfg.CrossOriginOpenerPolicy,
		"Cross-Origin-Resource-Policy": cfg.CrossOriginResourcePolicy,
	} {
		if value != "" {
			headers[name] = value
		}
	}
	maps.Copy(headers, cfg.CustomHeaders)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip == nil || !cfg.Skip(r) {
				h := w.Header()
				for name, value := range headers {
					h.Set(name, value)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
