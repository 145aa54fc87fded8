package oauth

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/dmitrymomot/rpgconsent/core/logger"
	"github.com/dmitrymomot/rpgconsent/core/session"
)

// Session keys holding the in-flight authorization request.
const (
	StateKey    = "oauth_state"
	VerifierKey = "oauth_verifier"
)

// Provider runs the authorization code flow against one provider and binds the
// resulting account identifier to the caller's session.
// Its handlers must run behind the session middleware.
type Provider struct {
	name         string
	config       *oauth2.Config
	userInfoURL  string
	subjectField string
	afterLogin   string
	afterLogout  string
	timeout      time.Duration

	mgr    *session.Manager
	logger *slog.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the provider logger.
func WithLogger(log *slog.Logger) Option {
	return func(p *Provider) {
		if log != nil {
			p.logger = log
		}
	}
}

// New creates a Provider from cfg.
func New(mgr *session.Manager, cfg Config, opts ...Option) (*Provider, error) {
	if mgr == nil || !cfg.Enabled() {
		return nil, ErrNotConfigured
	}

	p := &Provider{
		name: cfg.Provider,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		userInfoURL:  cfg.UserInfoURL,
		subjectField: cfg.SubjectField,
		afterLogin:   cfg.AfterLoginURL,
		afterLogout:  cfg.AfterLogoutURL,
		timeout:      cfg.RequestTimeout,
		mgr:          mgr,
		logger:       logger.Discard(),
	}
	if p.name == "" {
		p.name = "sso"
	}
	if p.subjectField == "" {
		p.subjectField = "sub"
	}
	if p.afterLogin == "" {
		p.afterLogin = "/"
	}
	if p.afterLogout == "" {
		p.afterLogout = "/"
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Name returns the provider name used in logs and metrics.
func (p *Provider) Name() string {
	return p.name
}

// Login stores a fresh state and PKCE verifier in the session and redirects
// to the provider's consent page.
func (p *Provider) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	storage := p.mgr.Storage()

	state := rand.Text()
	verifier := oauth2.GenerateVerifier()

	if err := storage.Set(ctx, StateKey, state); err != nil {
		p.fail(w, r, err)
		return
	}
	if err := storage.Set(ctx, VerifierKey, verifier); err != nil {
		p.fail(w, r, err)
		return
	}

	p.logger.DebugContext(ctx, "redirecting to oauth provider",
		logger.Component("oauth"),
		logger.Provider(p.name),
	)

	http.Redirect(w, r, p.config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)), http.StatusFound)
}

// Callback validates the state, exchanges the code, fetches the account subject
// and begins the user session. The session middleware rotates the token before
// the redirect reaches the browser.
func (p *Provider) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, err := p.authenticate(ctx, r)
	if err != nil {
		p.mgr.ObserveLogin(p.name, false)
		p.fail(w, r, err)
		return
	}

	if err := p.mgr.BeginUserSession(ctx, subject); err != nil {
		p.mgr.ObserveLogin(p.name, false)
		p.fail(w, r, errors.Join(ErrBeginSession, err))
		return
	}

	p.mgr.ObserveLogin(p.name, true)
	p.logger.InfoContext(ctx, "user authenticated",
		logger.Component("oauth"),
		logger.Provider(p.name),
		logger.UserID(subject),
		logger.Result("success"),
	)

	http.Redirect(w, r, p.afterLogin, http.StatusFound)
}

// Logout ends the user session and redirects to the post-logout page.
func (p *Provider) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := p.mgr.CurrentUserID(ctx)

	if err := p.mgr.EndUserSession(ctx); err != nil {
		p.fail(w, r, err)
		return
	}

	p.logger.InfoContext(ctx, "user logged out",
		logger.Component("oauth"),
		logger.UserID(userID),
	)

	http.Redirect(w, r, p.afterLogout, http.StatusSeeOther)
}

func (p *Provider) authenticate(ctx context.Context, r *http.Request) (string, error) {
	storage := p.mgr.Storage()

	expected := storage.String(ctx, StateKey, "")
	verifier := storage.String(ctx, VerifierKey, "")
	_ = storage.Delete(ctx, StateKey)
	_ = storage.Delete(ctx, VerifierKey)

	if e := r.FormValue("error"); e != "" {
		return "", fmt.Errorf("%w: %s", ErrProviderDenied, e)
	}

	state := r.FormValue("state")
	if state == "" || expected == "" || state != expected {
		return "", ErrStateMismatch
	}

	code := r.FormValue("code")
	if code == "" {
		return "", ErrMissingCode
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	token, err := p.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return "", errors.Join(ErrExchangeFailed, err)
	}

	return p.subject(ctx, token)
}

func (p *Provider) subject(ctx context.Context, token *oauth2.Token) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return "", errors.Join(ErrUserInfoFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return "", errors.Join(ErrUserInfoFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrUserInfoFailed, resp.StatusCode)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()

	var claims map[string]any
	if err := dec.Decode(&claims); err != nil {
		return "", errors.Join(ErrUserInfoFailed, err)
	}

	switch v := claims[p.subjectField].(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case json.Number:
		return v.String(), nil
	}

	return "", ErrMissingSubject
}

func (p *Provider) fail(w http.ResponseWriter, r *http.Request, err error) {
	p.logger.WarnContext(r.Context(), "authentication failed",
		logger.Component("oauth"),
		logger.Provider(p.name),
		logger.Path(r.URL.Path),
		logger.Result("failure"),
		logger.Error(err),
	)

	status := http.StatusBadRequest
	if errors.Is(err, session.ErrNoActiveSession) || errors.Is(err, ErrBeginSession) {
		status = http.StatusInternalServerError
	}
	http.Error(w, "Authentication failed", status)
}
