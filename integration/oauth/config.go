package oauth

import "time"

// Config holds the settings of one OAuth2 / OpenID Connect provider.
type Config struct {
	Provider     string   `env:"OAUTH_PROVIDER" envDefault:"sso"`
	ClientID     string   `env:"OAUTH_CLIENT_ID"`
	ClientSecret string   `env:"OAUTH_CLIENT_SECRET"`
	AuthURL      string   `env:"OAUTH_AUTH_URL"`
	TokenURL     string   `env:"OAUTH_TOKEN_URL"`
	UserInfoURL  string   `env:"OAUTH_USERINFO_URL"`
	RedirectURL  string   `env:"OAUTH_REDIRECT_URL" envDefault:"http://localhost:8080/auth/callback"`
	Scopes       []string `env:"OAUTH_SCOPES" envDefault:"openid" envSeparator:","`
	// SubjectField is the userinfo claim holding the stable account identifier.
	SubjectField string `env:"OAUTH_SUBJECT_FIELD" envDefault:"sub"`

	AfterLoginURL  string        `env:"OAUTH_AFTER_LOGIN_URL" envDefault:"/"`
	AfterLogoutURL string        `env:"OAUTH_AFTER_LOGOUT_URL" envDefault:"/"`
	RequestTimeout time.Duration `env:"OAUTH_REQUEST_TIMEOUT" envDefault:"10s"`
}

// Enabled reports whether enough settings are present to run the code flow.
func (c Config) Enabled() bool {
	return c.ClientID != "" && c.AuthURL != "" && c.TokenURL != "" && c.UserInfoURL != ""
}
