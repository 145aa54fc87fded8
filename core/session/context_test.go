package session_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/rpgconsent/core/logger"
	"github.com/dmitrymomot/rpgconsent/core/session"
)

func TestContext(t *testing.T) {
	t.Parallel()

	_, ok := session.FromContext(context.Background())
	assert.False(t, ok)

	_, ok = session.FromContext(session.WithSession(context.Background(), nil))
	assert.False(t, ok)

	_, ok = session.ClientFromContext(context.Background())
	assert.False(t, ok)

	mgr := session.NewManager()
	s, _ := mgr.Ensure("")
	got, ok := session.FromContext(ctxWith(s))
	require.True(t, ok)
	assert.Same(t, s, got)

	c := &testClient{id: "c1"}
	gotClient, ok := session.ClientFromContext(session.WithClient(context.Background(), c))
	require.True(t, ok)
	assert.Equal(t, "c1", gotClient.ID())
}

func TestLogExtractor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithJSONFormatter(),
		logger.WithOutput(&buf),
		logger.WithContextExtractors(session.LogExtractor),
	)

	mgr := session.NewManager()
	s, _ := mgr.Ensure("")
	ctx := ctxWith(s)
	require.NoError(t, mgr.BeginUserSession(ctx, "alice"))

	log.InfoContext(ctx, "sheet saved")

	var rec struct {
		Session struct {
			ID     string `json:"id"`
			UserID string `json:"user_id"`
		} `json:"session"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, s.ID.String(), rec.Session.ID)
	assert.Equal(t, "alice", rec.Session.UserID)
	assert.NotContains(t, buf.String(), s.Token())

	_, ok := session.LogExtractor(context.Background())
	assert.False(t, ok)
}

func TestSessionInfo(t *testing.T) {
	t.Parallel()

	mgr := session.NewManager()
	s, _ := mgr.Ensure("")
	ctx := ctxWith(s)
	require.NoError(t, mgr.Storage().Set(ctx, "lang", "de"))

	info := s.Info()
	info.Data["lang"] = "en"

	assert.Equal(t, "de", mgr.Storage().Get(ctx, "lang", nil))

	raw, err := json.Marshal(s.Info())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), s.Token())
	assert.Contains(t, string(raw), s.ID.String())
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	cfg := session.DefaultConfig()
	assert.Equal(t, "rpg_session", cfg.CookieName)
	assert.Equal(t, session.DefaultTTL, cfg.TTL)
	assert.Equal(t, session.DefaultRotationGrace, cfg.RotationGrace)

	cfg.CookieName = "custom"
	mgr := session.NewFromConfig(cfg, session.WithCookieName("override"))
	s, _ := mgr.Ensure("")

	w := httptest.NewRecorder()
	require.NoError(t, mgr.WriteCookie(w, s))
	assert.Contains(t, w.Header().Get("Set-Cookie"), "override=")

	cfg.CookieDomain = "table.example"
	cfg.BaseURL = "https://table.example"
	mgr = session.NewFromConfig(cfg)
	s, _ = mgr.Ensure("")

	w = httptest.NewRecorder()
	require.NoError(t, mgr.WriteCookie(w, s))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "table.example", cookies[0].Domain)
	assert.True(t, cookies[0].Secure)
}
