package live_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/rpgconsent/core/live"
	"github.com/dmitrymomot/rpgconsent/core/session"
	"github.com/dmitrymomot/rpgconsent/middleware"
)

type frame struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

func newServer(t *testing.T, opts ...live.Option) (*session.Manager, *live.Hub, *httptest.Server) {
	t.Helper()
	mgr := session.NewManager()
	hub := live.NewHub(mgr, opts...)
	srv := httptest.NewServer(middleware.Session(mgr)(hub))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return mgr, hub, srv
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	if token != "" {
		header.Set("Cookie", session.DefaultCookieName+"="+token)
	}
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestHub_ConnectSendsSessionState(t *testing.T) {
	t.Parallel()

	mgr, hub, srv := newServer(t)
	s, _ := mgr.Ensure("")
	require.NoError(t, mgr.BeginUserSession(session.WithSession(context.Background(), s), "alice"))

	conn := dial(t, srv, s.Token())

	f := readFrame(t, conn)
	assert.Equal(t, live.FrameSessionChanged, f.Type)
	assert.Equal(t, s.ID.String(), f.Data["session_id"])
	assert.Equal(t, "alice", f.Data["user_id"])
	assert.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 10*time.Millisecond)
}

func TestHub_EventsMutateTheSession(t *testing.T) {
	t.Parallel()

	mgr, _, srv := newServer(t)
	s, _ := mgr.Ensure("")

	conn := dial(t, srv, s.Token())
	readFrame(t, conn)

	require.NoError(t, conn.WriteJSON(live.Event{Type: live.EventSessionSet, Key: "lang", Value: "de"}))

	f := readFrame(t, conn)
	assert.Equal(t, live.FrameSessionChanged, f.Type)
	assert.Equal(t, []any{"lang"}, f.Data["keys"])
	assert.Equal(t, "de", mgr.Storage().Get(session.WithSession(context.Background(), s), "lang", nil))

	require.NoError(t, conn.WriteJSON(live.Event{Type: live.EventSessionGet, Key: "lang"}))
	f = readFrame(t, conn)
	assert.Equal(t, live.FrameSessionValue, f.Type)
	assert.Equal(t, "de", f.Data["value"])
}

func TestHub_ChangesFanOutToBoundClients(t *testing.T) {
	t.Parallel()

	mgr, hub, srv := newServer(t)
	s, _ := mgr.Ensure("")
	other, _ := mgr.Ensure("")

	first := dial(t, srv, s.Token())
	second := dial(t, srv, s.Token())
	stranger := dial(t, srv, other.Token())
	readFrame(t, first)
	readFrame(t, second)
	readFrame(t, stranger)
	require.Eventually(t, func() bool { return hub.Len() == 3 }, time.Second, 10*time.Millisecond)

	// A mutation from a plain request reaches both tabs of the same session.
	require.NoError(t, mgr.Storage().Set(session.WithSession(context.Background(), s), "campaign", "dragonfall"))

	for _, conn := range []*websocket.Conn{first, second} {
		f := readFrame(t, conn)
		assert.Equal(t, live.FrameSessionChanged, f.Type)
		assert.Equal(t, []any{"campaign"}, f.Data["keys"])
	}

	require.NoError(t, stranger.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	var f frame
	assert.Error(t, stranger.ReadJSON(&f))
}

func TestHub_InvalidEvents(t *testing.T) {
	t.Parallel()

	mgr, _, srv := newServer(t)
	s, _ := mgr.Ensure("")

	conn := dial(t, srv, s.Token())
	readFrame(t, conn)

	require.NoError(t, conn.WriteJSON(live.Event{Type: "dice.roll"}))
	f := readFrame(t, conn)
	assert.Equal(t, live.FrameError, f.Type)
	assert.Contains(t, f.Data["message"], "unknown live event")

	require.NoError(t, conn.WriteJSON(live.Event{Type: live.EventSessionSet}))
	f = readFrame(t, conn)
	assert.Equal(t, live.FrameError, f.Type)

	require.NoError(t, conn.WriteJSON(live.Event{Type: live.EventSessionDelete, Key: "missing"}))
	f = readFrame(t, conn)
	assert.Equal(t, live.FrameError, f.Type)
	assert.Contains(t, f.Data["message"], session.ErrKeyNotFound.Error())
}

func TestHub_IdentityIsReadOnly(t *testing.T) {
	t.Parallel()

	t.Run("anonymous client cannot set an identity", func(t *testing.T) {
		t.Parallel()

		mgr, _, srv := newServer(t)
		s, _ := mgr.Ensure("")

		conn := dial(t, srv, s.Token())
		readFrame(t, conn)

		require.NoError(t, conn.WriteJSON(live.Event{Type: live.EventSessionSet, Key: session.UserIDKey, Value: "admin"}))
		f := readFrame(t, conn)
		assert.Equal(t, live.FrameError, f.Type)
		assert.Contains(t, f.Data["message"], live.ErrInvalidEvent.Error())

		assert.Empty(t, s.UserID())
		assert.False(t, s.NeedsRotation())
		assert.Empty(t, mgr.CurrentUserID(session.WithSession(context.Background(), s)))
	})

	t.Run("signed in client cannot drop its identity", func(t *testing.T) {
		t.Parallel()

		mgr, _, srv := newServer(t)
		s, _ := mgr.Ensure("")
		require.NoError(t, mgr.BeginUserSession(session.WithSession(context.Background(), s), "alice"))

		conn := dial(t, srv, s.Token())
		readFrame(t, conn)

		require.NoError(t, conn.WriteJSON(live.Event{Type: live.EventSessionDelete, Key: session.UserIDKey}))
		f := readFrame(t, conn)
		assert.Equal(t, live.FrameError, f.Type)
		assert.Contains(t, f.Data["message"], live.ErrInvalidEvent.Error())
		assert.Equal(t, "alice", s.UserID())
	})
}

func TestHub_SharedStoreCachesToken(t *testing.T) {
	t.Parallel()

	stores := make(chan session.SharedStore, 1)
	mgr := session.NewManager()
	hub := live.NewHub(mgr, live.WithSharedStore(func(string) session.SharedStore {
		st := session.NewMemoryShared()
		stores <- st
		return st
	}))
	// Without the session middleware the client resolves through its cookie.
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})

	s, _ := mgr.Ensure("")
	conn := dial(t, srv, s.Token())
	f := readFrame(t, conn)
	assert.Equal(t, s.ID.String(), f.Data["session_id"])

	st := <-stores
	token, ok, err := st.Get(context.Background(), session.SharedTokenKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, s.Token(), token)
}

func TestHub_Close(t *testing.T) {
	t.Parallel()

	mgr, hub, srv := newServer(t)
	s, _ := mgr.Ensure("")

	conn := dial(t, srv, s.Token())
	readFrame(t, conn)
	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 10*time.Millisecond)

	hub.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
	assert.Eventually(t, func() bool { return hub.Len() == 0 }, time.Second, 10*time.Millisecond)

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestHub_ClientIDResume(t *testing.T) {
	t.Parallel()

	ids := make(chan string, 4)
	mgr := session.NewManager()
	hub := live.NewHub(mgr, live.WithSharedStore(func(id string) session.SharedStore {
		ids <- id
		return session.NewMemoryShared()
	}))
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})

	base := "ws" + strings.TrimPrefix(srv.URL, "http")
	connect := func(query string) (*websocket.Conn, frame) {
		conn, resp, err := websocket.DefaultDialer.Dial(base+query, nil)
		require.NoError(t, err)
		_ = resp.Body.Close()
		t.Cleanup(func() { _ = conn.Close() })
		return conn, readFrame(t, conn)
	}

	resumed := uuid.NewString()
	_, f := connect("?" + live.ClientIDParam + "=" + resumed)
	assert.Equal(t, resumed, f.Data["client_id"])
	assert.Equal(t, resumed, <-ids)

	// The id is taken while the first connection is open.
	_, f = connect("?" + live.ClientIDParam + "=" + resumed)
	assert.NotEqual(t, resumed, f.Data["client_id"])
	assert.NotEqual(t, resumed, <-ids)

	_, f = connect("?" + live.ClientIDParam + "=not-a-uuid")
	assert.NotEqual(t, "not-a-uuid", f.Data["client_id"])
	assert.NotEmpty(t, <-ids)
}

// sharedStores hands out a fixed store per client id, so tests can seed and
// inspect what a client had cached before it connected.
type sharedStores map[string]*session.MemoryShared

func (st sharedStores) factory(id string) session.SharedStore {
	if store, ok := st[id]; ok {
		return store
	}
	return session.NewMemoryShared()
}

func seedShared(t *testing.T, values map[string]string) *session.MemoryShared {
	t.Helper()
	store := session.NewMemoryShared()
	for k, v := range values {
		require.NoError(t, store.Set(context.Background(), k, v))
	}
	return store
}

func dialClient(t *testing.T, srv *httptest.Server, clientID, token string) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	if token != "" {
		header.Set("Cookie", session.DefaultCookieName+"="+token)
	}
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?" + live.ClientIDParam + "=" + clientID
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func cached(t *testing.T, store session.SharedStore, key string) (string, bool) {
	t.Helper()
	v, ok, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	return v, ok
}

func TestHub_ResumeThroughSharedStore(t *testing.T) {
	t.Parallel()

	t.Run("cached token wins over a session created for the upgrade", func(t *testing.T) {
		t.Parallel()

		clientID := uuid.NewString()
		mgr := session.NewManager()
		s, _ := mgr.Ensure("")
		require.NoError(t, mgr.BeginUserSession(session.WithSession(context.Background(), s), "alice"))

		stores := sharedStores{clientID: seedShared(t, map[string]string{session.SharedTokenKey: s.Token()})}
		hub := live.NewHub(mgr, live.WithSharedStore(stores.factory))
		srv := httptest.NewServer(middleware.Session(mgr)(hub))
		t.Cleanup(func() {
			hub.Close()
			srv.Close()
		})

		conn := dialClient(t, srv, clientID, "")
		f := readFrame(t, conn)
		assert.Equal(t, clientID, f.Data["client_id"])
		assert.Equal(t, s.ID.String(), f.Data["session_id"])
		assert.Equal(t, "alice", f.Data["user_id"])

		userID, _ := cached(t, stores[clientID], session.SharedUserIDKey)
		assert.Equal(t, "alice", userID)

		// Events keep going to the resumed session.
		require.NoError(t, conn.WriteJSON(live.Event{Type: live.EventSessionSet, Key: "lang", Value: "fr"}))
		f = readFrame(t, conn)
		assert.Equal(t, s.ID.String(), f.Data["session_id"])
		assert.Equal(t, "fr", mgr.Storage().Get(session.WithSession(context.Background(), s), "lang", nil))
	})

	t.Run("stale cached token restores the cached identity", func(t *testing.T) {
		t.Parallel()

		clientID := uuid.NewString()
		mgr := session.NewManager()
		stores := sharedStores{clientID: seedShared(t, map[string]string{
			session.SharedTokenKey:  "stale-token",
			session.SharedUserIDKey: "alice",
		})}
		hub := live.NewHub(mgr, live.WithSharedStore(stores.factory))
		srv := httptest.NewServer(middleware.Session(mgr)(hub))
		t.Cleanup(func() {
			hub.Close()
			srv.Close()
		})

		conn := dialClient(t, srv, clientID, "")
		f := readFrame(t, conn)
		assert.Equal(t, "alice", f.Data["user_id"])

		token, ok := cached(t, stores[clientID], session.SharedTokenKey)
		require.True(t, ok)
		assert.NotEqual(t, "stale-token", token)

		s, ok := mgr.Lookup(token)
		require.True(t, ok)
		assert.Equal(t, s.ID.String(), f.Data["session_id"])
		assert.Equal(t, "alice", s.UserID())
	})

	t.Run("a valid cookie keeps its session", func(t *testing.T) {
		t.Parallel()

		clientID := uuid.NewString()
		mgr := session.NewManager()
		s, _ := mgr.Ensure("")
		other, _ := mgr.Ensure("")
		stores := sharedStores{clientID: seedShared(t, map[string]string{session.SharedTokenKey: other.Token()})}
		hub := live.NewHub(mgr, live.WithSharedStore(stores.factory))
		srv := httptest.NewServer(middleware.Session(mgr)(hub))
		t.Cleanup(func() {
			hub.Close()
			srv.Close()
		})

		conn := dialClient(t, srv, clientID, s.Token())
		f := readFrame(t, conn)
		assert.Equal(t, s.ID.String(), f.Data["session_id"])

		token, _ := cached(t, stores[clientID], session.SharedTokenKey)
		assert.Equal(t, s.Token(), token)
	})
}

func TestHub_LogoutClearsCachedIdentity(t *testing.T) {
	t.Parallel()

	clientID := uuid.NewString()
	mgr := session.NewManager()
	s, _ := mgr.Ensure("")
	ctx := session.WithSession(context.Background(), s)
	require.NoError(t, mgr.BeginUserSession(ctx, "alice"))

	stores := sharedStores{clientID: session.NewMemoryShared()}
	hub := live.NewHub(mgr, live.WithSharedStore(stores.factory))
	srv := httptest.NewServer(middleware.Session(mgr)(hub))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})

	conn := dialClient(t, srv, clientID, s.Token())
	f := readFrame(t, conn)
	assert.Equal(t, "alice", f.Data["user_id"])
	userID, _ := cached(t, stores[clientID], session.SharedUserIDKey)
	assert.Equal(t, "alice", userID)

	require.NoError(t, mgr.EndUserSession(ctx))

	f = readFrame(t, conn)
	assert.Equal(t, live.FrameSessionChanged, f.Type)
	assert.Nil(t, f.Data["user_id"])
	_, ok := cached(t, stores[clientID], session.SharedUserIDKey)
	assert.False(t, ok)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Len() == 0 }, time.Second, 10*time.Millisecond)

	// Reconnecting with a dead cookie resumes the signed-out session anonymously.
	conn = dialClient(t, srv, clientID, "gone")
	f = readFrame(t, conn)
	assert.Equal(t, clientID, f.Data["client_id"])
	assert.Equal(t, s.ID.String(), f.Data["session_id"])
	assert.Nil(t, f.Data["user_id"])
	assert.Empty(t, s.UserID())
}
