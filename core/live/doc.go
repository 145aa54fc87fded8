// Package live keeps server-rendered UI fragments in sync with session state
// over WebSocket connections.
//
// Each connection is a Client implementing session.Client: it remembers the
// upgrade request (and so the session cookie and the session placed in its
// context by the session middleware) and owns a shared key/value store that
// caches the session token and identity. Events arriving on the connection are
// handled with a context carrying the client, so session.Manager.Resolve and
// session.Storage find the right session without a request of their own.
//
// A browser that reconnects with ?client=<client_id> keeps its client id, and
// with a persistent shared store also its cached token and identity. The cached
// token is preferred over a session the middleware had to create for the upgrade
// request; a cookie that still resolves is preferred over the cache.
//
// The hub registers a session listener; every mutation of a session refreshes
// the shared stores of the clients bound to it and pushes them a session.changed
// frame. The identity key is read-only over the connection.
//
//	hub := live.NewHub(mgr,
//		live.WithLogger(log),
//		live.WithObserver(m),
//		live.WithSharedStore(redisShared.For),
//	)
//	r.With(middleware.Session(mgr)).Handle("/live", hub)
//	g.Go(hub.Run(ctx))
//
// Wire format, server to client:
//
//	{"type":"session.changed","data":{"client_id":"…","session_id":"…","user_id":"alice","keys":["lang"]}}
//
// client to server:
//
//	{"type":"session.set","key":"lang","value":"de"}
package live
