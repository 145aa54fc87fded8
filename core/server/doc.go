// Package server wraps http.Server with graceful shutdown, environment-driven
// configuration and structured logging.
//
// # Basic Usage
//
//	srv := server.New(":8080",
//		server.WithLogger(log),
//		server.WithShutdownTimeout(10*time.Second),
//	)
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Run(ctx, router))
//	if err := g.Wait(); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// Run returns a func() error so the server joins an errgroup alongside other
// background workers, such as the session reaper. When the group context is
// canceled the server drains in-flight requests within the shutdown timeout.
//
// # Configuration
//
// Config is loaded from SERVER_* environment variables:
//
//	var cfg server.Config
//	config.MustLoad(&cfg)
//	srv, err := server.NewFromConfig(cfg, server.WithLogger(log))
//
// Setting SERVER_TLS_CERT_FILE and SERVER_TLS_KEY_FILE serves HTTPS with a
// TLS 1.2 minimum.
//
// # Timeouts
//
// Read and write timeouts default to 15s and idle connections to 60s.
// Live client connections are upgraded to WebSocket, which clears the server
// deadlines on the hijacked connection.
package server
