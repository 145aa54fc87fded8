// Package logger provides structured logging utilities built on Go's standard slog package.
//
// # Basic Usage
//
//	log := logger.New(
//		logger.WithDevelopment("rpgconsent"),
//		logger.WithLevel(slog.LevelDebug),
//	)
//
//	log.Info("Server starting",
//		logger.Component("server"),
//		logger.Event("startup"),
//	)
//
// # Context-Aware Logging
//
// Extractors add request-scoped attributes to every *Context call:
//
//	log := logger.New(
//		logger.WithProduction("rpgconsent"),
//		logger.WithContextExtractors(session.LogExtractor),
//	)
//
//	log.InfoContext(r.Context(), "consent sheet saved") // carries session_id and user_id
//
// # Attribute Helpers
//
// Helpers return an empty slog.Attr for empty input, so they can be passed
// unconditionally:
//
//	log.Error("listener failed", logger.Component("session"), logger.Error(err))
//
// Session tokens are bearer secrets and must never be logged; use SessionID with
// the stable session ID instead.
package logger
