// Package logging provides structured logging for Ratewise Core.
//
// It wraps the standard library log/slog with configuration-driven
// format and level selection plus default service fields. All loggers
// are safe for concurrent use.
//
// Usage:
//
//	log := logging.New(cfg.Logging, version)
//	authLog := log.With("component", "auth")
//	authLog.Info("token rotated", "user_id", id)
package logging
