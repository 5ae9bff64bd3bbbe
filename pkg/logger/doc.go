// Package logger builds configured log/slog loggers for the toolkit.
//
// Production code gets structured JSON, development gets readable text:
//
//	log := logger.New(logger.WithProduction("mailkit"))
//	log.Info("chunk dispatched", "chunk", 2, "emails", 100)
//
// Client packages accept a *slog.Logger through their options and default
// to a no-op logger, so the library never logs unless asked to.
package logger
