// Package log provides a simple, leveled logging interface for ragroute.
//
// All ragroute components (engine, orchestrator, connectors, server) log
// through the Logger interface so callers can plug in whatever logging
// backend they already use.
//
// # Log Levels
//
// Five levels in order of increasing severity:
//
//   - LogLevelDebug: detailed debugging information
//   - LogLevelInfo: general informational messages (query lifecycle stages)
//   - LogLevelWarn: recoverable problems (degraded sources, fallbacks)
//   - LogLevelError: failures that need attention
//   - LogLevelNone: disables all logging output
//
// # Example Usage
//
//	// Create a logger with INFO level
//	logger := log.NewDefaultLogger(log.LogLevelInfo)
//
//	logger.Info("engine starting with %d sources", n)
//	logger.Warn("source %q degraded: timeout", name)
//
// # golog Integration
//
// For users who prefer github.com/kataras/golog:
//
//	glogger := golog.New()
//	glogger.SetPrefix("[ragroute] ")
//	logger := log.NewGologLogger(glogger)
//	logger.SetLevel(log.LogLevelDebug)
//
// # Custom Loggers
//
// Any type implementing Debug/Info/Warn/Error with printf-style signatures
// satisfies Logger, so adapters for structured loggers are a few lines.
//
// A package-level default logger is available via log.Info, log.Warn, etc.,
// and can be replaced with log.SetDefaultLogger.
package log
