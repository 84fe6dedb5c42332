// Package logging configures log/slog for the hostpulse binaries.
//
// Records are JSON on stderr and carry module and version attributes:
//
//	{"time":"2026-03-02T10:30:00Z","level":"INFO","msg":"starting","module":"hostpulsed","version":"v0.3.1"}
//
// The level comes from LOG_LEVEL (debug, info, warn, error; default info)
// or, in the CLI, from --log-level. Debug records also carry the source
// location.
//
//	logging.SetDefaultStructuredLogger("hostpulsed", version)
//	slog.Info("collectors ready", "target", "ssh")
//
// NewLogLogger adapts the default handler for APIs that still take a
// *log.Logger, such as http.Server.ErrorLog.
package logging
