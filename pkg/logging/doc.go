// Package logging provides structured logging utilities for simplifiedapp.
//
// # Overview
//
// This package wraps the standard library slog package with the defaults and
// conventions used across the engine: module/version context injection, source
// location for debug logs, and the level names accepted by the reserved
// --log-level flag (notset, debug, info, warning, error, critical).
//
// # Features
//
//   - Text or JSON records to stderr
//   - Python-style level names, case-insensitive
//   - Optional forwarding to the systemd journal, or to syslog when no journal is reachable
//
// # Usage
//
// Setting the default logger:
//
//	err := logging.SetDefault(logging.Config{
//	    Module: "simplifiedapp",
//	    Level:  "debug",
//	}, "invocation", id)
//
// Building a logger from the reserved flags:
//
//	logger, err := logging.New(logging.Config{
//	    Module: "simplifiedapp",
//	    Level:  "warning",
//	    Syslog: true,
//	})
//	if err != nil {
//	    logger.Warn("system log unavailable", "error", err)
//	}
//	slog.SetDefault(logger)
//
// # Journal fields
//
// When forwarding to the journal, record attributes become journal fields with
// upper-cased names (module → MODULE, invocation → INVOCATION).
package logging
