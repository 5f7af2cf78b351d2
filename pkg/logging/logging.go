// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Additional severities matching the level names accepted on the command line.
const (
	// LevelNotSet enables every record.
	LevelNotSet = slog.LevelDebug - 4
	// LevelCritical is above error and only used for fatal conditions.
	LevelCritical = slog.LevelError + 4
)

// SupportedLevels lists the level names accepted by ParseLogLevel, in
// increasing severity.
func SupportedLevels() []string {
	return []string{"notset", "debug", "info", "warning", "error", "critical"}
}

// Config describes how a logger is built.
type Config struct {
	// Module is attached to every record as the "module" attribute.
	Module string
	// Version is attached to every record as the "version" attribute.
	Version string
	// Level is a level name understood by ParseLogLevel.
	Level string
	// Output receives the records; defaults to os.Stderr.
	Output io.Writer
	// JSON selects the JSON handler instead of the text handler.
	JSON bool
	// Syslog forwards records to the system log instead of Output.
	Syslog bool
}

// ParseLogLevel converts a level name into a slog.Level.
// Names are case-insensitive; unknown names map to info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "notset", "trace":
		return LevelNotSet
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "critical", "fatal":
		return LevelCritical
	default:
		return slog.LevelInfo
	}
}

// IsValidLevel reports whether level is one of SupportedLevels (or an alias).
func IsValidLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "notset", "trace", "debug", "info", "warn", "warning", "error", "critical", "fatal":
		return true
	default:
		return false
	}
}

// New builds a logger from cfg. When cfg.Syslog is set and no system log is
// reachable, it falls back to cfg.Output and reports the failure.
func New(cfg Config) (*slog.Logger, error) {
	lvl := ParseLogLevel(cfg.Level)
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl <= slog.LevelDebug,
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	var handler slog.Handler
	var err error
	if cfg.Syslog {
		handler, err = newSystemHandler(cfg.Module, opts)
	}
	if handler == nil {
		if cfg.JSON {
			handler = slog.NewJSONHandler(out, opts)
		} else {
			handler = slog.NewTextHandler(out, opts)
		}
	}

	return slog.New(handler).With(
		slog.String("module", cfg.Module),
		slog.String("version", cfg.Version),
	), err
}

// SetDefault installs the logger built from cfg, extended with attrs, as the
// process default. The logger is installed even when the system log is
// unreachable; the returned error reports that fallback.
func SetDefault(cfg Config, attrs ...any) error {
	logger, err := New(cfg)
	slog.SetDefault(logger.With(attrs...))
	return err
}
