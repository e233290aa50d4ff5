// SPDX-License-Identifier: EPL-2.0

// Package logging builds the zerolog logger shared by the CLI and server.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// LogLevel represents logging levels
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Format selects console or JSON output.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

type Config struct {
	Level  LogLevel
	Format Format
	// Output defaults to stderr.
	Output io.Writer
}

func DefaultConfig() Config {
	return Config{Level: LevelInfo, Format: FormatConsole, Output: os.Stderr}
}

// ParseLevel maps a LogLevel onto zerolog's levels.
func ParseLevel(l LogLevel) (zerolog.Level, error) {
	switch LogLevel(strings.ToLower(string(l))) {
	case LevelDebug:
		return zerolog.DebugLevel, nil
	case LevelInfo, "":
		return zerolog.InfoLevel, nil
	case LevelWarn, "warning":
		return zerolog.WarnLevel, nil
	case LevelError:
		return zerolog.ErrorLevel, nil
	}
	return zerolog.InfoLevel, fmt.Errorf("unknown log level %q", l)
}

// New returns a logger tagged with app=speechrig.
func New(cfg Config) (zerolog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), err
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	switch Format(strings.ToLower(string(cfg.Format))) {
	case FormatConsole, "":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	case FormatJSON:
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", cfg.Format)
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("app", "speechrig").
		Logger(), nil
}
