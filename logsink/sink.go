// Package logsink gives the Context (see package evalctx) an injectable
// destination for the `info`/`warn` directives, without pulling in a logging
// framework the teacher never reaches for: gazelle_cc's own CLI entry points
// and library code call log.Printf/log.Fatalf directly.
package logsink

import (
	"fmt"
	"log"
)

// Level identifies the severity an `info`/`warn` directive logs at.
type Level int

const (
	Info Level = iota
	Warn
)

func (l Level) String() string {
	if l == Warn {
		return "warning"
	}
	return "info"
}

// Sink receives log messages emitted by `info`/`warn` directives and by
// non-fatal internal conditions (e.g. a dangling trailing backslash at EOF).
type Sink interface {
	Logf(level Level, origin string, format string, args ...any)
}

// Standard wraps a *log.Logger, formatting messages as
// "<level>: <origin>: <message>" the way gazelle_cc formats its own
// log.Printf diagnostics (e.g. "gazelle_cc: failed to collect ...").
type Standard struct {
	logger *log.Logger
}

// NewStandard builds a Sink backed by the given *log.Logger. A nil logger
// falls back to the standard library's default logger.
func NewStandard(logger *log.Logger) *Standard {
	if logger == nil {
		logger = log.Default()
	}
	return &Standard{logger: logger}
}

func (s *Standard) Logf(level Level, origin string, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if origin != "" {
		s.logger.Printf("%s: %s: %s", level, origin, msg)
		return
	}
	s.logger.Printf("%s: %s", level, msg)
}

// Discard is a Sink that drops every message; useful in tests that only
// assert on the expanded output and not on diagnostics.
type Discard struct{}

func (Discard) Logf(Level, string, string, ...any) {}
