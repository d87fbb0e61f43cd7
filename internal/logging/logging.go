// Package logging provides the small logger seam the firewall uses to
// report dropped patterns and block decisions to a host-supplied sink,
// without ever persisting an audit trail of its own.
package logging

import "log"

// Logger is the minimal surface components take a dependency on. A host
// can supply any implementation (structured logger, no-op, test spy);
// Default wraps the standard library logger the way the teacher's
// internal packages call log.Printf directly.
type Logger interface {
	Printf(format string, args ...any)
}

// Default returns a Logger backed by the standard library's log package,
// prefixing every line with component, matching the teacher's
// "[component] message" convention.
func Default(component string) Logger {
	return &stdLogger{prefix: "[" + component + "] "}
}

type stdLogger struct {
	prefix string
}

func (l *stdLogger) Printf(format string, args ...any) {
	log.Printf(l.prefix+format, args...)
}

// Noop discards everything. Useful for tests and for hosts that want the
// firewall silent.
func Noop() Logger { return noopLogger{} }

type noopLogger struct{}

func (noopLogger) Printf(string, ...any) {}
