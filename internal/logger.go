package internal

import (
	"github.com/thatguystone/revreplace"
)

// Indent is used when nesting multi-line messages
const Indent = "    "

type logger struct {
	prefix string
	logf   LogFunc
}

// LogFunc is the function called for everything
type LogFunc func(format string, a ...interface{})

// NewLogger creates a new revreplace.Logger that pushes everything to the
// given LogFunc with the given prefix.
func NewLogger(prefix string, logf LogFunc) revreplace.Logger {
	return &logger{
		prefix: prefix,
		logf:   logf,
	}
}

func (l *logger) Log(msg string) {
	l.logf("I: %s: %s", l.prefix, msg)
}

func (l *logger) Error(err error, msg string) {
	l.logf("E: %s: %s: %v", l.prefix, msg, err)
}
