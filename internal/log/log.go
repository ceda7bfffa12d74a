// Package log holds the package-level logger the rest of the engine writes
// to. It defaults to a no-op logger so library use is silent unless a host
// application opts in.
package log

import "go.uber.org/zap"

var logger = zap.NewNop()

// Set installs l as the package-level logger. Passing nil restores the
// no-op default.
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

// L returns the current package-level logger.
func L() *zap.Logger {
	return logger
}
