package vm

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the vm package's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the vm package's logger.
// This must be called before any VM is created.
func SetLogger(l *zap.Logger) {
	logger = l
}

// debugShapes enables verbose per-transition logging through the package logger.
var debugShapes = false

func debugf(format string, args ...any) {
	if debugShapes {
		Logger().Sugar().Debugf(format, args...)
	}
}
