package canvas

import (
	"io"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// loggerPtr stores the active logger. By default it discards everything.
var loggerPtr atomic.Pointer[log.Logger]

func init() {
	loggerPtr.Store(newDiscardLogger())
}

func newDiscardLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// SetLogger configures the logger used by canvas and its sub-packages.
// Pass nil to restore the silent default.
//
// Levels used:
//   - debug: per-frame statistics when the scene's debug mode is on
//   - info: renderer lifecycle (pipelines created, context restored)
//   - warn: skipped nodes, GPU allocation failures, context loss
func SetLogger(l *log.Logger) {
	if l == nil {
		l = newDiscardLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger.
func Logger() *log.Logger {
	return loggerPtr.Load()
}
