package bootstrap

import (
	"os"
	"time"

	"github.com/kbukum/spikekit/logger"
)

// Option adjusts an App's lifecycle. Options carry no config type, so one
// set works for every App[C].
type Option func(*lifecycle)

// WithLogger skips logger.Init; the App logs through l instead.
func WithLogger(l *logger.Logger) Option {
	return func(lc *lifecycle) { lc.Logger = l }
}

// WithGracefulTimeout bounds the OnStop hooks. The default is 15s.
func WithGracefulTimeout(d time.Duration) Option {
	return func(lc *lifecycle) { lc.gracefulTimeout = d }
}

// WithSignals replaces SIGINT and SIGTERM as the signals that cancel a
// running task. Passing none disables signal handling.
func WithSignals(sigs ...os.Signal) Option {
	return func(lc *lifecycle) { lc.signals = append([]os.Signal(nil), sigs...) }
}
