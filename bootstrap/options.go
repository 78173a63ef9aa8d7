package bootstrap

import (
	"os"
	"syscall"
	"time"

	"github.com/kbukum/gatewayprobe/logger"
)

const defaultGracefulTimeout = 15 * time.Second

// Option configures NewApp. Options are not generic, so they work with any
// config type.
type Option func(*settings)

// settings are the App parameters not carried by the config.
type settings struct {
	logger          *logger.Logger
	gracefulTimeout time.Duration
	signals         []os.Signal
}

func newSettings(opts []Option) settings {
	s := settings{
		gracefulTimeout: defaultGracefulTimeout,
		signals:         []os.Signal{syscall.SIGINT, syscall.SIGTERM},
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithLogger replaces the logger built from the Logging config section.
func WithLogger(l *logger.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithGracefulTimeout bounds how long stopping the components may take.
func WithGracefulTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.gracefulTimeout = d
		}
	}
}

// WithSignals replaces the signals that cancel a running task
// (default SIGINT and SIGTERM).
func WithSignals(sigs ...os.Signal) Option {
	return func(s *settings) { s.signals = sigs }
}
