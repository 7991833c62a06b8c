// Package logger builds the zerolog loggers used by the order service binaries.
package logger

import (
	"io"
	"os"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	zpkgerrors "github.com/rs/zerolog/pkgerrors"
)

type stackTracer interface{ StackTrace() pkgerrors.StackTrace }

var configureOnce sync.Once

// configure teaches zerolog to render pkg/errors stacks, attaching one to
// plain errors so .Stack() always yields a trace.
func configure() {
	zerolog.ErrorStackMarshaler = func(err error) interface{} {
		if _, ok := err.(stackTracer); !ok {
			err = pkgerrors.WithStack(err)
		}
		return zpkgerrors.MarshalStack(err)
	}
}

// New returns a JSON logger on stdout tagged with the service name.
func New(serviceName string) zerolog.Logger {
	return NewWithWriter(serviceName, os.Stdout)
}

// NewWithWriter is New with an explicit sink.
func NewWithWriter(serviceName string, w io.Writer) zerolog.Logger {
	configureOnce.Do(configure)
	return zerolog.New(w).With().
		Str("service", serviceName).
		Timestamp().
		Logger()
}

// SetLevel parses a level name ("debug", "info", ...) and applies it globally.
// Unknown names leave the current level untouched.
func SetLevel(name string) {
	if name == "" {
		return
	}
	if lvl, err := zerolog.ParseLevel(name); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
}
