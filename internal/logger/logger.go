// Package logger builds the process-wide zerolog logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	tlog "go.temporal.io/sdk/log"
)

// New returns a logger at level. pretty selects the console writer used in development.
func New(level string, pretty bool) zerolog.Logger {
	return newWithWriter(os.Stdout, level, pretty)
}

func newWithWriter(w io.Writer, level string, pretty bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Temporal adapts a zerolog logger to the Temporal SDK logger
type Temporal struct {
	log zerolog.Logger
}

var (
	_ tlog.Logger     = (*Temporal)(nil)
	_ tlog.WithLogger = (*Temporal)(nil)
)

func NewTemporal(log zerolog.Logger) *Temporal {
	return &Temporal{log: log.With().Str("component", "temporal").Logger()}
}

func (t *Temporal) Debug(msg string, keyvals ...interface{}) {
	withFields(t.log.Debug(), keyvals).Msg(msg)
}

func (t *Temporal) Info(msg string, keyvals ...interface{}) {
	withFields(t.log.Info(), keyvals).Msg(msg)
}

func (t *Temporal) Warn(msg string, keyvals ...interface{}) {
	withFields(t.log.Warn(), keyvals).Msg(msg)
}

func (t *Temporal) Error(msg string, keyvals ...interface{}) {
	withFields(t.log.Error(), keyvals).Msg(msg)
}

func (t *Temporal) With(keyvals ...interface{}) tlog.Logger {
	ctx := t.log.With()
	for i := 0; i < len(keyvals); i += 2 {
		key, val := pair(keyvals, i)
		ctx = ctx.Interface(key, val)
	}
	return &Temporal{log: ctx.Logger()}
}

func withFields(e *zerolog.Event, keyvals []interface{}) *zerolog.Event {
	for i := 0; i < len(keyvals); i += 2 {
		key, val := pair(keyvals, i)
		if err, ok := val.(error); ok {
			e = e.AnErr(key, err)
			continue
		}
		e = e.Interface(key, val)
	}
	return e
}

// pair reads the key at i and its value; a dangling key gets a nil value.
func pair(keyvals []interface{}, i int) (string, interface{}) {
	key, ok := keyvals[i].(string)
	if !ok {
		key = fmt.Sprint(keyvals[i])
	}
	if i+1 >= len(keyvals) {
		return key, nil
	}
	return key, keyvals[i+1]
}
