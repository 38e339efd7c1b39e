package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// zerologAdapter backs Logger with a real structured-logging sink.
type zerologAdapter struct {
	l zerolog.Logger
}

// NewZerolog builds the default Logger implementation. level accepts the
// usual zerolog names (debug, info, warn, error); anything unrecognized
// falls back to info.
func NewZerolog(w io.Writer, level string) Logger {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	l := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return &zerologAdapter{l: l}
}

func (z *zerologAdapter) with(ev *zerolog.Event, kv []any) *zerolog.Event {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, kv[i+1])
	}
	return ev
}

func (z *zerologAdapter) Debug(msg string, kv ...any) {
	z.with(z.l.Debug(), kv).Msg(msg)
}

func (z *zerologAdapter) Info(msg string, kv ...any) {
	z.with(z.l.Info(), kv).Msg(msg)
}

func (z *zerologAdapter) Warn(msg string, kv ...any) {
	z.with(z.l.Warn(), kv).Msg(msg)
}

func (z *zerologAdapter) Error(msg string, kv ...any) {
	z.with(z.l.Error(), kv).Msg(msg)
}
