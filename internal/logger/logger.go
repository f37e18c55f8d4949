// README: zerolog construction shared by the API server and the CLI.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger tagged with component. format "console" writes
// human-readable lines; anything else writes JSON. An unknown level falls
// back to info.
func New(component, level, format string) zerolog.Logger {
	return NewWithWriter(os.Stdout, component, level, format)
}

func NewWithWriter(w io.Writer, component, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("component", component).Logger()
}
