package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

type Config struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=console json"`
}

// New builds the process logger. Diagnostics go to w (stderr when nil) so
// stdout stays free for progress output.
func New(cfg Config, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.WarnLevel
	}

	var zl zerolog.Logger
	if strings.ToLower(cfg.Format) == FormatJSON {
		zl = zerolog.New(w)
	} else {
		zl = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"})
	}
	return zl.Level(level).With().Timestamp().Logger()
}

// Logf adapts a logger to the printf-style progress hook used by the
// pipeline. Lines are logged at info level under the given component.
func Logf(zl zerolog.Logger, component string) func(format string, args ...any) {
	l := zl.With().Str("component", component).Logger()
	return func(format string, args ...any) {
		l.Info().Msg(fmt.Sprintf(format, args...))
	}
}
