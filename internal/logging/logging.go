// Package logging configures stewardctl's diagnostic logger.
//
// Diagnostics go to stderr through a zerolog console writer. Confirmations
// meant for the operator are written by the output package, not here.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// EnvLevel names the environment variable holding the log level.
const EnvLevel = "LOG_LEVEL"

const consoleTimeFormat = "15:04:05.000"

// Options controls logger construction.
type Options struct {
	Level   string // explicit level; LOG_LEVEL is used when empty
	Verbose bool   // forces debug
	Quiet   bool   // forces error; wins over Verbose
	Out     io.Writer
}

// New builds a console logger writing to opts.Out (stderr when nil).
func New(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	level := opts.Level
	if level == "" {
		level = os.Getenv(EnvLevel)
	}

	lvl := ParseLevel(level, zerolog.InfoLevel)
	if opts.Verbose {
		lvl = zerolog.DebugLevel
	}
	if opts.Quiet {
		lvl = zerolog.ErrorLevel
	}

	zerolog.ErrorFieldName = "err"

	cw := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: consoleTimeFormat,
		NoColor:    !isTerminal(out),
	}
	return zerolog.New(cw).Level(lvl).With().Timestamp().Logger()
}

// ParseLevel maps a level name to a zerolog level, falling back to def.
func ParseLevel(s string, def zerolog.Level) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "OFF", "DISABLED":
		return zerolog.Disabled
	default:
		return def
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
