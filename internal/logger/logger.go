package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New builds the process logger. Output is JSON on stderr unless dev is set,
// in which case a console writer is used.
func New(level string, dev bool) zerolog.Logger {
	return NewWithWriter(os.Stderr, level, dev)
}

func NewWithWriter(w io.Writer, level string, dev bool) zerolog.Logger {
	// Cloud Logging parses the level from "severity".
	zerolog.LevelFieldName = "severity"
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if dev {
		w = zerolog.ConsoleWriter{Out: w}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(w).With().Timestamp().Logger().Level(lvl)
}
