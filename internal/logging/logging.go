package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures zerolog for the process and returns the root logger.
// verbosity is the count of -v flags: 0 = warn, 1 = info, 2 = debug, 3+ = trace.
func Setup(verbosity int) zerolog.Logger {
	return SetupWithWriter(verbosity, nil)
}

// SetupWithWriter configures zerolog with an additional writer (e.g. a test buffer).
func SetupWithWriter(verbosity int, additionalWriter io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var writer io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
	if additionalWriter != nil {
		writer = zerolog.MultiLevelWriter(writer, additionalWriter)
	}

	logger := zerolog.New(writer).With().Timestamp().Logger().Level(Level(verbosity))
	log.Logger = logger
	return logger
}

// Level maps a -v count to a zerolog level.
func Level(verbosity int) zerolog.Level {
	switch {
	case verbosity <= 0:
		return zerolog.WarnLevel
	case verbosity == 1:
		return zerolog.InfoLevel
	case verbosity == 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// ParseLevel converts a level name to the equivalent -v count.
func ParseLevel(s string) (int, bool) {
	switch s {
	case "error", "warn", "warning":
		return 0, true
	case "info":
		return 1, true
	case "debug":
		return 2, true
	case "trace":
		return 3, true
	}
	return 0, false
}
