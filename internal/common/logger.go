package common

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Configure the global logger. Format is either "console" or "json"
func SetupLogger(level string, format string) error {
	return setupLogger(os.Stderr, level, format)
}

func setupLogger(out io.Writer, level string, format string) error {
	if level == "" {
		level = "info"
	}
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("log level %s not understood: %w", level, err)
	}
	zerolog.SetGlobalLevel(parsed)

	switch strings.ToLower(format) {
	case "", "console":
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	case "json":
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	default:
		return fmt.Errorf("log format %s not understood", format)
	}
	return nil
}
