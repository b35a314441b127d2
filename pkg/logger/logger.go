// Package logger builds the zerolog loggers used across the app.
package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New returns a timestamped stderr logger at the given level, falling
// back to info for unknown levels.
func New(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger().Level(lvl)
}
