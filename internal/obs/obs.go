// Package obs builds the structured logger shared by cmd/mpidistctl and any
// library caller that wants build-time diagnostics. The core packages
// (types/extent, types/locale, topology, distribution, haloplan) never log
// -- they are pure value/error code -- so this package exists only for the
// CLI boundary.
package obs

import (
	"os"

	"github.com/rs/zerolog"
)

// EnvPrefix is the prefix of the environment variable that overrides the
// default log level, e.g. MPIDIST_LEVEL.
const EnvPrefix = "MPIDIST"

// New builds a zerolog.Logger writing to stderr with a human-readable
// console writer, honouring MPIDIST_LEVEL (falling back to level if unset
// or unrecognised).
func New(level zerolog.Level) zerolog.Logger {
	if envLevel, ok := os.LookupEnv(EnvPrefix + "_LEVEL"); ok {
		if parsed, err := zerolog.ParseLevel(envLevel); err == nil {
			level = parsed
		}
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}
