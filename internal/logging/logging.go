// Package logging configures the global zerolog logger.
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Environment overrides
const (
	EnvLevel     = "CAREER_LOG_LEVEL"
	EnvTimestamp = "CAREER_LOG_TIMESTAMP"
	EnvNoColor   = "CAREER_LOG_NOCOLOR"
)

// Profile holds logger settings
type Profile struct {
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
	Output    io.Writer
}

// RuntimeProfile is used by the CLI and the server
func RuntimeProfile() Profile {
	return Profile{
		Level:     zerolog.InfoLevel,
		Timestamp: true,
		Output:    os.Stderr,
	}
}

// TestProfile is quieter on timestamps and louder on level
func TestProfile() Profile {
	return Profile{
		Level:   zerolog.DebugLevel,
		NoColor: true,
		Output:  os.Stderr,
	}
}

// FromEnv applies the CAREER_LOG_* overrides. Unparseable values are ignored.
func (p Profile) FromEnv() Profile {
	if v := os.Getenv(EnvLevel); v != "" {
		if level, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			p.Level = level
		}
	}
	if v := os.Getenv(EnvTimestamp); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			p.Timestamp = b
		}
	}
	if v := os.Getenv(EnvNoColor); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			p.NoColor = b
		}
	}
	return p
}

// Init builds a console logger for app, installs it as the global logger and returns it
func Init(app string, p Profile) zerolog.Logger {
	out := p.Output
	if out == nil {
		out = os.Stderr
	}
	output := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    p.NoColor,
		TimeFormat: time.RFC3339,
	}
	if !p.Timestamp {
		output.PartsExclude = []string{zerolog.TimestampFieldName}
	}

	ctx := zerolog.New(output).Level(p.Level).With()
	if p.Timestamp {
		ctx = ctx.Timestamp()
	}
	logger := ctx.Str("app", app).Logger()
	log.Logger = logger
	return logger
}
