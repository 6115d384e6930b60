package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv(EnvLevel, "WARN")
	t.Setenv(EnvTimestamp, "false")
	t.Setenv(EnvNoColor, "1")

	p := RuntimeProfile().FromEnv()
	assert.Equal(t, zerolog.WarnLevel, p.Level)
	assert.False(t, p.Timestamp)
	assert.True(t, p.NoColor)
}

func TestFromEnv_IgnoresGarbage(t *testing.T) {
	t.Setenv(EnvLevel, "loud")
	t.Setenv(EnvTimestamp, "maybe")

	p := RuntimeProfile().FromEnv()
	assert.Equal(t, zerolog.InfoLevel, p.Level)
	assert.True(t, p.Timestamp)
}

func TestInit_InstallsGlobalLogger(t *testing.T) {
	saved := log.Logger
	defer func() { log.Logger = saved }()

	var buf bytes.Buffer
	p := TestProfile()
	p.Output = &buf
	p.Level = zerolog.InfoLevel
	Init("career-test", p)

	log.Debug().Msg("hidden")
	log.Info().Str("stage", "skills").Msg("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
	assert.Contains(t, out, "stage=skills")
	assert.Contains(t, out, "app=career-test")
}
