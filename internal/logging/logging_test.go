package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesToFile(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	path := filepath.Join(t.TempDir(), "ihp.log")
	Init(zerolog.DebugLevel, path)
	log.Info().Str("unit", "ihp1").Msg("Unit loaded")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"unit":"ihp1"`)
	assert.Contains(t, string(data), "Log level set to DEBUG")
}

func TestInitRespectsLevel(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	path := filepath.Join(t.TempDir(), "ihp.log")
	Init(zerolog.WarnLevel, path)
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestInitBadPathPanics(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	assert.Panics(t, func() {
		Init(zerolog.InfoLevel, filepath.Join(t.TempDir(), "missing", "ihp.log"))
	})
}
