package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_LevelAndFile(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "phishguard.log")

	require.NoError(t, Init(Options{Level: "warn", File: path, Console: &console}))
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	log.Info().Msg("dropped")
	log.Warn().Str("url", "http://a.test").Msg("kept")

	assert.NotContains(t, console.String(), "dropped")
	assert.Contains(t, console.String(), "kept")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"url":"http://a.test"`)
}

func TestInit_UnknownLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	require.NoError(t, Init(Options{Level: "loud", Console: &bytes.Buffer{}}))
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
