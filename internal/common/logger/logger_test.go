package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_WritesConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "log.txt")

	closer, err := Init(Options{Service: "santa-test", File: path, Console: &console})
	require.NoError(t, err)

	engineLog := Component("engine")
	engineLog.Info().Int64("giver", 7).Msg("hello")
	require.NoError(t, closer.Close())

	assert.Contains(t, console.String(), "hello")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"service":"santa-test"`)
	assert.Contains(t, string(data), `"component":"engine"`)
	assert.Contains(t, string(data), `"message":"hello"`)
}

func TestInit_DebugLevel(t *testing.T) {
	var console bytes.Buffer
	_, err := Init(Options{Service: "santa-test", Console: &console})
	require.NoError(t, err)
	log.Debug().Msg("hidden")
	assert.NotContains(t, console.String(), "hidden")

	console.Reset()
	_, err = Init(Options{Service: "santa-test", Debug: true, Console: &console})
	require.NoError(t, err)
	log.Debug().Msg("visible")
	assert.Contains(t, console.String(), "visible")
}
