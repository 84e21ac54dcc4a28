package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel(" warn "))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
}

func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	log := New(Options{Level: "info", File: path, Production: true})

	log.Debug("hidden")
	log.Info("rollover done")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"rollover done"`)
	assert.NotContains(t, string(data), "hidden")
}
