package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Run("json info", func(t *testing.T) {
		l, err := New("json", "info")
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
		assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("text debug", func(t *testing.T) {
		l, err := New("text", "debug")
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("none", func(t *testing.T) {
		l, err := New("json", "none")
		require.NoError(t, err)
		assert.False(t, l.Core().Enabled(zapcore.ErrorLevel))
	})

	t.Run("bad level", func(t *testing.T) {
		_, err := New("json", "loud")
		assert.Error(t, err)
	})

	t.Run("bad format", func(t *testing.T) {
		_, err := New("xml", "info")
		assert.Error(t, err)
	})
}
