package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	info, err := New(false)
	require.NoError(t, err)
	assert.False(t, info.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, info.Core().Enabled(zapcore.InfoLevel))

	debug, err := New(true)
	require.NoError(t, err)
	assert.True(t, debug.Core().Enabled(zapcore.DebugLevel))
}
