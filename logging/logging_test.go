package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLogger(t *testing.T) {
	t.Run("debug mode returns development logger", func(t *testing.T) {
		logger, err := NewLogger(true)
		require.NoError(t, err)
		require.NotNil(t, logger)
		require.True(t, logger.Core().Enabled(zap.DebugLevel))
		_ = logger.Sync()
	})

	t.Run("production mode returns production logger", func(t *testing.T) {
		logger, err := NewLogger(false)
		require.NoError(t, err)
		require.NotNil(t, logger)
		require.False(t, logger.Core().Enabled(zap.DebugLevel))
		_ = logger.Sync()
	})
}

func TestOrNop(t *testing.T) {
	require.NotNil(t, OrNop(nil))
	l := zap.NewExample()
	require.Same(t, l, OrNop(l))
}
