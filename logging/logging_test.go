package logging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/infigaming-com/go-pubsub/logging"
)

func TestNewLogger(t *testing.T) {
	logger, cleanup := logging.NewLogger()
	require.NotNil(t, logger)

	// Installed as the process global until cleanup runs.
	assert.Same(t, logger, zap.L())
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))

	cleanup()
	assert.NotSame(t, logger, zap.L())
}

func TestLogLevelFromEnvironment(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")

	logger, cleanup := logging.NewLogger()
	defer cleanup()
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}
