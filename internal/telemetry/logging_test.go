package telemetry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/kramstore/delivery/internal/telemetry"
)

func TestNewLogger_LevelParsing(t *testing.T) {
	logger, err := telemetry.NewLogger("warn", "kram-delivery")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
}

func TestNewLogger_UnknownLevelDefaultsToInfo(t *testing.T) {
	logger, err := telemetry.NewLogger("chatty", "kram-delivery")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}
