// SPDX-License-Identifier: GPL-2.0-only

package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLevelMapping(t *testing.T) {
	require.Equal(t, zapcore.ErrorLevel, LevelQuiet.zapLevel())
	require.Equal(t, zapcore.InfoLevel, LevelNormal.zapLevel())
	require.Equal(t, zapcore.DebugLevel, LevelVerbose.zapLevel())
}

func TestNewBuildsEnabledLogger(t *testing.T) {
	logger, err := New(LevelVerbose)
	require.NoError(t, err)
	require.NotNil(t, logger)
	require.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	quiet, err := New(LevelQuiet)
	require.NoError(t, err)
	require.False(t, quiet.Core().Enabled(zapcore.InfoLevel))
	require.True(t, quiet.Core().Enabled(zapcore.ErrorLevel))
}
