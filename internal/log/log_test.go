package log

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestLog(t *testing.T) {
	Info("test info message")
	Debug("msg %d %s", 1, "test")
	Warn("level=%d", 1)
	Error("err=%v", nil)
	WithFields(Fields{"table": "t"}).Debug("structured")
}

func TestSetLevel(t *testing.T) {
	defer logrus.SetLevel(logrus.GetLevel())

	SetLevel(LevelDebug)
	require.True(t, Enabled(LevelDebug))

	SetLevel(LevelWarn)
	require.False(t, Enabled(LevelInfo))
	require.True(t, Enabled(LevelError))

	// Out-of-range levels are ignored.
	SetLevel(Level(42))
	require.Equal(t, logrus.WarnLevel, logrus.GetLevel())
	require.False(t, Enabled(Level(-1)))
}

func TestInitLog(t *testing.T) {
	defer logrus.SetLevel(logrus.GetLevel())

	require.NoError(t, InitLog(LogConfig{Level: "debug", Format: "json"}))
	require.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	require.Error(t, InitLog(LogConfig{Level: "chatty", Format: "text"}))
}

func TestLevelString(t *testing.T) {
	require.Equal(t, "WARN", LevelWarn.String())
	require.Equal(t, "LEVEL(9)", Level(9).String())
}
