package diag

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed(level Level) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return New(zap.New(core), level), logs
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"none":        LevelNone,
		"error":       LevelError,
		"errors only": LevelError,
		"Warning":     LevelWarning,
		"warn":        LevelWarning,
		"verbose":     LevelVerbose,
		"debug":       LevelDebug,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLevelText(t *testing.T) {
	var l Level
	require.NoError(t, l.UnmarshalText([]byte("verbose")))
	assert.Equal(t, LevelVerbose, l)

	out, err := LevelDebug.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "debug", string(out))
}

func TestLoggerThreshold(t *testing.T) {
	l, logs := observed(LevelWarning)

	l.Error("e")
	l.Warn("w")
	l.Verbose("v")
	l.Debug("d")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "e", logs.All()[0].Message)
	assert.Equal(t, zapcore.WarnLevel, logs.All()[1].Level)
}

func TestLoggerNoneIsSilent(t *testing.T) {
	l, logs := observed(LevelNone)
	l.Error("nothing")
	assert.Equal(t, 0, logs.Len())
	assert.False(t, l.Enabled(LevelError))
}

func TestFail(t *testing.T) {
	l, logs := observed(LevelError)
	err := errors.New("boom")

	assert.Same(t, err, l.Fail(err))
	assert.Nil(t, l.Fail(nil))
	assert.Equal(t, 1, logs.Len())
}

func TestDefault(t *testing.T) {
	l, logs := observed(LevelError)
	SetDefault(l)
	t.Cleanup(func() { SetDefault(nil) })

	Default().Error("via default")
	assert.Equal(t, 1, logs.Len())
}
