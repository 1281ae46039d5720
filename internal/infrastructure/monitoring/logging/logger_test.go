package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewLoggerFromCore(core), logs
}

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "console", "unknown"} {
		t.Run(format, func(t *testing.T) {
			l, err := NewLogger(LogConfig{Level: LevelInfo, Format: format})
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestNewLogger_EmptyOutputPaths(t *testing.T) {
	l, err := NewLogger(LogConfig{OutputPaths: []string{}})
	assert.Error(t, err)
	assert.Nil(t, l)
}

func TestNewLogger_Sampling(t *testing.T) {
	l, err := NewLogger(LogConfig{Sampling: 10})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"DEBUG": zapcore.DebugLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"info":  zapcore.InfoLevel,
		"loud":  zapcore.InfoLevel,
		"":      zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestZapLogger_FieldTypes(t *testing.T) {
	l, logs := newObserved(zapcore.DebugLevel)
	l.Debug("embedding found",
		String("query", "C=O"),
		Int("atoms", 2),
		Int64("visited", 42),
		Float64("rms", 0.25),
		Bool("markush", false),
		Duration("elapsed", time.Millisecond),
		Ints("mapping", []int{3, 4}),
		Err(errors.New("boom")),
		Any("opts", struct{ A int }{1}),
	)

	require.Equal(t, 1, logs.Len())
	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "C=O", ctx["query"])
	assert.Equal(t, int64(2), ctx["atoms"])
	assert.Equal(t, int64(42), ctx["visited"])
	assert.Equal(t, 0.25, ctx["rms"])
	assert.Equal(t, false, ctx["markush"])
	assert.Equal(t, "boom", ctx["error"])
	assert.Len(t, ctx["mapping"], 2)
}

func TestZapLogger_LevelFiltering(t *testing.T) {
	l, logs := newObserved(zapcore.WarnLevel)
	l.Debug("d")
	l.Info("i")
	l.Warn("w")
	l.Error("e")
	assert.Equal(t, 2, logs.Len())
}

func TestZapLogger_WithAndNamed(t *testing.T) {
	l, logs := newObserved(zapcore.DebugLevel)
	child := l.Named("screening").With(String("run", "r1"))
	child.Info("started")
	l.Info("parent")

	require.Equal(t, 2, logs.Len())
	first := logs.All()[0]
	assert.Equal(t, "screening", first.LoggerName)
	assert.Equal(t, "r1", first.ContextMap()["run"])
	assert.Empty(t, logs.All()[1].ContextMap())
}

func TestErr_Nil(t *testing.T) {
	f := Err(nil)
	assert.Equal(t, "error", f.Key)
	assert.Equal(t, "<nil>", f.Value)
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	assert.NotPanics(t, func() {
		l.Debug("msg")
		l.Info("msg")
		l.Warn("msg")
		l.Error("msg")
		l.With(String("k", "v")).Named("x").Info("msg")
	})
}

func TestDefault_SetDefault(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	l, logs := newObserved(zapcore.InfoLevel)
	SetDefault(l)
	Default().Info("hello")
	assert.Equal(t, 1, logs.Len())

	SetDefault(nil)
	assert.Same(t, l, Default())
}

func TestNewDevelopmentLogger(t *testing.T) {
	assert.NotNil(t, NewDevelopmentLogger())
}

//Personal.AI order the ending
