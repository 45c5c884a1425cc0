package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefixAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, slog.LevelInfo)

	l.Debug("hidden")
	l.Info("stored", "object", "abc")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `msg="[vault] stored"`)
	assert.Contains(t, out, "object=abc")
}

func TestDefaultArgs(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, slog.LevelDebug)

	ctx := WithDefaultArgs(context.Background(), "account", "acc-1")
	ctx = WithDefaultArgs(ctx, "object", "doc")
	l.WarnCtx(ctx, "merge rejected", "err", "boom")

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "err=boom")
	assert.Contains(t, out, "account=acc-1")
	assert.Contains(t, out, "object=doc")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNopSatisfiesLogger(t *testing.T) {
	var l Logger = Nop{}
	l.Info("nothing")
	l.ErrorCtx(context.Background(), "nothing")
}
