package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newBufferLogger() (*SlogLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	h := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogLogger(slog.New(h)), buf
}

func TestSlogLogger_Levels(t *testing.T) {
	log, buf := newBufferLogger()
	ctx := context.Background()

	log.Debug(ctx, "d")
	log.Info(ctx, "i")
	log.Warn(ctx, "w")
	log.Error(ctx, "e")

	out := buf.String()
	assert.Contains(t, out, `"level":"DEBUG"`)
	assert.Contains(t, out, `"level":"INFO"`)
	assert.Contains(t, out, `"level":"WARN"`)
	assert.Contains(t, out, `"level":"ERROR"`)
	assert.Equal(t, 4, strings.Count(out, "\n"))
}

func TestSlogLogger_With(t *testing.T) {
	log, buf := newBufferLogger()

	child := log.With("module", "test")
	child.Info(context.Background(), "hello")

	assert.Contains(t, buf.String(), `"module":"test"`)
}
