package logging

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestFieldHelpers(t *testing.T) {
	assert.True(t, Task("resync-changes").Equal(slog.String("task", "resync-changes")))
	assert.True(t, Watermark(42).Equal(slog.Int64("watermark", 42)))
	assert.True(t, Error(assert.AnError).Equal(slog.String("error", assert.AnError.Error())))
}
