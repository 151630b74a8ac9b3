package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestBuild(t *testing.T) {
	assert.False(t, build("test", "").Core().Enabled(zapcore.ErrorLevel), "test logger discards everything")

	assert.True(t, build("development", "").Core().Enabled(zapcore.DebugLevel))
	assert.False(t, build("production", "").Core().Enabled(zapcore.DebugLevel))
	assert.False(t, build("development", "warn").Core().Enabled(zapcore.InfoLevel))
	assert.True(t, build("production", "not-a-level").Core().Enabled(zapcore.InfoLevel))
}
