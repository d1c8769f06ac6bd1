package logger

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestZapAdapter_FieldsAndErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).WithFields(map[string]interface{}{"source": "intercom"})

	log.Warn("Unsigned webhook", map[string]interface{}{
		"error": fmt.Errorf("no signature"),
		"topic": "contact.user.tag.created",
	})

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, "intercom", ctx["source"])
		assert.Equal(t, "no signature", ctx["error"])
		assert.Equal(t, "contact.user.tag.created", ctx["topic"])
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	}
}
