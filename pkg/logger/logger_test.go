package logger

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	l := New()
	assert.NotNil(t, l)
	assert.NotNil(t, l.info)
	assert.NotNil(t, l.warn)
	assert.NotNil(t, l.error)
}

func TestLogger_LevelsAndFormatting(t *testing.T) {
	l := New()
	var info, warn, errBuf bytes.Buffer
	l.info = log.New(&info, "INFO: ", 0)
	l.warn = log.New(&warn, "WARN: ", 0)
	l.error = log.New(&errBuf, "ERROR: ", 0)

	l.Info("session %s went %s", "session-1", "live")
	l.Warn("RabbitMQ unavailable, notifications disabled")
	l.Error("failed to toggle like: %v", assert.AnError)

	assert.Equal(t, "INFO: session session-1 went live\n", info.String())
	assert.Contains(t, warn.String(), "WARN: RabbitMQ unavailable")
	assert.Contains(t, errBuf.String(), "ERROR: failed to toggle like")
	assert.Contains(t, errBuf.String(), assert.AnError.Error())
}
