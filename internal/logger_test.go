package internal

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLogger_DevelopmentUsesTextHandler(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, "development", "info").Info("boot")
	assert.Contains(t, buf.String(), "msg=boot")
}

func TestNewLogger_ProductionUsesJSONHandler(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, "production", "info").Info("boot")
	assert.Contains(t, buf.String(), `"msg":"boot"`)
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "production", "WARN")

	logger.Info("quiet")
	assert.Empty(t, buf.String())

	logger.Warn("loud")
	assert.Contains(t, buf.String(), "loud")
}

func TestNewLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "production", "verbose")

	logger.Debug("quiet")
	assert.Empty(t, buf.String())

	logger.Info("loud")
	assert.Contains(t, buf.String(), "loud")
}
