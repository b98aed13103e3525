package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newTestLogger(debug bool) (*zap.Logger, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return zap.New(newCore(debug, zapcore.AddSync(&stdout), zapcore.AddSync(&stderr))), &stdout, &stderr
}

func TestLevelsAreSplitByStream(t *testing.T) {
	log, stdout, stderr := newTestLogger(false)

	log.Debug("hidden")
	log.Info("drawn boxes", zap.Int("count", 3))
	log.Warn("empty label map")
	log.Error("write failed")

	out := strings.TrimSpace(stdout.String())
	require.Equal(t, 1, strings.Count(out, "\n")+1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &entry))
	assert.Equal(t, "drawn boxes", entry["msg"])
	assert.EqualValues(t, 3, entry["count"])

	assert.Contains(t, stderr.String(), "empty label map")
	assert.Contains(t, stderr.String(), "write failed")
	assert.NotContains(t, stdout.String(), "hidden")
}

func TestDebugEnablesDebugEntries(t *testing.T) {
	log, stdout, _ := newTestLogger(true)

	log.Debug("sampled parameter")
	assert.Contains(t, stdout.String(), "sampled parameter")
}

func TestNewWriterLoggerSharedWriter(t *testing.T) {
	var stderr bytes.Buffer
	log := NewWriterLogger(true, &stderr, &stderr)

	log.Debug("computed boxes")
	log.Warn("empty label map")
	assert.Contains(t, stderr.String(), "computed boxes")
	assert.Contains(t, stderr.String(), "empty label map")
}

func TestGetZapLogger(t *testing.T) {
	assert.NotNil(t, GetZapLogger(false))
}
