package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedLogger(level Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(Options{Output: &buf, Level: level}), &buf
}

func decodeLine(t *testing.T, line string) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	return entry
}

func TestLogger_WritesJSONLine(t *testing.T) {
	log, buf := newBufferedLogger(LevelInfo)

	log.Info("action processed", UserID("u-1"), Int("xp", 40))

	entry := decodeLine(t, buf.String())
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "action processed", entry["message"])
	assert.NotEmpty(t, entry["timestamp"])

	fields, ok := entry["fields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "u-1", fields["user_id"])
	assert.Equal(t, float64(40), fields["xp"])
}

func TestLogger_FiltersBelowMinimumLevel(t *testing.T) {
	log, buf := newBufferedLogger(LevelWarn)

	log.Debug("quiet")
	log.Info("quiet")
	log.Warn("loud")
	log.Error("loud")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
}

func TestLogger_WithAccumulatesFields(t *testing.T) {
	log, buf := newBufferedLogger(LevelInfo)

	scoped := log.With(String("component", "leaderboard")).With(MetricName("xp"))
	scoped.Info("rebuilt", Int("entries", 3))

	entry := decodeLine(t, buf.String())
	fields := entry["fields"].(map[string]any)
	assert.Equal(t, "leaderboard", fields["component"])
	assert.Equal(t, "xp", fields["metric"])
	assert.Equal(t, float64(3), fields["entries"])

	// The parent logger is unchanged.
	buf.Reset()
	log.Info("plain")
	entry = decodeLine(t, buf.String())
	assert.Nil(t, entry["fields"])
}

func TestLogger_PerCallFieldOverridesBase(t *testing.T) {
	log, buf := newBufferedLogger(LevelInfo)

	log.With(String("stage", "base")).Info("msg", String("stage", "call"))

	entry := decodeLine(t, buf.String())
	fields := entry["fields"].(map[string]any)
	assert.Equal(t, "call", fields["stage"])
}

func TestErrField(t *testing.T) {
	assert.Equal(t, Field{Key: "error", Value: "boom"}, Err(errors.New("boom")))
	assert.Equal(t, Field{Key: "error", Value: nil}, Err(nil))
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(9).String())
}
