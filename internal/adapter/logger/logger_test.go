package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	lgr := NewWithWriter("api", LevelDebug, &buf)

	lgr.Info("order_created", "Order created", "req-1", map[string]interface{}{"order_id": "ORD-1"})
	lgr.Error("save_failed", "Save failed", "req-2", nil, errors.New("disk full"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first LogEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "INFO", first.Level)
	assert.Equal(t, "api", first.Service)
	assert.Equal(t, "order_created", first.Action)
	assert.Equal(t, "req-1", first.RequestID)
	assert.Equal(t, "ORD-1", first.Details["order_id"])
	assert.Nil(t, first.Error)

	var second LogEntry
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "ERROR", second.Level)
	require.NotNil(t, second.Error)
	assert.Equal(t, "disk full", second.Error.Msg)
}

func TestLoggerFiltersBelowMinimumLevel(t *testing.T) {
	var buf bytes.Buffer
	lgr := NewWithWriter("api", LevelWarn, &buf)

	lgr.Debug("noise", "debug", "", nil)
	lgr.Info("noise", "info", "", nil)
	assert.Empty(t, buf.String())

	lgr.Warn("slot_full", "Slot full", "", nil)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc")
	assert.Equal(t, "abc", RequestID(ctx))
	assert.Equal(t, "", RequestID(context.Background()))
}
