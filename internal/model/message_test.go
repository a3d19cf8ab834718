package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTime(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	ts := time.Date(2024, 5, 1, 15, 30, 45, 123456789, loc)

	got := FormatTime(ts)

	assert.Equal(t, "2024-05-01T12:30:45.123Z", got)
	parsed, err := time.Parse(time.RFC3339Nano, got)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(ts.Truncate(time.Millisecond)))
}

func TestFormatTimeKeepsZeroMillis(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "2024-01-02T03:04:05.000Z", FormatTime(ts))
}

func TestEnvelopeJSON(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.UTC)

	b, err := json.Marshal(NewWelcome(now))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"welcome","message":"WebSocket connection established","time":"2024-01-02T03:04:05.006Z"}`, string(b))

	b, err = json.Marshal(NewEcho(`{"a":1}`, now))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"echo","message":"{\"a\":1}","time":"2024-01-02T03:04:05.006Z"}`, string(b))
}

func TestStatusJSON(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	b, err := json.Marshal(NewStatus(StatusHealthy, "ws-server", now))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"healthy","timestamp":"2024-01-02T03:04:05.000Z","service":"ws-server"}`, string(b))
}
