package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var m map[string]any
		require.NoError(t, dec.Decode(&m))
		out = append(out, m)
	}
	return out
}

func TestLogger_JSONIncludesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Format: "json", Component: ComponentStorage, Output: &buf})

	logger.Info("stored", FieldExpenseID, 7)
	logger.WithComponent(ComponentHTTP).Debug("routed")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "storage", lines[0][FieldComponent])
	assert.EqualValues(t, 7, lines[0][FieldExpenseID])
	assert.Equal(t, "http", lines[1][FieldComponent])
}

func TestLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Format: "json", Output: &buf})

	logger.Info("hidden")
	logger.Warn("shown")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["msg"])
}

func TestStructuredLogger_HTTPLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusNotFound, "WARN"},
		{http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		sl := NewStructuredLogger(New(Config{Format: "json", Output: &buf}))
		r := httptest.NewRequest(http.MethodGet, "/api/expenses?x=1", nil)

		sl.LogHTTPEnd(context.Background(), r, tt.status, 12, "127.0.0.1")

		lines := decodeLines(t, &buf)
		require.Len(t, lines, 1)
		assert.Equal(t, tt.level, lines[0]["level"])
		assert.Equal(t, "/api/expenses", lines[0][FieldPath])
		assert.Equal(t, "x=1", lines[0][FieldQuery])
		assert.EqualValues(t, tt.status, lines[0][FieldStatusCode])
	}
}

func TestStructuredLogger_LogError(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: "json", Output: &buf}))

	sl.LogError(context.Background(), "insert failed", errors.New("boom"), ComponentStorage, OpCreate, nil)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "boom", lines[0][FieldError])
	assert.Equal(t, OpCreate, lines[0][FieldOperation])
}

func TestWithLogger_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Output: &buf}).With(FieldRequestID, "req-1")

	ctx := WithLogger(context.Background(), logger)
	FromContext(ctx).Info("inside")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "req-1", lines[0][FieldRequestID])
}

func TestLogRejected_DebugWithErrorType(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Format: "json", Output: &buf}))

	sl.LogRejected(context.Background(), "Rejected expense", errors.New("amount is required"), ErrorTypeValidation, OpCreate)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "DEBUG", lines[0]["level"])
	assert.Equal(t, ErrorTypeValidation, lines[0][FieldErrorType])
	assert.Equal(t, "amount is required", lines[0][FieldError])
}

func TestFromContext_Fallback(t *testing.T) {
	logger := FromContext(context.Background())
	require.NotNil(t, logger)
	assert.Equal(t, "unknown", logger.Component())
}
