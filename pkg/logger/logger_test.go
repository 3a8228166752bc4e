package logger_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/retail-price-tracker/pkg/logger"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":  slog.LevelDebug,
		"DEBUG":  slog.LevelDebug,
		" info ": slog.LevelInfo,
		"warn":   slog.LevelWarn,
		"Warn":   slog.LevelWarn,
		"error":  slog.LevelError,
		"":       slog.LevelInfo,
		"trace":  slog.LevelInfo,
	}

	for input, want := range tests {
		t.Run(input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, want, logger.ParseLevel(input))
		})
	}
}

func TestNewWithWriter_ServiceAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := logger.NewWithWriter(&buf, logger.Options{
		Level:   "info",
		Format:  "JSON",
		Service: "retail-price-tracker",
		Version: "v1.2.0",
	})
	l.Info("scrape finished", "store", "ksp", "observations", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "INFO", rec["level"])
	assert.Equal(t, "scrape finished", rec["msg"])
	assert.Equal(t, "retail-price-tracker", rec["service"])
	assert.Equal(t, "v1.2.0", rec["version"])
	assert.Equal(t, "ksp", rec["store"])
	assert.InDelta(t, 3, rec["observations"], 0)
}

func TestNewWithWriter_TextOmitsEmptyAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := logger.NewWithWriter(&buf, logger.Options{Format: "text"})
	l.Warn("store degraded", "store", "bug")

	output := buf.String()
	assert.Contains(t, output, "level=WARN")
	assert.Contains(t, output, "store=bug")
	assert.NotContains(t, output, "service=")
	assert.NotContains(t, output, "version=")
}

func TestNewWithWriter_TimeInUTC(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := logger.NewWithWriter(&buf, logger.Options{Format: "json"})
	l.Info("tick")

	var rec struct {
		Time string `json:"time"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	ts, err := time.Parse(time.RFC3339Nano, rec.Time)
	require.NoError(t, err)
	_, offset := ts.Zone()
	assert.Zero(t, offset)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		level      string
		logFunc    func(*slog.Logger)
		wantOutput bool
	}{
		{
			name:       "evaluation detail visible at debug",
			level:      "debug",
			logFunc:    func(l *slog.Logger) { l.Debug("alert evaluated", "alert_id", "a-1") },
			wantOutput: true,
		},
		{
			name:       "evaluation detail hidden at info",
			level:      "info",
			logFunc:    func(l *slog.Logger) { l.Debug("alert evaluated", "alert_id", "a-1") },
			wantOutput: false,
		},
		{
			name:       "skipped element hidden at error",
			level:      "error",
			logFunc:    func(l *slog.Logger) { l.Warn("skipped element", "store", "ksp") },
			wantOutput: false,
		},
		{
			name:       "upper-case level honoured",
			level:      "WARN",
			logFunc:    func(l *slog.Logger) { l.Info("recovered pending notifications") },
			wantOutput: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			l := logger.NewWithWriter(&buf, logger.Options{Level: tt.level})
			tt.logFunc(l)

			if tt.wantOutput {
				assert.NotEmpty(t, buf.String())
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}
