package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/yuya-takeyama/strict-dir-sync/pkg/engine"
)

func TestLevel(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, Level(false, false))
	assert.Equal(t, slog.LevelDebug, Level(false, true))
	assert.Equal(t, slog.LevelWarn, Level(true, false))
	assert.Equal(t, slog.LevelWarn, Level(true, true))
}

func TestNewLoggerWithoutTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	logger.Info("Copied: a/x.txt")
	logger.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, "INF Copied: a/x.txt")
	assert.NotContains(t, out, "hidden")
	assert.NotContains(t, out, "\x1b[", "no colour codes when not a terminal")
}

func TestLogSummary(t *testing.T) {
	tests := []struct {
		name      string
		summary   engine.Summary
		level     slog.Level
		wantLevel string
		want      []string
	}{
		{
			name:      "nothing changed is debug only",
			summary:   engine.Summary{Skipped: 4},
			level:     slog.LevelInfo,
			wantLevel: "",
		},
		{
			name:      "nothing changed in verbose mode",
			summary:   engine.Summary{Skipped: 4},
			level:     slog.LevelDebug,
			wantLevel: "DBG",
			want:      []string{"unchanged=4"},
		},
		{
			name:      "changes are info",
			summary:   engine.Summary{Copied: 2, Deleted: 1, BytesCopied: 2048, Duration: 1500 * time.Microsecond},
			level:     slog.LevelInfo,
			wantLevel: "INF",
			want:      []string{"copied=2", "deleted=1", `transferred="2.0 kB"`, "duration=2ms"},
		},
		{
			name:      "failures are warnings",
			summary:   engine.Summary{Failed: 1},
			level:     slog.LevelWarn,
			wantLevel: "WRN",
			want:      []string{"failed=1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			LogSummary(NewLogger(&buf, tt.level), tt.summary)

			out := buf.String()
			if tt.wantLevel == "" {
				assert.Empty(t, strings.TrimSpace(out))
				return
			}
			assert.Contains(t, out, tt.wantLevel+" Sync pass complete")
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}
}
