package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/yuya-takeyama/strict-dir-sync/pkg/engine"
)

const timeFormat = "2006-01-02T15:04:05.000Z07:00"

// Level picks the console level from the quiet and verbose flags. Quiet wins.
func Level(quiet, verbose bool) slog.Level {
	switch {
	case quiet:
		return slog.LevelWarn
	case verbose:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates the operator console logger. Colour is only used when w
// is a terminal.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
	}

	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: timeFormat,
		NoColor:    noColor,
	}))
}

// LogSummary prints a summary of one pass. Passes that changed nothing are
// only reported at debug level.
func LogSummary(logger *slog.Logger, summary engine.Summary) {
	level := slog.LevelDebug
	if summary.Changed() {
		level = slog.LevelInfo
	}
	if summary.Failed > 0 {
		level = slog.LevelWarn
	}

	logger.Log(context.Background(), level, "Sync pass complete",
		"copied", summary.Copied,
		"deleted", summary.Deleted,
		"unchanged", summary.Skipped,
		"failed", summary.Failed,
		"transferred", humanize.Bytes(uint64(summary.BytesCopied)),
		"duration", summary.Duration.Round(time.Millisecond),
	)
}
