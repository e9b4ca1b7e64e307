package logger

import (
	"fmt"
	"log/slog"
)

// Logger receives every action the sync engine takes
type Logger interface {
	Copied(relPath string) error
	Deleted(relPath string) error
	Error(operation, relPath string, err error)
	Debug(message string, args ...any)
}

// SyncLogger records actions to the journal and mirrors each entry to the
// operator console.
type SyncLogger struct {
	Journal  *Journal
	Console  *slog.Logger
	IsDryRun bool
}

func (l *SyncLogger) console() *slog.Logger {
	if l.Console != nil {
		return l.Console
	}
	return slog.Default()
}

func (l *SyncLogger) Copied(relPath string) error {
	return l.record(fmt.Sprintf("Copied: %s", relPath))
}

func (l *SyncLogger) Deleted(relPath string) error {
	return l.record(fmt.Sprintf("Deleted: %s", relPath))
}

func (l *SyncLogger) record(message string) error {
	if l.IsDryRun {
		l.console().Info("(dryrun) " + message)
		return nil
	}

	_, err := l.Journal.Append(message)
	l.console().Info(message)
	if err != nil {
		return fmt.Errorf("append to sync log: %w", err)
	}
	return nil
}

func (l *SyncLogger) Error(operation, relPath string, err error) {
	l.console().Error("Sync action failed", "operation", operation, "path", relPath, "error", err)
}

func (l *SyncLogger) Debug(message string, args ...any) {
	l.console().Debug(message, args...)
}

// NullLogger discards everything
type NullLogger struct{}

func (l *NullLogger) Copied(relPath string) error { return nil }

func (l *NullLogger) Deleted(relPath string) error { return nil }

func (l *NullLogger) Error(operation, relPath string, err error) {}

func (l *NullLogger) Debug(message string, args ...any) {}
