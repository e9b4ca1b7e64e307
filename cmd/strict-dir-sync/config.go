package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/yuya-takeyama/strict-dir-sync/internal/checksum"
	"github.com/yuya-takeyama/strict-dir-sync/internal/walker"
)

type syncConfig struct {
	sourcePath  string
	replicaPath string
	logPath     string
	interval    time.Duration
	excludes    []string
	dryRun      bool
	once        bool
	failFast    bool
	algorithm   string
	quiet       bool
	verbose     bool
}

func validateConfig(fs afero.Fs, cfg *syncConfig) error {
	if cfg.sourcePath == "" || cfg.replicaPath == "" || cfg.logPath == "" {
		return errors.New("source, replica and log file paths are required")
	}

	if err := walker.ValidateRoot(fs, cfg.sourcePath); err != nil {
		return fmt.Errorf("source folder does not exist: %w", err)
	}
	if err := walker.ValidateRoot(fs, cfg.replicaPath); err != nil {
		return fmt.Errorf("replica folder does not exist: %w", err)
	}

	source, err := walker.ResolveRoot(fs, cfg.sourcePath)
	if err != nil {
		return fmt.Errorf("resolve source path: %w", err)
	}
	replica, err := walker.ResolveRoot(fs, cfg.replicaPath)
	if err != nil {
		return fmt.Errorf("resolve replica path: %w", err)
	}
	if source == replica {
		return errors.New("source and replica must be different folders")
	}
	if isWithin(source, replica) {
		return errors.New("replica folder must not be inside the source folder")
	}
	if isWithin(replica, source) {
		return errors.New("source folder must not be inside the replica folder")
	}

	logFile, err := resolveLogPath(fs, cfg.logPath)
	if err != nil {
		return err
	}
	if isWithin(source, logFile) || isWithin(replica, logFile) {
		return errors.New("log file must not be inside the source or replica folder")
	}

	if cfg.interval <= 0 {
		return errors.New("interval must be positive")
	}

	if _, err := checksum.ParseAlgorithm(cfg.algorithm); err != nil {
		return err
	}

	return nil
}

// resolveLogPath resolves the log file's directory like a root. The directory
// may not exist yet, in which case its absolute path is used as is.
func resolveLogPath(fs afero.Fs, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve log file path: %w", err)
	}
	dir, err := walker.ResolveRoot(fs, filepath.Dir(abs))
	if err != nil {
		dir = filepath.Dir(abs)
	}
	return filepath.Join(dir, filepath.Base(abs)), nil
}

// isWithin reports whether path lies below dir
func isWithin(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
