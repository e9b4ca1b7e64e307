package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/yuya-takeyama/strict-dir-sync/internal/checksum"
	"github.com/yuya-takeyama/strict-dir-sync/internal/logging"
	"github.com/yuya-takeyama/strict-dir-sync/internal/scheduler"
	"github.com/yuya-takeyama/strict-dir-sync/pkg/engine"
	"github.com/yuya-takeyama/strict-dir-sync/pkg/logger"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg syncConfig

	rootCmd := &cobra.Command{
		Use:   "strict-dir-sync <SourcePath> <ReplicaPath> <LogFilePath>",
		Short: "One-way folder mirroring using content checksums",
		Long: `strict-dir-sync keeps a replica folder identical to a source folder.
Every pass copies new and changed files (compared by content checksum) and
deletes replica files that no longer exist in the source. Each action is
appended to the log file and printed to the console.`,
		Version: fmt.Sprintf("%s (commit: %s, built at: %s by %s)", version, commit, date, builtBy),
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.sourcePath = args[0]
			cfg.replicaPath = args[1]
			cfg.logPath = args[2]

			fs := afero.NewOsFs()
			if err := validateConfig(fs, &cfg); err != nil {
				return err
			}

			cmd.SilenceUsage = true
			return run(cmd.Context(), fs, &cfg)
		},
	}

	rootCmd.Flags().DurationVar(&cfg.interval, "interval", scheduler.DefaultInterval, "Time to wait between sync passes")
	rootCmd.Flags().StringSliceVar(&cfg.excludes, "exclude", nil, "Exclude patterns (multiple allowed)")
	rootCmd.Flags().BoolVar(&cfg.dryRun, "dryrun", false, "Shows operations without executing")
	rootCmd.Flags().BoolVar(&cfg.once, "once", false, "Run a single sync pass and exit")
	rootCmd.Flags().BoolVar(&cfg.failFast, "fail-fast", false, "Abort a pass on the first file that cannot be synced")
	rootCmd.Flags().StringVar(&cfg.algorithm, "checksum", string(checksum.MD5), "Checksum algorithm used to compare files (md5, sha256)")
	rootCmd.Flags().BoolVar(&cfg.quiet, "quiet", false, "Suppress non-error output")
	rootCmd.Flags().BoolVar(&cfg.verbose, "verbose", false, "Show debug output")

	return rootCmd
}

func run(ctx context.Context, fs afero.Fs, cfg *syncConfig) error {
	console := logging.NewLogger(os.Stdout, logging.Level(cfg.quiet, cfg.verbose))
	slog.SetDefault(console)

	clock := clockwork.NewRealClock()

	journal := logger.NewJournal(fs, cfg.logPath, clock)
	syncLogger := &logger.SyncLogger{
		Journal:  journal,
		Console:  console,
		IsDryRun: cfg.dryRun,
	}

	eng := engine.New(fs, engine.Config{
		SourceRoot:  cfg.sourcePath,
		ReplicaRoot: cfg.replicaPath,
		Excludes:    cfg.excludes,
		Algorithm:   checksum.Algorithm(cfg.algorithm),
		DryRun:      cfg.dryRun,
		FailFast:    cfg.failFast,
		Clock:       clock,
	}, syncLogger)

	pass := func(ctx context.Context) error {
		summary, err := eng.Run(ctx)
		logging.LogSummary(console, summary)
		return err
	}

	if cfg.once {
		return pass(ctx)
	}

	console.Info(fmt.Sprintf("Synchronizing %s to %s every %s...", cfg.sourcePath, cfg.replicaPath, cfg.interval), "log", journal.Path())

	loop := &scheduler.Loop{
		Clock:    clock,
		Interval: cfg.interval,
		Run:      pass,
		Logger:   console,
	}
	if err := loop.Start(ctx); err != nil {
		return err
	}

	console.Info("Bye!")
	return nil
}
