// Package engine runs one synchronization pass of a source tree onto a
// replica tree.
//
// A pass has two phases. The forward phase enumerates the source tree and
// copies every file whose replica counterpart is missing or differs in
// content. The reverse phase then enumerates the replica tree afresh and
// deletes every file that has no counterpart in the source tree. Only files
// are mirrored: directories left empty in the replica are never removed.
//
// Nothing is kept between passes; each pass recomputes everything from the
// two trees on disk.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/yuya-takeyama/strict-dir-sync/internal/checksum"
	"github.com/yuya-takeyama/strict-dir-sync/internal/walker"
	"github.com/yuya-takeyama/strict-dir-sync/pkg/executor"
	"github.com/yuya-takeyama/strict-dir-sync/pkg/logger"
	"github.com/yuya-takeyama/strict-dir-sync/pkg/planner"
)

type Config struct {
	SourceRoot  string
	ReplicaRoot string
	Excludes    []string
	Algorithm   checksum.Algorithm
	DryRun      bool

	// FailFast aborts the pass on the first per-file error instead of
	// reporting it and moving on to the next file.
	FailFast bool

	Clock clockwork.Clock
}

type Summary struct {
	Copied      int
	Deleted     int
	Skipped     int
	Failed      int
	BytesCopied int64
	Duration    time.Duration
}

// Changed reports whether the pass did or attempted anything
func (s Summary) Changed() bool {
	return s.Copied+s.Deleted+s.Failed > 0
}

type Engine struct {
	fs     afero.Fs
	cfg    Config
	logger logger.Logger
}

func New(fs afero.Fs, cfg Config, log logger.Logger) *Engine {
	if cfg.Algorithm == "" {
		cfg.Algorithm = checksum.MD5
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = &logger.NullLogger{}
	}
	return &Engine{
		fs:     fs,
		cfg:    cfg,
		logger: log,
	}
}

// Run performs one complete pass. Enumeration failures abort the pass.
// Per-file failures are collected and returned together once the pass is
// done, unless FailFast is set.
func (e *Engine) Run(ctx context.Context) (summary Summary, err error) {
	start := e.cfg.Clock.Now()
	defer func() {
		summary.Duration = e.cfg.Clock.Since(start)
	}()

	sourceWalker, err := walker.New(e.fs, e.cfg.SourceRoot, e.cfg.Excludes)
	if err != nil {
		return summary, fmt.Errorf("open source root: %w", err)
	}
	replicaWalker, err := walker.New(e.fs, e.cfg.ReplicaRoot, e.cfg.Excludes)
	if err != nil {
		return summary, fmt.Errorf("open replica root: %w", err)
	}

	plnr := planner.New(e.fs, planner.Roots{
		Source:  sourceWalker.Root(),
		Replica: replicaWalker.Root(),
	}, checksum.NewComparator(e.fs, e.cfg.Algorithm))
	exec := executor.NewExecutor(e.fs, e.logger, e.cfg.Algorithm, e.cfg.DryRun)

	var fileErrs *multierror.Error
	fail := func(relPath string, err error) error {
		summary.Failed++
		err = fmt.Errorf("%s: %w", relPath, err)
		if e.cfg.FailFast {
			return err
		}
		fileErrs = multierror.Append(fileErrs, err)
		return nil
	}

	// Forward: copy new and changed files
	sourceFiles, err := sourceWalker.Walk()
	if err != nil {
		return summary, fmt.Errorf("enumerate source: %w", err)
	}
	e.logger.Debug("Enumerated source", "root", sourceWalker.Root(), "files", len(sourceFiles))

	for _, f := range sourceFiles {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		item, err := plnr.PlanCopy(f)
		if err == nil {
			err = e.apply(exec, item, &summary)
		} else {
			e.logger.Error("compare", f.RelPath, err)
		}
		if err != nil {
			if err := fail(f.RelPath, err); err != nil {
				return summary, err
			}
		}
	}

	// Reverse: prune orphans, on a fresh enumeration that includes the files
	// copied above
	replicaFiles, err := replicaWalker.Walk()
	if err != nil {
		return summary, fmt.Errorf("enumerate replica: %w", err)
	}
	e.logger.Debug("Enumerated replica", "root", replicaWalker.Root(), "files", len(replicaFiles))

	for _, f := range replicaFiles {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		item, err := plnr.PlanDelete(f)
		if err == nil {
			if item.Action == planner.ActionSkip {
				continue
			}
			err = e.apply(exec, item, &summary)
		} else {
			e.logger.Error("stat", f.RelPath, err)
		}
		if err != nil {
			if err := fail(f.RelPath, err); err != nil {
				return summary, err
			}
		}
	}

	return summary, fileErrs.ErrorOrNil()
}

func (e *Engine) apply(exec *executor.Executor, item planner.Item, summary *Summary) error {
	if item.Action == planner.ActionSkip {
		summary.Skipped++
		return nil
	}

	result := exec.Execute(item)
	if result.Error != nil {
		return result.Error
	}

	switch result.Item.Action {
	case planner.ActionCopy:
		summary.Copied++
		summary.BytesCopied += result.Bytes
	case planner.ActionDelete:
		summary.Deleted++
	default:
		summary.Skipped++
	}
	return nil
}
