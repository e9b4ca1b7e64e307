package executor

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/yuya-takeyama/strict-dir-sync/internal/checksum"
	"github.com/yuya-takeyama/strict-dir-sync/pkg/logger"
	"github.com/yuya-takeyama/strict-dir-sync/pkg/planner"
)

const (
	dirPerm  = 0755
	filePerm = 0644
)

type Executor struct {
	fs     afero.Fs
	logger logger.Logger
	algo   checksum.Algorithm
	dryRun bool
}

func NewExecutor(fs afero.Fs, logger logger.Logger, algo checksum.Algorithm, dryRun bool) *Executor {
	if algo == "" {
		algo = checksum.MD5
	}
	return &Executor{
		fs:     fs,
		logger: logger,
		algo:   algo,
		dryRun: dryRun,
	}
}

type Result struct {
	Item     planner.Item
	Bytes    int64
	Checksum []byte
	Error    error
}

// Execute performs one planned action and reports it. Skip items are
// returned untouched.
func (e *Executor) Execute(item planner.Item) Result {
	result := Result{Item: item}

	switch item.Action {
	case planner.ActionCopy:
		if !e.dryRun {
			result.Bytes, result.Checksum, result.Error = e.copyFile(item)
		}
		if result.Error == nil {
			result.Error = e.logger.Copied(item.RelPath)
		}
	case planner.ActionDelete:
		if !e.dryRun {
			gone, err := e.deleteFile(item)
			if err == nil && gone {
				// Removed by someone else since enumeration
				result.Item.Action = planner.ActionSkip
				result.Item.Reason = "already removed"
				return result
			}
			result.Error = err
		}
		if result.Error == nil {
			result.Error = e.logger.Deleted(item.RelPath)
		}
	default:
		return result
	}

	if result.Error != nil {
		e.logger.Error(string(item.Action), item.RelPath, result.Error)
	}

	return result
}

// copyFile streams the source into a temporary file next to the destination
// and renames it into place, so a reader never sees a partially written
// replica file.
func (e *Executor) copyFile(item planner.Item) (int64, []byte, error) {
	src, err := e.fs.Open(item.SourcePath)
	if err != nil {
		return 0, nil, fmt.Errorf("open source file: %w", err)
	}
	defer src.Close()

	dir := filepath.Dir(item.ReplicaPath)
	if err := e.fs.MkdirAll(dir, dirPerm); err != nil {
		return 0, nil, fmt.Errorf("create parent directories: %w", err)
	}

	tmp, err := afero.TempFile(e.fs, dir, "."+filepath.Base(item.ReplicaPath)+".sds-tmp-*")
	if err != nil {
		return 0, nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			tmp.Close()
			e.fs.Remove(tmpPath)
		}
	}()

	tee := checksum.NewTeeReaderWithChecksum(e.algo, src)
	n, err := io.Copy(tmp, tee)
	if err != nil {
		return n, nil, fmt.Errorf("copy contents: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		return n, nil, fmt.Errorf("sync temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return n, nil, fmt.Errorf("close temp file: %w", err)
	}

	if err := e.fs.Chmod(tmpPath, filePerm); err != nil {
		return n, nil, fmt.Errorf("chmod temp file: %w", err)
	}

	if err := e.fs.Rename(tmpPath, item.ReplicaPath); err != nil {
		return n, nil, fmt.Errorf("rename temp file to %s: %w", item.ReplicaPath, err)
	}

	success = true

	sum, err := tee.Checksum()
	if err != nil {
		return n, nil, err
	}
	e.logger.Debug("Copied file", "path", item.RelPath, "reason", item.Reason, "bytes", n, string(e.algo), fmt.Sprintf("%x", sum))

	return n, sum, nil
}

// deleteFile removes the replica file. It reports gone=true when the file had
// already disappeared.
func (e *Executor) deleteFile(item planner.Item) (gone bool, err error) {
	if err := e.fs.Remove(item.ReplicaPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return true, nil
		}
		return false, fmt.Errorf("remove replica file: %w", err)
	}
	return false, nil
}
