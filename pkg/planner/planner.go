package planner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/afero"
	"github.com/yuya-takeyama/strict-dir-sync/internal/checksum"
	"github.com/yuya-takeyama/strict-dir-sync/internal/walker"
)

// Planner decides, per relative path, whether a file has to be copied to the
// replica or pruned from it.
type Planner struct {
	fs         afero.Fs
	roots      Roots
	comparator *checksum.Comparator
}

func New(fs afero.Fs, roots Roots, comparator *checksum.Comparator) *Planner {
	return &Planner{
		fs:         fs,
		roots:      roots,
		comparator: comparator,
	}
}

// PlanCopy decides what to do with a file found in the source tree
func (p *Planner) PlanCopy(src walker.FileInfo) (Item, error) {
	item := Item{
		RelPath:     src.RelPath,
		SourcePath:  src.Path,
		ReplicaPath: walker.CounterpartPath(p.roots.Replica, src.RelPath),
		Size:        src.Size,
	}

	info, err := p.lstat(item.ReplicaPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return item, fmt.Errorf("stat replica file: %w", err)
		}
		info = nil
	}

	switch {
	case info == nil || !info.Mode().IsRegular():
		item.Action = ActionCopy
		item.Reason = ReasonNewFile
	case info.Size() != src.Size:
		item.Action = ActionCopy
		item.Reason = ReasonSizeDiffers
	default:
		equal, err := p.comparator.Equal(item.SourcePath, item.ReplicaPath)
		if err != nil {
			return item, fmt.Errorf("compare contents: %w", err)
		}
		if equal {
			item.Action = ActionSkip
			item.Reason = ReasonIdentical
		} else {
			item.Action = ActionCopy
			item.Reason = ReasonChecksumDiffers
		}
	}

	return item, nil
}

// PlanDelete decides what to do with a file found in the replica tree. The
// replica file is an orphan unless a regular file exists at the same relative
// path under the source root.
func (p *Planner) PlanDelete(replica walker.FileInfo) (Item, error) {
	item := Item{
		RelPath:     replica.RelPath,
		SourcePath:  walker.CounterpartPath(p.roots.Source, replica.RelPath),
		ReplicaPath: replica.Path,
		Size:        replica.Size,
	}

	info, err := p.lstat(item.SourcePath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return item, fmt.Errorf("stat source file: %w", err)
	}

	if err != nil || !info.Mode().IsRegular() {
		item.Action = ActionDelete
		item.Reason = ReasonDeletedInSource
	} else {
		item.Action = ActionSkip
		item.Reason = ReasonExistsInSource
	}

	return item, nil
}

func (p *Planner) lstat(path string) (os.FileInfo, error) {
	if lstater, ok := p.fs.(afero.Lstater); ok {
		info, _, err := lstater.LstatIfPossible(path)
		return info, err
	}
	return p.fs.Stat(path)
}
