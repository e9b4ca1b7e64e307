package logger

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
)

// TimestampLayout is the local-time layout written in front of every entry
const TimestampLayout = "2006-01-02 15:04:05"

// Journal is the append-only sync log. Each entry is one line of the form
// "<timestamp>: <message>". The file is never truncated.
type Journal struct {
	fs    afero.Fs
	path  string
	clock clockwork.Clock
	lock  *flock.Flock

	mu   sync.Mutex
	last time.Time
}

// NewJournal creates a journal appending to path. On the OS filesystem every
// append holds an advisory lock on path+".lock".
func NewJournal(fs afero.Fs, path string, clock clockwork.Clock) *Journal {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	j := &Journal{
		fs:    fs,
		path:  path,
		clock: clock,
	}
	if _, ok := fs.(*afero.OsFs); ok {
		j.lock = flock.New(path + ".lock")
	}
	return j
}

// Path returns the log file location
func (j *Journal) Path() string {
	return j.path
}

// Append writes a single entry and returns the line written, without the
// trailing newline.
func (j *Journal) Append(message string) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	// wall clock only, so a clock stepped backwards is caught
	now := j.clock.Now().Round(0)
	if now.Before(j.last) {
		now = j.last
	}
	j.last = now

	line := fmt.Sprintf("%s: %s", now.Local().Format(TimestampLayout), message)

	if j.lock != nil {
		if err := j.lock.Lock(); err != nil {
			return line, fmt.Errorf("lock log file: %w", err)
		}
		defer j.lock.Unlock()
	}

	f, err := j.fs.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return line, fmt.Errorf("open log file: %w", err)
	}

	if _, err := f.WriteString(line + "\n"); err != nil {
		f.Close()
		return line, fmt.Errorf("write log file: %w", err)
	}

	if err := f.Close(); err != nil {
		return line, fmt.Errorf("close log file: %w", err)
	}

	return line, nil
}
