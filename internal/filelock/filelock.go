// Package filelock serializes rewrites of configuration documents and other
// small artifacts. A write takes an advisory lock on "<path>.lock" and then
// replaces the target with a temp file + rename so readers never observe a
// partially written document.
package filelock

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// retryDelay is how often LockContext polls a held lock.
const retryDelay = 50 * time.Millisecond

// ErrLocked is returned by LockContext when the lock could not be taken
// before the context ended.
var ErrLocked = errors.New("lock is held by another process")

// Lock is an exclusive advisory lock guarding one target file.
type Lock struct {
	fl     *flock.Flock
	target string
}

// For returns the lock guarding target. The lock file is target + ".lock".
func For(target string) *Lock {
	return &Lock{
		fl:     flock.New(LockPath(target)),
		target: target,
	}
}

// LockPath returns the lock file used for target.
func LockPath(target string) string {
	return target + ".lock"
}

// Target returns the guarded file path.
func (l *Lock) Target() string {
	return l.target
}

// LockContext blocks until the lock is acquired or ctx is done.
func (l *Lock) LockContext(ctx context.Context) error {
	ok, err := l.fl.TryLockContext(ctx, retryDelay)
	if err != nil {
		return fmt.Errorf("lock %s: %w", l.target, err)
	}
	if !ok {
		return fmt.Errorf("lock %s: %w", l.target, ErrLocked)
	}
	return nil
}

// Unlock releases the lock. The lock file stays on disk; removing it would
// let a waiter and a new holder lock different inodes.
func (l *Lock) Unlock() error {
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("unlock %s: %w", l.target, err)
	}
	return nil
}

// AtomicWrite replaces path with data. The content is written to a temp file
// in the same directory and renamed over the target, so a crash leaves either
// the old or the new content. Existing file permissions are preserved; new
// files get 0644.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return fmt.Errorf("set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file to %s: %w", path, err)
	}
	committed = true
	return nil
}

// LockAndWrite holds the lock for path while atomically replacing its content.
func LockAndWrite(ctx context.Context, path string, data []byte) error {
	l := For(path)
	if err := l.LockContext(ctx); err != nil {
		return err
	}
	defer l.Unlock()

	return AtomicWrite(path, data)
}
