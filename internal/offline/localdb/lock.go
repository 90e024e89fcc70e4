package localdb

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

const lockFilePermissions = 0o644

// LockPath is the pass lock file kept next to the queue database at dbPath
func LockPath(dbPath string) string {
	return dbPath + ".lock"
}

// TryLockPass takes a non-blocking exclusive flock on the lock file next to
// the database, so two countsync processes never replay the same queue at
// once. The holder's PID is written into the file. In-memory stores are
// private to one process and always get the lock.
func (s *Store) TryLockPass() (unlock func(), ok bool, err error) {
	if s.lockPath == "" {
		return func() {}, true, nil
	}

	f, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_RDWR, lockFilePermissions)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to lock %s: %w", s.lockPath, err)
	}

	// PID is informational only
	if err := f.Truncate(0); err == nil {
		_, _ = fmt.Fprintf(f, "%d\n", os.Getpid())
	}

	return func() {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		f.Close()
	}, true, nil
}
