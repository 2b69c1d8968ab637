// Package singleinstance prevents two workers from writing to the same
// database. The store assumes a single writer; a second concurrent worker
// would corrupt checkpoint semantics even where SQLite itself copes.
package singleinstance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/graaaaa/hytale-companion/internal/appinfo"
)

// AcquireLock takes an advisory flock on a lock file inside dir.
//
// Returns:
//   - release: unlocks and closes the lock file
//   - ok: false if another instance already holds the lock
//   - err: unexpected filesystem failure
func AcquireLock(dir string) (release func(), ok bool, err error) {
	path := filepath.Join(dir, appinfo.LockFileName)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, false, fmt.Errorf("open lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("flock %s: %w", path, err)
	}

	release = func() {
		// The lock dies with the fd; the file itself is left in place.
		_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
		_ = f.Close()
	}
	return release, true, nil
}
