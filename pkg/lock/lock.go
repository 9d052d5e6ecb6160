// Package lock provides the advisory locking the reconciler uses to enforce
// the mutual exclusion required by §5: the program data directory is owned
// exclusively by one reconciler run at a time, and concurrent runs are
// undefined behavior the surrounding process must prevent.
package lock

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// ErrLocked is returned by Acquire when another process already holds the
// lock. It is distinct from ordinary I/O errors (§7) since a caller
// typically wants to report it differently ("another reconciler run is in
// progress") rather than treat it as a storage failure.
var ErrLocked = errors.New("another reconciler run is in progress")

// Locker is a non-blocking, advisory lock backed by flock(2) on a regular
// file. It is not safe for concurrent use by multiple goroutines within one
// process; it is meant to be acquired once per reconciler run.
type Locker struct {
	file  *os.File
	token string
}

// Acquire opens (creating if necessary) the lock file at path and attempts
// to acquire an exclusive, non-blocking flock on it. On success it writes a
// diagnostic line containing the holder's PID and a random token so that
// tooling can identify which run holds the lock; the token has no bearing
// on correctness. If the lock is already held, Acquire returns ErrLocked.
func Acquire(path string) (*Locker, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open lock file")
	}

	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		file.Close()
		if err == unix.EWOULDBLOCK {
			return nil, ErrLocked
		}
		return nil, errors.Wrap(err, "unable to acquire lock")
	}

	token := uuid.New().String()
	if err := file.Truncate(0); err == nil {
		file.WriteAt([]byte(fmt.Sprintf("pid=%d token=%s\n", os.Getpid(), token)), 0)
	}

	return &Locker{file: file, token: token}, nil
}

// Token returns the diagnostic token written to the lock file when this
// Locker acquired it.
func (l *Locker) Token() string {
	return l.token
}

// Unlock releases the lock and closes the underlying file.
func (l *Locker) Unlock() error {
	if err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN); err != nil {
		l.file.Close()
		return errors.Wrap(err, "unable to release lock")
	}
	return l.file.Close()
}
