// Package must collects "this must not fail, but if it does, log and move on"
// helpers for cleanup paths where an error has no sane recovery (e.g. closing
// a temporary file after a write already failed). None of them return an
// error; they log at LevelWarn and let the caller's original error win.
package must

import (
	"io"
	"os"

	"github.com/hcs-sync/engine/pkg/logging"
)

// Close closes c, logging a warning on failure.
func Close(c io.Closer, logger *logging.Logger) {
	if err := c.Close(); err != nil {
		logger.Warnf("unable to close: %s", err.Error())
	}
}

// OSRemove removes the named file, logging a warning on failure.
func OSRemove(name string, logger *logging.Logger) {
	if err := os.Remove(name); err != nil {
		logger.Warnf("unable to remove '%s': %s", name, err.Error())
	}
}

// Unlock unlocks locker, logging a warning on failure.
func Unlock(locker interface{ Unlock() error }, logger *logging.Logger) {
	if err := locker.Unlock(); err != nil {
		logger.Warnf("unable to unlock locker: %s", err.Error())
	}
}
