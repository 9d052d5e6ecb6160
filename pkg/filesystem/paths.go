package filesystem

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	// DefaultConfigurationName is the name of the engine's configuration file
	// inside the user's home directory, used when no explicit path is given.
	DefaultConfigurationName = ".hcs-sync.toml"

	// DataDirectoryName is the name of the engine's own data directory inside
	// the user's home directory, used as the default program data location by
	// commands that take no configuration file (optimize without
	// --program-data).
	DataDirectoryName = ".hcs-sync"

	// LockFileName is the name of the advisory lock file maintained inside
	// the program data directory for the duration of a reconciler run.
	LockFileName = ".lock"

	// ChangesDirectoryName is the name of the subdirectory of the program
	// data directory holding per-run change-record logs (§6:
	// program_data_directory — counter + changes/ + server version).
	ChangesDirectoryName = "changes"

	// CounterFileName is the name of the change counter's persisted state
	// file inside the program data directory (§6: bit-exact name
	// "change_count").
	CounterFileName = "change_count"

	// ServerVersionFileName is the name of the server-version marker file
	// inside the program data directory.
	ServerVersionFileName = "server_version"
)

// HomeDirectory is the cached path to the current user's home directory.
var HomeDirectory string

// DefaultDataDirectoryPath is the default program data directory, used by
// optimize when no --program-data path is given.
var DefaultDataDirectoryPath string

// DefaultConfigurationPath is the default path to search for the engine's
// configuration file.
var DefaultConfigurationPath string

func init() {
	h, err := os.UserHomeDir()
	if err != nil {
		panic(errors.Wrap(err, "unable to query user's home directory"))
	} else if h == "" {
		panic(errors.New("home directory path empty"))
	}
	HomeDirectory = h

	DefaultDataDirectoryPath = filepath.Join(HomeDirectory, DataDirectoryName)
	DefaultConfigurationPath = filepath.Join(HomeDirectory, DefaultConfigurationName)
}

// EnsureProgramDataLayout creates the program data directory and its
// changes/ subdirectory if they don't already exist, hiding the directory on
// platforms where that's a naming convention rather than an attribute.
func EnsureProgramDataLayout(programDataDirectory string) error {
	if err := os.MkdirAll(filepath.Join(programDataDirectory, ChangesDirectoryName), 0700); err != nil {
		return errors.Wrap(err, "unable to create changes subdirectory")
	}
	if err := MarkHidden(programDataDirectory); err != nil {
		// Only dot-prefixed paths are "hidden" on POSIX; a non-default,
		// non-dot-prefixed program data directory is not an error, just not
		// hidden, so this failure is not propagated.
		return nil
	}
	return nil
}
