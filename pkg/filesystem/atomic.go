package filesystem

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hcs-sync/engine/pkg/logging"
	"github.com/hcs-sync/engine/pkg/must"
)

const (
	// atomicWriteTemporaryNamePrefix is the file name prefix to use for
	// intermediate temporary files used in atomic writes.
	atomicWriteTemporaryNamePrefix = TemporaryNamePrefix + "atomic-write"
)

// WriteFileAtomic writes a file to disk in an atomic fashion by using an
// intermediate temporary file that is swapped in place using a rename
// operation. This is what keeps a sidecar or counter file from ever being
// observed half-written by a concurrent reconciliation run.
func WriteFileAtomic(path string, data []byte, permissions os.FileMode, logger *logging.Logger) error {
	// Create a temporary file. The os package already uses secure permissions
	// for creating temporary files, so we don't need to change them.
	temporary, err := os.CreateTemp(filepath.Dir(path), atomicWriteTemporaryNamePrefix)
	if err != nil {
		return fmt.Errorf("unable to create temporary file: %w", err)
	}

	// Write data.
	if _, err = temporary.Write(data); err != nil {
		must.Close(temporary, logger)
		must.OSRemove(temporary.Name(), logger)
		return fmt.Errorf("unable to write data to temporary file: %w", err)
	}

	// Close out the file.
	if err = temporary.Close(); err != nil {
		must.OSRemove(temporary.Name(), logger)
		return fmt.Errorf("unable to close temporary file: %w", err)
	}

	// Set the file's permissions.
	if err = os.Chmod(temporary.Name(), permissions); err != nil {
		must.OSRemove(temporary.Name(), logger)
		return fmt.Errorf("unable to set file permissions: %w", err)
	}

	// Rename the file into place, falling back to a copy-and-remove if the
	// temporary directory and the target live on different devices.
	if err = renameAtomic(temporary.Name(), path); err != nil {
		must.OSRemove(temporary.Name(), logger)
		return fmt.Errorf("unable to rename file: %w", err)
	}

	// Success.
	return nil
}

// renameAtomic renames source to target, falling back to a non-atomic
// copy-and-remove if the rename fails due to a cross-device boundary. Since
// source and target are both derived from filepath.Dir(path) in
// WriteFileAtomic, this fallback is rarely exercised in practice, but the
// data directory's temporary and storage subtrees are not guaranteed to
// share a device.
func renameAtomic(source, target string) error {
	if err := os.Rename(source, target); err == nil {
		return nil
	} else if !isCrossDeviceError(err) {
		return err
	}
	return copyAndRemove(source, target)
}

// copyAndRemove copies source to target and then removes source. It is only
// invoked as a cross-device rename fallback and is not itself atomic.
func copyAndRemove(source, target string) error {
	input, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("unable to open source file: %w", err)
	}
	defer input.Close()

	output, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to create target file: %w", err)
	}

	if _, err := io.Copy(output, input); err != nil {
		output.Close()
		return fmt.Errorf("unable to copy file contents: %w", err)
	}
	if err := output.Close(); err != nil {
		return fmt.Errorf("unable to close target file: %w", err)
	}

	return os.Remove(source)
}
