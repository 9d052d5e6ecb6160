// Package encoding provides small, format-specific load/save helpers used
// throughout the engine for its on-disk artifacts: sidecars (JSON) and CLI
// configuration (TOML). Every save goes through MarshalAndSave, which writes
// atomically so a crash mid-write can never leave a half-written sidecar or
// config file for the next run to trip over.
package encoding

import (
	"fmt"
	"os"

	"github.com/hcs-sync/engine/pkg/filesystem"
	"github.com/hcs-sync/engine/pkg/logging"
)

// LoadAndUnmarshal reads the data at the specified path and then invokes the
// specified unmarshaling callback (usually a closure) to decode it.
func LoadAndUnmarshal(path string, unmarshal func([]byte) error) error {
	// Grab the file contents.
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return fmt.Errorf("unable to load file: %w", err)
	}

	// Perform the unmarshaling.
	if err := unmarshal(data); err != nil {
		return fmt.Errorf("unable to unmarshal data: %w", err)
	}

	// Success.
	return nil
}

// MarshalAndSave invokes the specified marshaling callback and writes the
// result atomically to the specified path, with read/write permissions for
// the owner only.
func MarshalAndSave(path string, logger *logging.Logger, marshal func() ([]byte, error)) error {
	// Marshal the message.
	data, err := marshal()
	if err != nil {
		return fmt.Errorf("unable to marshal message: %w", err)
	}

	// Write the file atomically with secure file permissions.
	if err := filesystem.WriteFileAtomic(path, data, 0600, logger); err != nil {
		return fmt.Errorf("unable to write message data: %w", err)
	}

	// Success.
	return nil
}
