// Package config loads the engine's four configured directories (§6:
// storage_directory, facade_directory, temporary_directory,
// program_data_directory) from a TOML file. The schema is intentionally
// thin — beyond the four directories it carries only the facade walker's
// ignore patterns; richer session configuration (modes and so on) is
// outside this engine's scope and belongs to the surrounding CLI or
// service that embeds it.
package config

import (
	"fmt"

	"github.com/hcs-sync/engine/pkg/encoding"
	"github.com/hcs-sync/engine/pkg/filesystem"
)

// Config holds the four directories the engine operates over, plus optional
// ignore patterns for the facade walker (§4.L).
type Config struct {
	// Storage is the authoritative-contents directory (storage_directory).
	Storage string `toml:"storage_directory"`
	// Facade is the user-visible symlink directory (facade_directory).
	Facade string `toml:"facade_directory"`
	// Temporary is the in-flight-transfer directory (temporary_directory).
	Temporary string `toml:"temporary_directory"`
	// ProgramData is the counter/changes/server-version directory
	// (program_data_directory).
	ProgramData string `toml:"program_data_directory"`
	// Ignore is an optional list of glob patterns (§4.L) excluded from the
	// facade walk.
	Ignore []string `toml:"ignore"`
}

// Load reads and decodes a Config from the TOML file at path, normalizing
// each directory to an absolute path (tilde expansion included) and
// validating that none of the four required directories is empty.
func Load(path string) (*Config, error) {
	result := &Config{}
	if err := encoding.LoadAndUnmarshalTOML(path, result); err != nil {
		return nil, err
	}
	if err := result.normalize(); err != nil {
		return nil, err
	}
	if err := result.validate(); err != nil {
		return nil, err
	}
	return result, nil
}

// normalize applies filesystem.Normalize to each configured directory.
func (c *Config) normalize() error {
	for _, field := range []*string{&c.Storage, &c.Facade, &c.Temporary, &c.ProgramData} {
		if *field == "" {
			continue
		}
		normalized, err := filesystem.Normalize(*field)
		if err != nil {
			return fmt.Errorf("unable to normalize directory %q: %w", *field, err)
		}
		*field = normalized
	}
	return nil
}

// validate ensures all four required directories were specified.
func (c *Config) validate() error {
	if c.Storage == "" {
		return fmt.Errorf("storage_directory not specified")
	}
	if c.Facade == "" {
		return fmt.Errorf("facade_directory not specified")
	}
	if c.Temporary == "" {
		return fmt.Errorf("temporary_directory not specified")
	}
	if c.ProgramData == "" {
		return fmt.Errorf("program_data_directory not specified")
	}
	return nil
}
