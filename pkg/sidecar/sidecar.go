// Package sidecar implements the sidecar metadata store (§4.B): reading and
// writing the small per-object JSON document that records an object's last
// known modification time, plus the mtime helper the recorder and walkers
// use to detect divergence.
package sidecar

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/golang/groupcache/lru"

	"github.com/hcs-sync/engine/pkg/encoding"
	"github.com/hcs-sync/engine/pkg/logging"
	"github.com/hcs-sync/engine/pkg/pathmodel"
)

// Sidecar is the on-disk sidecar document: {"last_modified": <seconds since
// epoch>}.
type Sidecar struct {
	LastModified uint64 `json:"last_modified"`
}

// defaultCacheSize bounds the read cache's resident set. Sidecars are a few
// dozen bytes each; a few thousand entries is a trivial memory cost against
// the stat/open/parse cycle it saves on a storage walk that revisits the
// same object.
const defaultCacheSize = 4096

// Store reads and writes sidecars, backed by an LRU read cache so that a
// storage walk (§4.G case 7 reads a file's sidecar, and a following
// modify_file reads it again) doesn't re-parse the same sidecar file
// repeatedly. Write replaces the cached entry with the value written and
// Remove drops it; parse failures (§7 error kind 4) are never cached, since a
// corrupt sidecar is a reconciliation signal, not a stable fact.
type Store struct {
	cache  *lru.Cache
	logger *logging.Logger
}

// NewStore creates a Store with the default cache size.
func NewStore(logger *logging.Logger) *Store {
	return &Store{cache: lru.New(defaultCacheSize), logger: logger}
}

// Read implements read(bundle) from §4.B.
func (s *Store) Read(bundle pathmodel.Bundle) (Sidecar, error) {
	if cached, ok := s.cache.Get(bundle.SidecarPath); ok {
		return cached.(Sidecar), nil
	}

	var result Sidecar
	err := encoding.LoadAndUnmarshal(bundle.SidecarPath, func(data []byte) error {
		return json.Unmarshal(data, &result)
	})
	if err != nil {
		return Sidecar{}, fmt.Errorf("unable to read sidecar: %w", err)
	}

	s.cache.Add(bundle.SidecarPath, result)
	return result, nil
}

// Write implements write(bundle, Sidecar) from §4.B: a whole-file overwrite.
func (s *Store) Write(bundle pathmodel.Bundle, value Sidecar) error {
	err := encoding.MarshalAndSave(bundle.SidecarPath, s.logger, func() ([]byte, error) {
		return json.Marshal(value)
	})
	if err != nil {
		return fmt.Errorf("unable to write sidecar: %w", err)
	}
	s.cache.Add(bundle.SidecarPath, value)
	return nil
}

// Remove deletes the sidecar file at bundle.SidecarPath, invalidating any
// cached entry. It is not an error for the file to already be absent, since
// recorder steps that remove a sidecar must be idempotent under rewalk.
func (s *Store) Remove(bundle pathmodel.Bundle) error {
	s.cache.Remove(bundle.SidecarPath)
	if err := os.Remove(bundle.SidecarPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("unable to remove sidecar: %w", err)
	}
	return nil
}

// MtimeOf implements mtime_of(path) from §4.B: seconds since epoch.
func MtimeOf(path string) (uint64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("unable to stat path: %w", err)
	}
	return uint64(info.ModTime().Unix()), nil
}

