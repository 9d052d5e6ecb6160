// Package changecounter implements the change counter (§4.C): a monotonic,
// persistent integer that allocates the filenames of change records. Its
// one load-bearing property is Invariant CI (§3): the counter is flushed to
// disk before the record file it names is created, so a crash between the
// two never reuses an id.
package changecounter

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hcs-sync/engine/pkg/filesystem"
	"github.com/hcs-sync/engine/pkg/logging"
)

// Counter is the persisted change counter for one program data directory.
// It is not safe for concurrent use; callers serialize access to it via
// pkg/lock for the duration of a reconciler run (§5).
type Counter struct {
	path   string
	value  uint64
	logger *logging.Logger
}

// Init implements init(dir) from §4.C: it creates the counter file with
// value 0 if absent, and the changes/ subdirectory alongside it, then loads
// the current value.
func Init(programDataDirectory string, logger *logging.Logger) (*Counter, error) {
	if err := filesystem.EnsureProgramDataLayout(programDataDirectory); err != nil {
		return nil, fmt.Errorf("unable to prepare program data directory: %w", err)
	}

	path := filepath.Join(programDataDirectory, filesystem.CounterFileName)
	counter := &Counter{path: path, logger: logger}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if writeErr := counter.persist(0); writeErr != nil {
			return nil, fmt.Errorf("unable to initialize counter file: %w", writeErr)
		}
		return counter, nil
	} else if err != nil {
		return nil, fmt.Errorf("unable to read counter file: %w", err)
	}

	value, err := parseCounter(data)
	if err != nil {
		return nil, fmt.Errorf("unable to parse counter file: %w", err)
	}
	counter.value = value
	return counter, nil
}

// Allocate implements allocate() from §4.C: it increments the counter,
// durably persists the new value, and only then returns it. Callers must
// not create the corresponding record file until Allocate returns
// successfully — that ordering is what Invariant CI relies on. If a caller
// fails to write the record after a successful Allocate, the counter has
// still advanced; that gap is permitted, since records are identified by
// id, not by density.
func (c *Counter) Allocate() (uint64, error) {
	next := c.value + 1
	if err := c.persist(next); err != nil {
		return 0, fmt.Errorf("unable to durably advance counter: %w", err)
	}
	c.value = next
	return next, nil
}

// Reset implements reset(n) from §4.C. It must only be called outside the
// walker loops (after a successful sync), never interleaved with Allocate
// calls from an in-progress reconciliation run.
func (c *Counter) Reset(n uint64) error {
	if err := c.persist(n); err != nil {
		return fmt.Errorf("unable to reset counter: %w", err)
	}
	c.value = n
	return nil
}

// Value returns the counter's current value without allocating.
func (c *Counter) Value() uint64 {
	return c.value
}

// RecordPath returns the path at which a record with the given id should be
// written: <program_data>/changes/<id>.
func (c *Counter) RecordPath(id uint64) string {
	return filepath.Join(filepath.Dir(c.path), filesystem.ChangesDirectoryName, strconv.FormatUint(id, 10))
}

func (c *Counter) persist(value uint64) error {
	return filesystem.WriteFileAtomic(c.path, []byte(strconv.FormatUint(value, 10)), 0600, c.logger)
}

func parseCounter(data []byte) (uint64, error) {
	return strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
}
