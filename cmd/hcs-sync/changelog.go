package main

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/hcs-sync/engine/pkg/changeevent"
	"github.com/hcs-sync/engine/pkg/filesystem"
	"github.com/hcs-sync/engine/pkg/merge"
)

// loadChangeLog reads every record in <programDataDirectory>/changes, in
// ascending id order, and parses each into a merge.Entry. It is read-only:
// unlike pkg/changecounter.Init, it never creates the counter file or the
// changes directory, since optimize and merge only ever consume an existing
// log produced by a prior reconcile run.
func loadChangeLog(programDataDirectory string) ([]merge.Entry, error) {
	counterPath := filepath.Join(programDataDirectory, filesystem.CounterFileName)
	data, err := os.ReadFile(counterPath)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read change counter")
	}
	highest, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse change counter")
	}

	changesDirectory := filepath.Join(programDataDirectory, filesystem.ChangesDirectoryName)

	var entries []merge.Entry
	for id := uint64(1); id <= highest; id++ {
		recordPath := filepath.Join(changesDirectory, strconv.FormatUint(id, 10))
		raw, err := os.ReadFile(recordPath)
		if os.IsNotExist(err) {
			// Allocate() can advance the counter without a record ever
			// landing (a caller crashed before writing it); skip the gap.
			continue
		} else if err != nil {
			return nil, errors.Wrapf(err, "unable to read change record %d", id)
		}

		record, err := changeevent.ParseRecord(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to parse change record %d", id)
		}

		event, err := record.ToChangeEvent()
		if err != nil {
			return nil, errors.Wrapf(err, "unable to convert change record %d", id)
		}

		entries = append(entries, merge.Entry{ID: id, Event: event})
	}

	return entries, nil
}

// formatEntry renders a merge.Entry as a single human-readable line,
// reusing pkg/changeevent's record opcodes as the display vocabulary.
func formatEntry(entry merge.Entry) string {
	record := changeevent.FromChangeEvent(entry.Event)
	if record.From != "" || record.To != "" {
		return string(record.Opcode) + " " + record.From + " -> " + record.To
	}
	return string(record.Opcode) + " " + record.Path
}
