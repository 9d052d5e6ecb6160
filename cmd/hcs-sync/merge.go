package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hcs-sync/engine/cmd"
	pkgmerge "github.com/hcs-sync/engine/pkg/merge"
)

// mergeMain merges the change logs of two or more program data directories
// into a single id-ordered stream (§4.I). Coordinating a shared id space
// across the directories given is the caller's responsibility; this command
// only performs the merge itself.
func mergeMain(command *cobra.Command, arguments []string) error {
	if len(arguments) < 2 {
		return errors.New("merge requires at least two program data directories")
	}

	streams := make([][]pkgmerge.Entry, 0, len(arguments))
	for _, directory := range arguments {
		entries, err := loadChangeLog(directory)
		if err != nil {
			return errors.Wrapf(err, "unable to load change log from %s", directory)
		}
		streams = append(streams, entries)
	}

	merged := pkgmerge.Merge(streams)

	fmt.Printf("%d streams merged into %d records\n", len(streams), len(merged))
	for _, entry := range merged {
		fmt.Println(formatEntry(entry))
	}

	return nil
}

var mergeCommand = &cobra.Command{
	Use:   "merge <program-data-directory>...",
	Short: "Merge two or more change logs into a single id-ordered stream",
	Run:   cmd.Mainify(mergeMain),
}

var mergeConfiguration struct {
	help bool
}

func init() {
	flags := mergeCommand.Flags()
	flags.SortFlags = false
	flags.BoolVarP(&mergeConfiguration.help, "help", "h", false, "Show help information")
}
