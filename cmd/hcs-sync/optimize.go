package main

import (
	"encoding/binary"
	"fmt"

	"github.com/eknkc/basex"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hcs-sync/engine/cmd"
	"github.com/hcs-sync/engine/pkg/filesystem"
	"github.com/hcs-sync/engine/pkg/logging"
	"github.com/hcs-sync/engine/pkg/optimize"
)

// idAlphabet is the base58-style alphabet used to render entry ids compactly
// in verbose optimize output, avoiding the visually ambiguous characters
// (0/O, I/l) a base62 alphabet would include.
const idAlphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

var idEncoding *basex.Encoding

func init() {
	encoding, err := basex.NewEncoding(idAlphabet)
	if err != nil {
		panic(err)
	}
	idEncoding = encoding
}

// encodeID renders id in the compact alphabet above, with no leading-zero
// byte padding (ids are small enough that this is always unambiguous).
func encodeID(id uint64) string {
	var buffer [8]byte
	binary.BigEndian.PutUint64(buffer[:], id)
	trimmed := buffer[:]
	for len(trimmed) > 1 && trimmed[0] == 0 {
		trimmed = trimmed[1:]
	}
	return idEncoding.Encode(trimmed)
}

func optimizeMain(command *cobra.Command, arguments []string) error {
	programData := optimizeConfiguration.programData
	if programData == "" {
		programData = filesystem.DefaultDataDirectoryPath
	}

	entries, err := loadChangeLog(programData)
	if err != nil {
		return errors.Wrap(err, "unable to load change log")
	}

	logger := logging.NewLogger(logging.LevelWarn)
	optimized := optimize.New(logger).Optimize(entries)

	fmt.Printf("%d records collapsed to %d\n", len(entries), len(optimized))
	for _, entry := range optimized {
		if optimizeConfiguration.verbose {
			fmt.Printf("[%s] %s\n", encodeID(entry.ID), formatEntry(entry))
		} else {
			fmt.Println(formatEntry(entry))
		}
	}

	return nil
}

var optimizeCommand = &cobra.Command{
	Use:   "optimize",
	Short: "Collapse a program data directory's change log via the rewrite algebra",
	Args:  cmd.DisallowArguments,
	Run:   cmd.Mainify(optimizeMain),
}

var optimizeConfiguration struct {
	help        bool
	programData string
	verbose     bool
}

func init() {
	flags := optimizeCommand.Flags()
	flags.SortFlags = false
	flags.BoolVarP(&optimizeConfiguration.help, "help", "h", false, "Show help information")
	flags.StringVarP(&optimizeConfiguration.programData, "program-data", "d", "", "Path to the program data directory (default: "+filesystem.DataDirectoryName+" in the home directory)")
	flags.BoolVarP(&optimizeConfiguration.verbose, "verbose", "v", false, "Show each record's compact entry id")
}
