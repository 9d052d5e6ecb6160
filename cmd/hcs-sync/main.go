package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hcs-sync/engine/cmd"
	"github.com/hcs-sync/engine/pkg/hcs"
)

func rootMain(command *cobra.Command, arguments []string) {
	if rootConfiguration.version {
		fmt.Println(hcs.Version)
		return
	}

	if rootConfiguration.bashCompletionScript != "" {
		if err := command.GenBashCompletionFile(rootConfiguration.bashCompletionScript); err != nil {
			cmd.Fatal(errors.Wrap(err, "unable to generate bash completion script"))
		}
		return
	}

	command.Help()
}

var rootCommand = &cobra.Command{
	Use:   "hcs-sync",
	Short: "hcs-sync reconciles a facade/storage pair and manages its change log.",
	Run:   rootMain,
}

var rootConfiguration struct {
	help                 bool
	version              bool
	bashCompletionScript string
}

func init() {
	flags := rootCommand.Flags()
	flags.BoolVarP(&rootConfiguration.help, "help", "h", false, "Show help information")
	flags.BoolVarP(&rootConfiguration.version, "version", "V", false, "Show version information")
	flags.StringVar(&rootConfiguration.bashCompletionScript, "generate-bash-completion", "", "Generate bash completion script")
	flags.MarkHidden("generate-bash-completion")

	cobra.EnableCommandSorting = false
	cobra.MousetrapHelpText = ""

	rootCommand.AddCommand(
		reconcileCommand,
		optimizeCommand,
		mergeCommand,
		versionCommand,
	)
}

func main() {
	// cmd.Warning/cmd.Error colorize via fatih/color, which only checks
	// isatty on the file descriptor it was given at package init; gate it
	// here too so piped/redirected output (e.g. into a log file) doesn't
	// carry ANSI escapes.
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}

	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
