package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hcs-sync/engine/cmd"
	"github.com/hcs-sync/engine/pkg/changecounter"
	"github.com/hcs-sync/engine/pkg/config"
	"github.com/hcs-sync/engine/pkg/filesystem"
	"github.com/hcs-sync/engine/pkg/lock"
	"github.com/hcs-sync/engine/pkg/logging"
	"github.com/hcs-sync/engine/pkg/pathmodel"
	"github.com/hcs-sync/engine/pkg/recorder"
	"github.com/hcs-sync/engine/pkg/sidecar"
	"github.com/hcs-sync/engine/pkg/walk"
)

// reconcileMain runs one full reconciliation pass: a facade walk (adopting
// loose files, repairing stale links) followed by a storage walk (detecting
// modifications and deletions), under the exclusive lock required by §5.
func reconcileMain(command *cobra.Command, arguments []string) error {
	configPath := reconcileConfiguration.config
	if configPath == "" {
		configPath = filesystem.DefaultConfigurationPath
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return errors.Wrap(err, "unable to load configuration")
	}

	level := logging.LevelInfo
	if reconcileConfiguration.verbose {
		level = logging.LevelDebug
	}
	logger := logging.NewLogger(level)

	locker, err := lock.Acquire(filepath.Join(cfg.ProgramData, filesystem.LockFileName))
	if err != nil {
		if err == lock.ErrLocked {
			return errors.New("another reconciler run is already in progress against this program data directory")
		}
		return errors.Wrap(err, "unable to acquire reconciliation lock")
	}
	defer locker.Unlock()

	counter, err := changecounter.Init(cfg.ProgramData, logger)
	if err != nil {
		return errors.Wrap(err, "unable to initialize change counter")
	}

	store := sidecar.NewStore(logger)
	rec := recorder.New(store, counter, logger)

	roots := pathmodel.Roots{StorageRoot: cfg.Storage, FacadeRoot: cfg.Facade}

	before := counter.Value()
	start := time.Now()

	// Watch for termination while the walks run so an interrupted run still
	// releases the lock (via the deferred Unlock above) instead of leaving it
	// held until the process is killed outright.
	signalTermination := make(chan os.Signal, 1)
	signal.Notify(signalTermination, cmd.TerminationSignals...)

	walkErrors := make(chan error, 1)
	go func() {
		facadeWalker := &walk.Facade{Roots: roots, Recorder: rec, Logger: logger, Ignore: cfg.Ignore}
		if err := facadeWalker.Walk(); err != nil {
			walkErrors <- errors.Wrap(err, "facade walk failed")
			return
		}

		storageWalker := &walk.Storage{Roots: roots, Recorder: rec, Logger: logger}
		if err := storageWalker.Walk(); err != nil {
			walkErrors <- errors.Wrap(err, "storage walk failed")
			return
		}

		walkErrors <- nil
	}()

	select {
	case sig := <-signalTermination:
		return errors.Errorf("terminated by signal: %s", sig)
	case err := <-walkErrors:
		if err != nil {
			return err
		}
	}

	elapsed := time.Since(start)
	produced := counter.Value() - before

	fmt.Printf("Reconciled in %s, %s change%s recorded (counter now at %s)\n",
		elapsed.Round(time.Millisecond),
		humanize.Comma(int64(produced)),
		plural(produced),
		humanize.Comma(int64(counter.Value())),
	)

	return nil
}

func plural(n uint64) string {
	if n == 1 {
		return ""
	}
	return "s"
}

var reconcileCommand = &cobra.Command{
	Use:   "reconcile",
	Short: "Run one facade/storage reconciliation pass",
	Args:  cmd.DisallowArguments,
	Run:   cmd.Mainify(reconcileMain),
}

var reconcileConfiguration struct {
	help    bool
	config  string
	verbose bool
}

func init() {
	flags := reconcileCommand.Flags()
	flags.SortFlags = false
	flags.BoolVarP(&reconcileConfiguration.help, "help", "h", false, "Show help information")
	flags.StringVarP(&reconcileConfiguration.config, "config", "c", "", "Path to the TOML configuration file (default: "+filesystem.DefaultConfigurationName+" in the home directory)")
	flags.BoolVarP(&reconcileConfiguration.verbose, "verbose", "v", false, "Enable verbose logging")
}
