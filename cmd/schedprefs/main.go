package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/standardbeagle/schedprefs/internal/config"
	"github.com/standardbeagle/schedprefs/pkg/events"
)

var (
	// Version is set at build time
	Version = "dev"
)

// app holds the flags and lazily loaded state shared by the subcommands.
type app struct {
	configPath string
	noColor    bool

	bus   *events.EventBus
	store *config.Store
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "schedprefs",
		Short: "Inspect and edit the scheduling timeline preferences",
		Long: `schedprefs reads and writes the persisted preferences of the scheduling
timeline: time-axis zoom, link display, item move detection and the snapping
profiles selected by keyboard modifiers.

Examples:
  schedprefs show                         # Print every setting
  schedprefs set zoom week links.curves false
  schedprefs snap ctrl+shift              # Snapping rules while ctrl+shift is held
  schedprefs snap-set shift grid_tick on 12
  schedprefs diff                         # Compare the file with the defaults
  schedprefs watch                        # Report edits made by other programs`,
		SilenceUsage: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (default: per-user data directory)")
	rootCmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable styled output")
	rootCmd.Version = Version

	rootCmd.AddCommand(
		newPathCmd(a),
		newShowCmd(a),
		newGetCmd(a),
		newSetCmd(a),
		newSnapCmd(a),
		newSnapSetCmd(a),
		newResetCmd(a),
		newDiffCmd(a),
		newWatchCmd(a),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// load opens the store once per invocation.
func (a *app) load(cmd *cobra.Command) (*config.Store, error) {
	if a.store != nil {
		return a.store, nil
	}

	a.bus = events.NewEventBus()
	store, err := config.Load(a.configPath,
		config.WithEventBus(a.bus),
		config.WithLogger(log.New(cmd.ErrOrStderr(), "schedprefs: ", 0)),
	)
	if err != nil {
		return nil, err
	}
	a.store = store
	return store, nil
}

// close flushes outstanding saves before the process exits.
func (a *app) close() error {
	var err error
	if a.store != nil {
		err = a.store.Close()
	}
	if a.bus != nil {
		a.bus.Shutdown()
	}
	return err
}

func (a *app) styles(w io.Writer) styles {
	return newStyles(w, a.noColor)
}
