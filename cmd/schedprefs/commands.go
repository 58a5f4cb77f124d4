package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/standardbeagle/schedprefs/internal/config"
	"github.com/standardbeagle/schedprefs/internal/snap"
	"github.com/standardbeagle/schedprefs/internal/watch"
)

func newPathCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.load(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), store.Path())
			return nil
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print every setting and snapping profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.load(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			st := a.styles(out)

			fmt.Fprintln(out, st.render(st.header, "settings"))
			for _, key := range config.Keys() {
				setting, _ := config.Lookup(key)
				fmt.Fprintln(out, st.settingRow(key, setting.Get(store)))
			}
			if n := len(store.UserExtensions()); n > 0 {
				fmt.Fprintln(out, st.settingRow("extensions", strconv.Itoa(n)))
			}
			for _, c := range snap.Combinations() {
				fmt.Fprintln(out)
				st.printProfile(out, store.SnapProfile(c))
			}
			return nil
		},
	}
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print one setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			setting, err := config.Lookup(args[0])
			if err != nil {
				return err
			}
			store, err := a.load(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), setting.Get(store))
			return nil
		},
	}
}

func newSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE [KEY VALUE...]",
		Short: "Change settings and save them in a single write",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || len(args)%2 != 0 {
				return errors.New("expected KEY VALUE pairs")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Validate every key before touching the store
			settings := make([]config.Setting, 0, len(args)/2)
			for i := 0; i < len(args); i += 2 {
				setting, err := config.Lookup(args[i])
				if err != nil {
					return err
				}
				settings = append(settings, setting)
			}

			store, err := a.load(cmd)
			if err != nil {
				return err
			}
			return store.Edit(func(s *config.Store) error {
				for i, setting := range settings {
					if err := setting.Set(s, args[2*i+1]); err != nil {
						return fmt.Errorf("%s: %w", setting.Key, err)
					}
				}
				return nil
			})
		},
	}
}

func newSnapCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "snap [MODIFIERS]",
		Short: "Print the snapping profile for held modifiers (e.g. ctrl+shift)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.load(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			st := a.styles(out)

			if len(args) == 0 {
				for i, c := range snap.Combinations() {
					if i > 0 {
						fmt.Fprintln(out)
					}
					st.printProfile(out, store.SnapProfile(c))
				}
				return nil
			}

			mods, err := snap.ParseModifiers(args[0])
			if err != nil {
				return err
			}
			st.printProfile(out, store.ResolveSnap(mods))
			return nil
		},
	}
}

func newSnapSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "snap-set MODIFIERS ALGORITHM on|off DISTANCE",
		Short: "Change one snapping rule of a profile",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			mods, err := snap.ParseModifiers(args[0])
			if err != nil {
				return err
			}
			algo, err := snap.ParseAlgorithm(args[1])
			if err != nil {
				return err
			}
			active, err := parseSwitch(args[2])
			if err != nil {
				return fmt.Errorf("%w: %q is not on or off", config.ErrInvalidValue, args[2])
			}
			distance, err := strconv.Atoi(args[3])
			if err != nil {
				return fmt.Errorf("%w: %q is not an integer", config.ErrInvalidValue, args[3])
			}

			store, err := a.load(cmd)
			if err != nil {
				return err
			}
			p := store.UpdateSnapProfile(mods, func(p *snap.Profile) {
				*p.Rule(algo) = snap.Rule{Active: active, Distance: distance}
			})
			a.styles(cmd.OutOrStdout()).printProfile(cmd.OutOrStdout(), p)
			return nil
		},
	}
}

func newResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the built-in defaults (extensions are kept)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.load(cmd)
			if err != nil {
				return err
			}
			store.Reset()
			return store.Save()
		},
	}
}

func newDiffCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "diff",
		Short: "Show how the current settings differ from the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.load(cmd)
			if err != nil {
				return err
			}
			defaults, err := config.MarshalDefaults()
			if err != nil {
				return err
			}
			current, err := store.Marshal()
			if err != nil {
				return err
			}

			diff, err := unifiedDiff(defaults, current, "defaults", store.Path())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if diff == "" {
				fmt.Fprintln(out, "no differences from the defaults")
				return nil
			}
			a.styles(out).printDiff(out, diff)
			return nil
		},
	}
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Report edits to the config file until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.load(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			st := a.styles(out)

			w, err := watch.New(store, watch.WithEventBus(a.bus))
			if err != nil {
				return err
			}

			previous, err := store.Marshal()
			if err != nil {
				return err
			}
			w.OnChange(func(change watch.Change) {
				stamp := change.At.Format("15:04:05")
				if change.Removed {
					fmt.Fprintf(out, "%s %s removed\n", stamp, change.Path)
					previous = nil
					return
				}
				fmt.Fprintf(out, "%s %s changed\n", stamp, change.Path)
				if diff, err := unifiedDiff(previous, change.Data, "before", "after"); err == nil {
					st.printDiff(out, diff)
				}
				previous = change.Data
			})
			w.Start()

			fmt.Fprintf(out, "watching %s (Ctrl+C to stop)\n", store.Path())
			sigChan := make(chan os.Signal, 1)
			setupSignalHandling(sigChan)
			defer signal.Stop(sigChan)

			select {
			case <-sigChan:
			case <-cmd.Context().Done():
			}
			return w.Stop()
		},
	}
}
