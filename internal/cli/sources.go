package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/llehouerou/nowplaying/internal/errmsg"
	"github.com/llehouerou/nowplaying/internal/state"
)

func newSourcesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List and toggle the media applications that may notify",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List known sources",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withState(opts, func(st *state.Manager) error {
					sources, err := st.Sources()
					if err != nil {
						return errmsg.Wrap(errmsg.OpSourceList, err)
					}
					if len(sources) == 0 {
						fmt.Fprintln(cmd.OutOrStdout(), "No sources seen yet.")
						return nil
					}
					w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
					fmt.Fprintln(w, "SOURCE\tSTATE\tFIRST SEEN")
					for _, s := range sources {
						fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, enabledLabel(s.Enabled), humanize.Time(s.FirstSeen))
					}
					return w.Flush()
				})
			},
		},
		newToggleCmd(opts, "enable", "Allow notifications from a source", true, errmsg.OpSourceEnable),
		newToggleCmd(opts, "disable", "Stop notifications from a source", false, errmsg.OpSourceDisable),
		&cobra.Command{
			Use:   "clear",
			Short: "Forget all sources; they are registered again when next seen",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withState(opts, func(st *state.Manager) error {
					n, err := st.ClearSources()
					if err != nil {
						return errmsg.Wrap(errmsg.OpSourceClear, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Forgot %d %s.\n", n, plural(n, "source", "sources"))
					return nil
				})
			},
		},
	)
	return cmd
}

func newToggleCmd(opts *rootOptions, verb, short string, enabled bool, op errmsg.Op) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <source>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			return withState(opts, func(st *state.Manager) error {
				if err := st.SetSourceEnabled(name, enabled); err != nil {
					if errors.Is(err, state.ErrUnknownSource) {
						return fmt.Errorf("%s (see \"nowplaying sources list\")", errmsg.FormatWith(op, name, err))
					}
					return errors.New(errmsg.FormatWith(op, name, err))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Source %s %s.\n", name, enabledLabel(enabled))
				return nil
			})
		},
	}
}

func withState(opts *rootOptions, fn func(st *state.Manager) error) error {
	st, err := opts.openState()
	if err != nil {
		return errmsg.Wrap(errmsg.OpInitialize, err)
	}
	defer st.Close()
	return fn(st)
}

func enabledLabel(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
