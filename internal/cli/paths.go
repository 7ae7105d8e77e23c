package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/llehouerou/nowplaying/internal/artwork"
	"github.com/llehouerou/nowplaying/internal/state"
)

func newPathsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print the config files, database and artwork cache in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			dbPath := opts.dbPath
			if dbPath == "" {
				if dbPath, err = state.DBPath(); err != nil {
					return err
				}
			}
			artDir := cfg.GetArtworkConfig().Dir
			if artDir == "" {
				artDir = artwork.DefaultDir()
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, p := range opts.configPaths() {
				fmt.Fprintf(w, "config\t%s\n", p)
			}
			fmt.Fprintf(w, "database\t%s\n", dbPath)
			fmt.Fprintf(w, "artwork\t%s\n", artDir)
			return w.Flush()
		},
	}
}
