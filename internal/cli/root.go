// Package cli wires the nowplaying commands.
package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/llehouerou/nowplaying/internal/config"
	"github.com/llehouerou/nowplaying/internal/logging"
	"github.com/llehouerou/nowplaying/internal/state"
)

type rootOptions struct {
	configFile string
	dbPath     string
	verbose    bool
}

// Execute runs the command line.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree. Without a subcommand it runs the
// watcher.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "nowplaying",
		Short: "Show a desktop notification when the playing track changes",
		Long: `nowplaying follows the media player you are listening to and shows a
short, silent notification whenever a new track starts.

Players are discovered over MPRIS on the session bus. Each player is
remembered as a source that can be disabled with "nowplaying sources".`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Extra config file, read after the default ones")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "Path to the state database")
	_ = cmd.PersistentFlags().MarkHidden("db")

	cmd.AddCommand(
		newRunCmd(opts),
		newSourcesCmd(opts),
		newSendToastCmd(opts),
		newPathsCmd(opts),
	)
	return cmd
}

func (o *rootOptions) configPaths() []string {
	paths := config.Paths()
	if o.configFile != "" {
		paths = append(paths, o.configFile)
	}
	return paths
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	return config.LoadFiles(o.configPaths()...)
}

func (o *rootOptions) openState() (*state.Manager, error) {
	if o.dbPath != "" {
		return state.OpenPath(o.dbPath)
	}
	return state.Open()
}

func (o *rootOptions) applyVerbose(logger *logrus.Logger) {
	if o.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
}

// logLevel resolves the level for cfg with --verbose taking precedence.
func (o *rootOptions) logLevel(cfg config.LogConfig) string {
	if o.verbose {
		return logrus.DebugLevel.String()
	}
	return logging.Level(cfg)
}
