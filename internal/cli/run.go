package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/llehouerou/nowplaying/internal/artwork"
	"github.com/llehouerou/nowplaying/internal/config"
	"github.com/llehouerou/nowplaying/internal/errmsg"
	"github.com/llehouerou/nowplaying/internal/logging"
	"github.com/llehouerou/nowplaying/internal/mpris"
	"github.com/llehouerou/nowplaying/internal/notify"
	"github.com/llehouerou/nowplaying/internal/watch"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Watch media players and notify on track changes (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, opts)
		},
	}
}

func runWatch(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return errmsg.Wrap(errmsg.OpConfigLoad, err)
	}

	logger, closer, err := logging.New(cfg.GetLogConfig(), cmd.ErrOrStderr())
	if err != nil {
		return errmsg.Wrap(errmsg.OpInitialize, err)
	}
	defer closer.Close()
	opts.applyVerbose(logger)
	log := logging.Component(logger, "main")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ncfg := cfg.GetNotificationsConfig()
	notifier, err := notify.New(ncfg.AppName, ncfg.DesktopEntry)
	if err != nil {
		return errmsg.Wrap(errmsg.OpInitialize, err)
	}

	var images notify.ImageResolver
	if cache, err := openArtworkCache(cfg, logger); err != nil {
		log.WithError(err).Warn("artwork disabled")
	} else {
		images = cache
	}
	dispatcher := notify.NewDispatcher(notifier, images, notify.OptionsFromConfig(ncfg), logging.Component(logger, "notify"))

	var registry watch.Registry
	st, err := opts.openState()
	if err != nil {
		log.WithError(err).Warn("source registry unavailable, all sources allowed")
	} else {
		defer st.Close()
		registry = st
	}

	acfg := cfg.GetArtworkConfig()
	watcher := mpris.NewWatcher(mpris.Options{
		BufferSize:  cfg.GetWatchConfig().EventBuffer,
		LocalCovers: *acfg.LocalCovers,
	}, logging.Component(logger, "mpris"))

	loop := watch.New(watcher, dispatcher, registry, watch.OptionsFromConfig(cfg), logging.Component(logger, "watch"))
	loop.SetLevelFunc(opts.logLevel)

	go watchConfig(ctx, opts.configPaths(), loop, logging.Component(logger, "config"))

	log.Info("watching media sessions")
	if err := loop.Run(ctx); err != nil {
		return errmsg.Wrap(errmsg.OpSubscribe, err)
	}
	return nil
}

func openArtworkCache(cfg *config.Config, logger *logrus.Logger) (*artwork.Cache, error) {
	acfg := cfg.GetArtworkConfig()
	dir := acfg.Dir
	if dir == "" {
		dir = artwork.DefaultDir()
	}
	return artwork.New(dir, uint(acfg.MaxSize), acfg.CacheKeep, logging.Component(logger, "artwork"))
}

func watchConfig(ctx context.Context, paths []string, loop *watch.Loop, log *logrus.Entry) {
	err := config.Watch(ctx, paths, func(cfg *config.Config, err error) {
		if err != nil {
			log.WithError(err).Warn(errmsg.Format(errmsg.OpConfigReload, err))
			return
		}
		loop.Reload(cfg)
	})
	if err != nil {
		log.WithError(err).Debug(errmsg.Format(errmsg.OpConfigWatch, err))
	}
}
