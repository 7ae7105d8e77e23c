package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/llehouerou/nowplaying/internal/errmsg"
	"github.com/llehouerou/nowplaying/internal/notify"
)

type toastOptions struct {
	title   string
	body    string
	icon    string
	timeout int32
	replace uint32
}

// newSendToastCmd shows one notification the same way the watcher does.
// Handy to check that the notification daemon is reachable.
func newSendToastCmd(opts *rootOptions) *cobra.Command {
	topts := &toastOptions{}

	cmd := &cobra.Command{
		Use:   "send-toast",
		Short: "Show a single test notification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return errmsg.Wrap(errmsg.OpConfigLoad, err)
			}
			ncfg := cfg.GetNotificationsConfig()

			notifier, err := notify.New(ncfg.AppName, ncfg.DesktopEntry)
			if err != nil {
				return errmsg.Wrap(errmsg.OpNotifyShow, err)
			}

			timeout := ncfg.Timeout
			if cmd.Flags().Changed("timeout") {
				timeout = topts.timeout
			}
			id, err := notifier.Notify(notify.Notification{
				Title:      topts.title,
				Body:       topts.body,
				Icon:       topts.icon,
				Silent:     true,
				Timeout:    timeout,
				Urgency:    notify.ParseUrgency(ncfg.Urgency),
				ReplacesID: topts.replace,
			})
			if err != nil {
				return errmsg.Wrap(errmsg.OpNotifyShow, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.Flags().StringVar(&topts.title, "title", "nowplaying", "Notification title")
	cmd.Flags().StringVar(&topts.body, "body", "Notifications are working.", "Notification body")
	cmd.Flags().StringVar(&topts.icon, "icon", "", "Icon name or image path")
	cmd.Flags().Int32Var(&topts.timeout, "timeout", 0, "Display time in ms, -1 for the server default")
	cmd.Flags().Uint32Var(&topts.replace, "replace", 0, "ID of a notification to replace")
	return cmd
}
