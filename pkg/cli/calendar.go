package cli

import (
	"fmt"

	"github.com/harrisonrobin/steady/pkg/colors"
	"github.com/harrisonrobin/steady/pkg/google"
	"github.com/harrisonrobin/steady/pkg/index"
	"github.com/harrisonrobin/steady/pkg/model"
	"github.com/spf13/cobra"
)

func newCalendarCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Mirror task deadlines into Google Calendar",
	}

	var name string
	sync := &cobra.Command{
		Use:   "sync",
		Short: "Create, update and remove deadline events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if name == "" {
				name = a.cfg.Calendar
			}

			coord, done, err := a.coordinator(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			all := coord.List(model.Filter{Priority: model.FilterAll, Status: model.FilterAll})
			done()

			idx, err := index.NewEventIndex()
			if err != nil {
				return err
			}
			palette, err := colors.NewColorCache(a.logFor("colors"))
			if err != nil {
				return err
			}
			client, err := google.NewClient(ctx, name, idx, a.logFor("calendar"))
			if err != nil {
				return err
			}

			syncer := &google.Syncer{Client: client, Index: idx, Colors: palette, Log: a.logFor("calendar")}
			report, syncErr := syncer.Sync(ctx, all)
			if ok, err := encode(cmd.OutOrStdout(), a.output, report); ok {
				if err != nil {
					return err
				}
				return syncErr
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s created %d, updated %d, unchanged %d, removed %d, failed %d\n",
				titleStyle.Render(name+":"), report.Created, report.Updated, report.Unchanged, report.Removed, report.Failed)
			return syncErr
		},
	}
	sync.Flags().StringVar(&name, "calendar", "", "calendar name (default from config)")
	cmd.AddCommand(sync)
	return cmd
}
