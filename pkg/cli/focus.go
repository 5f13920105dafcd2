package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/harrisonrobin/steady/pkg/focus"
	"github.com/harrisonrobin/steady/pkg/stats"
	"github.com/spf13/cobra"
)

// cmdIO is the part of *cobra.Command the timers need.
type cmdIO interface {
	Context() context.Context
	OutOrStdout() io.Writer
}

func newPomodoroCmd(a *app) *cobra.Command {
	var (
		minutes int
		plain   bool
	)
	cmd := &cobra.Command{
		Use:     "pomodoro TASK_ID",
		Aliases: []string{"focus"},
		Short:   "Run a focus timer on a pending task",
		Long: fmt.Sprintf(`Run a Pomodoro focus timer on a pending task.
Common lengths are %v minutes. A finished run is added to your pomodoro count.`, focus.PomodoroPresets),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			coord, done, err := a.coordinator(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			task, _ := coord.Task(id)
			done()

			store, err := stats.NewStore()
			if err != nil {
				return err
			}
			pomo, err := focus.NewPomodoro(task, minutes, store)
			if err != nil {
				return err
			}
			finished, err := runTimer(cmd, pomo.Timer, "Pomodoro", task.Title, false, plain)
			if err != nil {
				return err
			}
			if !finished {
				return nil
			}
			if err := store.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pomodoros completed: %d\n", store.Pomodoros())
			return nil
		},
	}
	cmd.Flags().IntVarP(&minutes, "minutes", "m", focus.DefaultPomodoroMinutes, "timer length in minutes")
	cmd.Flags().BoolVar(&plain, "plain", false, "no interactive view")
	return cmd
}

func newMeditateCmd(a *app) *cobra.Command {
	var (
		minutes int
		plain   bool
	)
	cmd := &cobra.Command{
		Use:   "meditate",
		Short: "Run a guided breathing timer",
		Long: fmt.Sprintf(`Run a meditation timer with breathing cues.
Suggested lengths are %v minutes.`, focus.MeditationPresets),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := stats.NewStore()
			if err != nil {
				return err
			}
			timer, err := focus.NewMeditation(minutes, store)
			if err != nil {
				return err
			}
			finished, err := runTimer(cmd, timer, "Meditation", "", true, plain)
			if err != nil {
				return err
			}
			if !finished {
				return nil
			}
			if err := store.Save(); err != nil {
				return err
			}
			m := store.Meditation()
			fmt.Fprintf(cmd.OutOrStdout(), "Meditation: %d sessions, %d minutes\n", m.Sessions, m.Minutes)
			return nil
		},
	}
	cmd.Flags().IntVarP(&minutes, "minutes", "m", focus.DefaultMeditationMinutes, "timer length in minutes")
	cmd.Flags().BoolVar(&plain, "plain", false, "no interactive view")
	return cmd
}
