package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/harrisonrobin/steady/pkg/insights"
	"github.com/harrisonrobin/steady/pkg/stats"
	"github.com/spf13/cobra"
)

func newAnalyticsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "analytics",
		Aliases: []string{"stats"},
		Short:   "Show completion rate, breakdowns and streaks",
		RunE: func(cmd *cobra.Command, args []string) error {
			counters, err := stats.NewStore()
			if err != nil {
				return err
			}
			summary, err := insights.Gather(cmd.Context(), a.client(cmd.ErrOrStderr()), counters)
			if err != nil {
				return err
			}
			if ok, err := encode(cmd.OutOrStdout(), a.output, summary); ok {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderSummary(summary))
			return nil
		},
	}
}

func renderSummary(s *insights.Summary) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Progress") + "\n")
	fmt.Fprintf(&b, "Completion rate      %s\n", okStyle.Render(fmt.Sprintf("%.1f%%", s.CompletionRate)))
	fmt.Fprintf(&b, "Habit consistency    %d%%\n", s.AverageConsistency)
	fmt.Fprintf(&b, "Pomodoros            %d\n", s.Pomodoros)
	fmt.Fprintf(&b, "Meditation           %d sessions, %d min\n\n", s.Meditation.Sessions, s.Meditation.Minutes)

	tables := []string{countTable("CATEGORY", s.ByCategory), countTable("PRIORITY", s.ByPriority)}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tables[0], "  ", tables[1]))

	if len(s.Habits) > 0 {
		b.WriteString("\n\n" + titleStyle.Render("Habits") + "\n")
		t := newTable("HABIT", "CONSISTENCY", "LAST DONE")
		for _, h := range s.Habits {
			t.Row(h.Title, fmt.Sprintf("%.0f%%", h.ConsistencyScore), h.LastCompleted.String())
		}
		b.WriteString(t.Render())
	}
	return b.String()
}
