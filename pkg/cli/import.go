package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/harrisonrobin/steady/pkg/model"
	"github.com/harrisonrobin/steady/pkg/orgmode"
	"github.com/harrisonrobin/steady/pkg/taskwarrior"
	"github.com/spf13/cobra"
)

func newTasksImportCmd(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Bring tasks over from Taskwarrior or Org files",
	}
	cmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "show what would be added without sending anything")

	var file string
	tw := &cobra.Command{
		Use:   "taskwarrior [FILTER...]",
		Short: "Import from `task export`, or from an export file with --file",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := taskwarrior.NewClient()
			var (
				exported []taskwarrior.Task
				err      error
			)
			switch file {
			case "":
				exported, err = client.GetTasks(cmd.Context(), args)
			case "-":
				exported, err = client.ParseTasks(cmd.InOrStdin())
			default:
				var f *os.File
				if f, err = os.Open(file); err != nil {
					return err
				}
				defer f.Close()
				exported, err = client.ParseTasks(f)
			}
			if err != nil {
				return err
			}
			return a.importDrafts(cmd, taskwarrior.Drafts(exported, time.Local), dryRun)
		},
	}
	tw.Flags().StringVarP(&file, "file", "f", "", "read export JSON from a file, - for stdin")

	org := &cobra.Command{
		Use:   "org FILE...",
		Short: "Import TODO headlines from Org files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			drafts, err := orgmode.ParseFiles(args)
			if err != nil {
				return err
			}
			return a.importDrafts(cmd, drafts, dryRun)
		},
	}

	cmd.AddCommand(tw, org)
	return cmd
}

func (a *app) importDrafts(cmd *cobra.Command, drafts []model.Draft, dryRun bool) error {
	out := cmd.OutOrStdout()
	if dryRun {
		if ok, err := encode(out, a.output, drafts); ok {
			return err
		}
		fmt.Fprintln(out, draftTable(drafts))
		return nil
	}

	coord, done, err := a.coordinator(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer done()

	report, importErr := coord.Import(cmd.Context(), drafts)
	if ok, err := encode(out, a.output, report); ok {
		if err != nil {
			return err
		}
		return importErr
	}
	fmt.Fprintf(out, "%s added %d, skipped %d, failed %d\n",
		titleStyle.Render("Import:"), report.Added, report.Skipped, report.Failed)
	return importErr
}

func draftTable(drafts []model.Draft) string {
	t := newTable("TITLE", "CATEGORY", "PRIORITY", "DEADLINE", "STATUS")
	for _, d := range drafts {
		title := d.Title
		if d.Recurring {
			title = "↻ " + title
		}
		t.Row(title, d.Category, string(d.Priority), d.Deadline.String(), strings.ToLower(string(d.Status)))
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		if col == 2 && row >= 0 && row < len(drafts) {
			return priorityStyle(drafts[row].Priority)
		}
		return cellStyle
	})
	return t.Render()
}
