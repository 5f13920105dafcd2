package cli

import (
	"fmt"
	"strconv"

	"github.com/harrisonrobin/steady/pkg/model"
	"github.com/spf13/cobra"
)

func newTasksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task", "t"},
		Short:   "List and change tasks and habits",
	}
	cmd.AddCommand(
		newTasksListCmd(a),
		newTasksAddCmd(a),
		newTasksUpdateCmd(a),
		newTasksDeleteCmd(a),
		newTasksCompleteCmd(a),
		newTasksImportCmd(a),
	)
	return cmd
}

func newTasksListCmd(a *app) *cobra.Command {
	var (
		status   string
		priority string
		query    string
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show tasks, most urgent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := model.Filter{Query: query, Priority: model.FilterAll, Status: model.FilterAll}
			if priority != "" && priority != "all" {
				p, err := model.ParsePriority(priority)
				if err != nil {
					return err
				}
				f.Priority = string(p)
			}
			if status != "all" {
				s, err := model.ParseStatus(status)
				if err != nil {
					return err
				}
				f.Status = string(s)
			}

			coord, done, err := a.coordinator(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer done()

			list := coord.List(f)
			if ok, err := encode(cmd.OutOrStdout(), a.output, list); ok {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), taskTable(list, today()))
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "pending", "pending, completed or all")
	cmd.Flags().StringVar(&priority, "priority", "all", "low, medium, high or all")
	cmd.Flags().StringVarP(&query, "query", "q", "", "match title or category")
	return cmd
}

func newTasksAddCmd(a *app) *cobra.Command {
	var (
		category  string
		priority  string
		deadline  string
		recurring bool
	)
	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Add a task, or a habit with --habit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := model.Draft{Title: args[0], Category: category, Recurring: recurring}
			var err error
			if priority != "" {
				if d.Priority, err = model.ParsePriority(priority); err != nil {
					return err
				}
			}
			if d.Deadline, err = model.ParseDate(deadline); err != nil {
				return err
			}
			d = d.WithDefaults()

			coord, done, err := a.coordinator(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer done()

			if err := coord.Add(cmd.Context(), d); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("Added %q", d.Title)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "category (default General)")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "low, medium or high (default medium)")
	cmd.Flags().StringVarP(&deadline, "deadline", "d", "", "due date, YYYY-MM-DD")
	cmd.Flags().BoolVar(&recurring, "habit", false, "track as a recurring habit")
	return cmd
}

func newTasksUpdateCmd(a *app) *cobra.Command {
	var (
		title     string
		category  string
		priority  string
		deadline  string
		status    string
		recurring bool
	)
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var patch model.Patch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("category") {
				patch.Category = &category
			}
			if flags.Changed("priority") {
				p, err := model.ParsePriority(priority)
				if err != nil {
					return err
				}
				patch.Priority = &p
			}
			if flags.Changed("deadline") {
				d, err := model.ParseDate(deadline)
				if err != nil {
					return err
				}
				patch.Deadline = &d
			}
			if flags.Changed("status") {
				s, err := model.ParseStatus(status)
				if err != nil {
					return err
				}
				patch.Status = &s
			}
			if flags.Changed("habit") {
				patch.Recurring = &recurring
			}

			coord, done, err := a.coordinator(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer done()

			if _, ok := coord.Task(id); !ok {
				return fmt.Errorf("task %d not found", id)
			}
			if err := coord.Update(cmd.Context(), id, patch); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("Updated task %d", id)))
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVarP(&category, "category", "c", "", "new category")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "low, medium or high")
	cmd.Flags().StringVarP(&deadline, "deadline", "d", "", "due date, YYYY-MM-DD; empty clears it")
	cmd.Flags().StringVar(&status, "status", "", "pending or completed")
	cmd.Flags().BoolVar(&recurring, "habit", false, "track as a recurring habit")
	return cmd
}

func newTasksDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			coord, done, err := a.coordinator(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer done()

			if err := coord.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("Deleted task %d", id)))
			return nil
		},
	}
}

func newTasksCompleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "complete ID",
		Aliases: []string{"done"},
		Short:   "Mark a task completed",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			coord, done, err := a.coordinator(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer done()

			if err := coord.Complete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("Completed task %d", id)))
			return nil
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}
