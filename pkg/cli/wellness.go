package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newWellnessCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wellness",
		Short: "Quote of the day and fun facts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "quote",
		Short: "Show the quote of the day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.client(cmd.ErrOrStderr()).Quote(cmd.Context())
			if err != nil {
				return err
			}
			if ok, err := encode(cmd.OutOrStdout(), a.output, q); ok {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), titleStyle.Render(fmt.Sprintf("“%s”", q.Quote)))
			if q.Author != "" {
				fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("  - "+q.Author))
			}
			return nil
		},
	}, &cobra.Command{
		Use:   "fact",
		Short: "Show a random fun fact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fact, err := a.client(cmd.ErrOrStderr()).FunFact(cmd.Context())
			if err != nil {
				return err
			}
			if ok, err := encode(cmd.OutOrStdout(), a.output, map[string]string{"fact": fact}); ok {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), fact)
			return nil
		},
	})
	return cmd
}
