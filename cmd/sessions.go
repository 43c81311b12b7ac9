package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	sessionrender "github.com/quorum-sh/quorum/internal/adapters/render/session"
	"github.com/quorum-sh/quorum/internal/domain"
)

func newSessionsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Browse saved collaboration sessions",
	}

	cmd.AddCommand(
		newSessionsListCmd(app),
		newSessionsShowCmd(app),
	)

	return cmd
}

func newSessionsListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved sessions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			summaries, err := app.sessions.List(cmd.Context())
			if err != nil {
				return err
			}

			if len(summaries) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "no saved sessions")
				return err
			}

			for _, summary := range summaries {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", summary.ID, summary.Problem)
			}
			return nil
		},
	}
}

func newSessionsShowCmd(app *app) *cobra.Command {
	var showPhases bool

	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := app.sessions.GetByID(cmd.Context(), domain.SessionID(args[0]))
			if err != nil {
				return err
			}

			output, err := app.sessionRenderer(session, sessionrender.RenderOptions{ShowPhases: showPhases})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), output)
			return err
		},
	}

	cmd.Flags().BoolVar(&showPhases, "show-phases", false, "include per-agent records for every phase")

	return cmd
}
