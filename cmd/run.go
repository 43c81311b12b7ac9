package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	sessionrender "github.com/quorum-sh/quorum/internal/adapters/render/session"
	"github.com/quorum-sh/quorum/internal/application"
	"github.com/quorum-sh/quorum/internal/domain"
)

func newRunCmd(app *app) *cobra.Command {
	var showPhases bool
	var noSpinner bool

	cmd := &cobra.Command{
		Use:   "run <problem>",
		Short: "Run a collaboration session on a problem statement",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			problem := strings.TrimSpace(strings.Join(args, " "))
			if problem == "" {
				return fmt.Errorf("problem statement is empty")
			}

			profiles, err := app.roster.List(cmd.Context())
			if err != nil {
				return err
			}

			orch, err := application.NewOrchestrator(profiles, app.newClient(), app.sessions, app.clock)
			if err != nil {
				return err
			}
			defer func() { _ = orch.Close() }()

			var session domain.Session
			work := func(ctx context.Context) error {
				session, err = orch.Run(ctx, problem)
				return err
			}

			if noSpinner {
				if err := work(cmd.Context()); err != nil {
					return err
				}
			} else {
				if err := runCollaborationSpinner(cmd.Context(), cmd.ErrOrStderr(), "Agents collaborating...", work); err != nil {
					return err
				}
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
	cmd.Flags().BoolVar(&noSpinner, "no-spinner", false, "disable the progress spinner (useful for scripts)")

	return cmd
}
