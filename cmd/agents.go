package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quorum-sh/quorum/internal/domain"
)

func newAgentsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Manage the agent roster",
	}

	cmd.AddCommand(
		newAgentsListCmd(app),
		newAgentsEnableCmd(app),
		newAgentsDisableCmd(app),
	)

	return cmd
}

func newAgentsListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured agents",
		RunE: func(cmd *cobra.Command, _ []string) error {
			profiles, err := app.roster.List(cmd.Context())
			if err != nil {
				return err
			}

			for _, profile := range profiles {
				state := "disabled"
				if profile.Enabled {
					state = "enabled"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\ttemp=%.1f\t%s\n",
					profile.ID, profile.Role, profile.Model, profile.Temperature, state)
			}

			return nil
		},
	}
}

func newAgentsEnableCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "enable <agent-id>",
		Short: "Enable an agent for collaboration sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setAgentEnabled(cmd, app, domain.AgentID(args[0]), true)
		},
	}
}

func newAgentsDisableCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "disable <agent-id>",
		Short: "Exclude an agent from collaboration sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setAgentEnabled(cmd, app, domain.AgentID(args[0]), false)
		},
	}
}

func setAgentEnabled(cmd *cobra.Command, app *app, id domain.AgentID, enabled bool) error {
	profile, err := app.roster.GetByID(cmd.Context(), id)
	if err != nil {
		return err
	}

	profile.Enabled = enabled
	if err := app.roster.Save(cmd.Context(), profile); err != nil {
		return err
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", profile.ID, state)
	return err
}
