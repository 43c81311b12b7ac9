package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newModelsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Inspect the local inference service",
	}

	cmd.AddCommand(
		newModelsListCmd(app),
		newModelsHealthCmd(app),
	)

	return cmd
}

func newModelsListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List models available on the inference service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := app.newClient()
			defer func() { _ = client.Close() }()

			models, err := client.Models(cmd.Context())
			if err != nil {
				return err
			}

			if len(models) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "no models installed")
				return err
			}

			for _, model := range models {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), model)
			}
			return nil
		},
	}
}

func newModelsHealthCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the inference service is reachable",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := app.newClient()
			defer func() { _ = client.Close() }()

			if err := client.Healthy(cmd.Context()); err != nil {
				return fmt.Errorf("inference service unhealthy: %w", err)
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return err
		},
	}
}
