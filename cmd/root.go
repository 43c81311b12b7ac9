package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "quorum",
		Short:         "quorum: multi-agent collaboration over local models",
		Long:          "quorum runs a panel of locally hosted model agents through analysis, critique, and synthesis phases, then reduces their output into a confidence-weighted consensus.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(app),
		newAgentsCmd(app),
		newModelsCmd(app),
		newSessionsCmd(app),
	)

	return rootCmd
}
