package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	app := &app{}

	rootCmd := &cobra.Command{
		Use:           "rw",
		Short:         "Rewards CLI (rw): run daily rewards tasks across many accounts",
		Long:          "rw keeps a list of rewards accounts, resolves their credentials, and runs the desktop and mobile task pipeline for each one, in a single process or across a pool of worker processes.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return app.close()
		},
	}

	rootCmd.PersistentFlags().StringVar(&app.configFile, "config", "", "Config file (default ~/.rewards/config.toml)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newAccountCmd(app),
		newRunCmd(app),
		newWorkerCmd(app),
	)

	return rootCmd
}
