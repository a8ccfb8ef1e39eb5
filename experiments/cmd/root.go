package cmd

import "github.com/spf13/cobra"

func RootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "tabular-dp",
		Short:        "Solve small Markov decision processes and roll out their policies",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return flags.Record()
		},
	}
	flags.AddFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		SolveCommand(),
		SimulateCommand(),
	)

	return cmd
}
