package cmd

import (
	"github.com/spf13/cobra"
	"github.com/zeu5/tabular-dp/experiments/recycle"
	"github.com/zeu5/tabular-dp/experiments/sales"
)

func SimulateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Roll out policies in a simulator and compare their returns",
	}

	cmd.AddCommand(
		simulateRecycleCommand(),
		simulateSalesCommand(),
	)

	return cmd
}

func simulateRecycleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "recycle",
		Short: "Compare random, waiting and solved recycling robots",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, doneCh := interruptContext()
			defer close(doneCh)

			cmp, err := recycle.PrepareComparison(flags)
			if err != nil {
				return err
			}
			cmp.Run(ctx, cmd.OutOrStdout(), flags.NumRuns, flags.RunConfig(), flags.Parallelism)
			return nil
		},
	}
}

func simulateSalesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sales",
		Short: "Compare random, fixed price and markdown sellers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, doneCh := interruptContext()
			defer close(doneCh)

			cmp := sales.PrepareComparison(flags)
			cmp.Run(ctx, cmd.OutOrStdout(), flags.NumRuns, flags.RunConfig(), flags.Parallelism)
			return nil
		},
	}
}
