package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zeu5/tabular-dp/envs/gridworld"
	"github.com/zeu5/tabular-dp/envs/recycle"
	"github.com/zeu5/tabular-dp/experiments/solve"
	"github.com/zeu5/tabular-dp/mdp"
)

func SolveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Run policy iteration on a model",
	}

	cmd.AddCommand(
		solveGridCommand(),
		solveRecycleCommand(),
		solveTableCommand(),
	)

	return cmd
}

func solveGridCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "grid",
		Short: "Solve the gridworld with absorbing corners",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := gridworld.DefaultConfig()
			config.Size = flags.GridSize
			if config.Start >= config.Size*config.Size-1 {
				config.Start = 1
			}
			grid, err := gridworld.New(config)
			if err != nil {
				return err
			}
			model, err := grid.Model()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, err = solve.Run[int, int]("grid", flags, model, mdp.NewGridRenderer(out, len(model.States())), out)
			return err
		},
	}
}

func solveRecycleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "recycle",
		Short: "Solve the recycling robot",
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := recycle.New(recycle.DefaultConfig(), flags.Seed).Model()
			if err != nil {
				return err
			}
			if err := model.Validate(1e-9); err != nil {
				return fmt.Errorf("recycle model: %w", err)
			}
			out := cmd.OutOrStdout()
			_, err = solve.Run[string, string]("recycle", flags, model, mdp.NewListRenderer[string, string](out, model.States()), out)
			return err
		},
	}
}

func solveTableCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "table FILE",
		Short: "Solve a model read from a CSV table of state,action,next,reward,probability rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()
			model, err := mdp.ReadTable(file)
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			if err := model.Validate(1e-9); err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			out := cmd.OutOrStdout()
			_, err = solve.Run[int, int]("table", flags, model, mdp.NewListRenderer[int, int](out, model.States()), out)
			return err
		},
	}
}
