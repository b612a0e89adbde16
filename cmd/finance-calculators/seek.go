package main

import (
	"github.com/iwvelando/finance-calculators/internal/goalseek"
	"github.com/iwvelando/finance-calculators/pkg/output"
	"github.com/spf13/cobra"
)

func newSeekCmd(a *app) *cobra.Command {
	var (
		inputs inputFlags
		target goalseek.Target
		mode   string
		lower  float64
		upper  float64
	)

	cmd := &cobra.Command{
		Use:   "seek <slug>",
		Short: "Find the input value at which an output meets a goal",
		Long: `Search one numeric input by bisection for the value that brings an output
to at most (or at least) a goal. Other inputs keep their defaults unless
overridden with --inputs or --set.

Examples:
  finance-calculators seek budget-matrimonio --input numero_invitati --output costo_totale_matrimonio --goal 40000 --max 300
  finance-calculators seek interessi-semplici --input capitale --output interessi_netti --goal 500 --mode at_least --max 100000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := a.registry()
			if err != nil {
				return err
			}
			calc, err := lookupCalculator(registry, args[0])
			if err != nil {
				return err
			}
			snapshot, err := inputs.snapshot(calc)
			if err != nil {
				return err
			}

			target.Mode = goalseek.Mode(mode)
			if cmd.Flags().Changed("min") {
				target.Min = &lower
			}
			if cmd.Flags().Changed("max") {
				target.Max = &upper
			}

			summary, err := goalseek.Seek(a.logger, calc, snapshot, target)
			if err != nil {
				return err
			}
			return output.WriteSummary(cmd.OutOrStdout(), a.conf.Output.Format, a.tag, calc.Definition(), summary)
		},
	}

	inputs.register(cmd)
	flags := cmd.Flags()
	flags.StringVar(&target.Input, "input", "", "numeric input to search")
	flags.StringVar(&target.Output, "output", "", "output that must meet the goal")
	flags.Float64Var(&target.Goal, "goal", 0, "goal value for the output")
	flags.StringVar(&mode, "mode", string(goalseek.ModeAtMost), "at_most or at_least")
	flags.Float64Var(&lower, "min", 0, "lower search bound (defaults to the input minimum)")
	flags.Float64Var(&upper, "max", 0, "upper search bound (defaults to the input maximum)")
	flags.Float64Var(&target.Tolerance, "tolerance", 0, "input tolerance at which the search stops")
	flags.IntVar(&target.MaxIterations, "max-iterations", 0, "bisection iteration limit")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	_ = cmd.MarkFlagRequired("goal")
	return cmd
}
