package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/playmatatu/poolsim/internal/config"
	"github.com/playmatatu/poolsim/internal/game"
)

type rootOptions struct {
	logLevel string
	physics  string
	solver   string
	interval float64
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "poolsim",
		Short:        "Event-driven billiards shot simulator",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(opts.logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q", opts.logLevel)
			}
			logrus.SetLevel(level)
			logrus.SetOutput(cmd.ErrOrStderr())
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	cmd.PersistentFlags().StringVar(&opts.physics, "physics", "", "Path to a YAML physics profile")
	cmd.PersistentFlags().StringVar(&opts.solver, "solver", "exact", "Transition solver (exact, iterative)")
	cmd.PersistentFlags().Float64Var(&opts.interval, "sample-interval", game.DefaultSampleInterval, "Trajectory sampling interval in seconds")

	cmd.AddCommand(newSimulateCmd(opts), newRackCmd(), newPreviewCmd(opts))
	return cmd
}

// simulator builds a ShotSimulator from the global flags.
func (o *rootOptions) simulator() (*game.ShotSimulator, error) {
	cfg := &config.Config{
		PhysicsProfile:   o.physics,
		Solver:           o.solver,
		SampleInterval:   o.interval,
		MaxEvents:        game.DefaultMaxEvents,
		MaxSimulatedTime: game.DefaultMaxTime,
	}
	physics, err := cfg.Physics()
	if err != nil {
		return nil, err
	}
	simOpts, err := cfg.SimulatorOptions()
	if err != nil {
		return nil, err
	}
	return game.NewShotSimulator(physics, simOpts...)
}
