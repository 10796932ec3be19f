package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/playmatatu/poolsim/internal/game"
)

func newPreviewCmd(root *rootOptions) *cobra.Command {
	var strike game.CueStrike
	var clamp bool
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the velocity and spin a cue stroke gives the ball",
		RunE: func(cmd *cobra.Command, args []string) error {
			sim, err := root.simulator()
			if err != nil {
				return err
			}
			return runPreview(cmd.OutOrStdout(), sim, strike, clamp)
		},
	}

	f := cmd.Flags()
	f.Float64Var(&strike.V0, "v0", 2, "Cue speed in m/s")
	f.Float64Var(&strike.A, "a", 0, "Side english")
	f.Float64Var(&strike.B, "b", 0, "Vertical english")
	f.Float64Var(&strike.Theta, "theta", 0, "Cue elevation in radians")
	f.Float64Var(&strike.Phi, "phi", 0, "Aim angle in radians")
	f.BoolVar(&clamp, "clamp", false, "Clamp parameters to the strike limits instead of failing")
	return cmd
}

func runPreview(w io.Writer, sim *game.ShotSimulator, strike game.CueStrike, clamp bool) error {
	if clamp {
		strike = sim.Config().Strike.Clamp(strike)
	}
	v, omega, err := sim.StrikeVelocity(strike)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "strike:  v0=%.3f a=%.3f b=%.3f theta=%.3f phi=%.3f\n", strike.V0, strike.A, strike.B, strike.Theta, strike.Phi)
	fmt.Fprintf(w, "v:       (%.4f, %.4f, %.4f) m/s  |v|=%.4f\n", v[0], v[1], v[2], v.Len())
	fmt.Fprintf(w, "omega:   (%.4f, %.4f, %.4f) rad/s\n", omega[0], omega[1], omega[2])
	return nil
}
