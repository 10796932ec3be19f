package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/playmatatu/poolsim/internal/game"
	"github.com/playmatatu/poolsim/internal/shots"
)

type simulateOptions struct {
	shotFile string
	variant  string
	table    string
	seed     int64
	ordered  bool
	strike   game.CueStrike
	output   string
}

func newSimulateCmd(root *rootOptions) *cobra.Command {
	opts := &simulateOptions{}
	cmd := &cobra.Command{
		Use:     "simulate",
		Short:   "Simulate one shot and print its events or trajectory",
		Example: `  poolsim simulate --variant eight_ball --seed 7 --v0 5 --phi 1.5708
  poolsim rack --variant nine_ball --seed 3 > shot.yaml && poolsim simulate --shot shot.yaml -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request(cmd)
			if err != nil {
				return err
			}
			sim, err := root.simulator()
			if err != nil {
				return err
			}
			return runSimulate(cmd.OutOrStdout(), sim, req, opts.output)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.shotFile, "shot", "", "YAML shot file (table, variant, seed, balls, strike)")
	f.StringVar(&opts.variant, "variant", "eight_ball", "Rack variant when no shot file is given")
	f.StringVar(&opts.table, "table", "", "Table (pool, carom); defaults to the variant's table")
	f.Int64Var(&opts.seed, "seed", 42, "Rack seed")
	f.BoolVar(&opts.ordered, "ordered", false, "Rack balls in order instead of shuffling")
	f.StringVar(&opts.strike.Ball, "ball", "", "Ball to strike (default: the variant's break ball)")
	f.Float64Var(&opts.strike.V0, "v0", 4, "Cue speed in m/s")
	f.Float64Var(&opts.strike.A, "a", 0, "Side english as a fraction of the radius")
	f.Float64Var(&opts.strike.B, "b", 0, "Vertical english as a fraction of the radius (positive is follow)")
	f.Float64Var(&opts.strike.Theta, "theta", 0, "Cue elevation in radians")
	f.Float64Var(&opts.strike.Phi, "phi", 1.5707963267948966, "Aim angle in radians from +x")
	f.StringVarP(&opts.output, "output", "o", "events", "Output format (events, summary, json)")
	return cmd
}

// request builds the shot from the file, letting explicitly set strike flags
// override the file's strike.
func (o *simulateOptions) request(cmd *cobra.Command) (shots.ShotRequest, error) {
	if o.shotFile == "" {
		return shots.ShotRequest{
			Table:   o.table,
			Variant: o.variant,
			Seed:    o.seed,
			Ordered: o.ordered,
			Strike:  o.strike,
		}, nil
	}

	data, err := os.ReadFile(o.shotFile)
	if err != nil {
		return shots.ShotRequest{}, fmt.Errorf("reading shot file: %w", err)
	}
	var req shots.ShotRequest
	if err := yaml.Unmarshal(data, &req); err != nil {
		return shots.ShotRequest{}, fmt.Errorf("parsing shot file: %w", err)
	}
	f := cmd.Flags()
	overrides := map[string]*float64{"v0": &req.Strike.V0, "a": &req.Strike.A, "b": &req.Strike.B, "theta": &req.Strike.Theta, "phi": &req.Strike.Phi}
	values := map[string]float64{"v0": o.strike.V0, "a": o.strike.A, "b": o.strike.B, "theta": o.strike.Theta, "phi": o.strike.Phi}
	for name, dst := range overrides {
		if f.Changed(name) {
			*dst = values[name]
		}
	}
	if f.Changed("ball") {
		req.Strike.Ball = o.strike.Ball
	}
	return req, nil
}

func runSimulate(w io.Writer, sim *game.ShotSimulator, req shots.ShotRequest, output string) error {
	setup, err := req.Resolve()
	if err != nil {
		return err
	}
	traj, err := sim.Simulate(setup.Balls, setup.Strike, setup.Table)
	if err != nil {
		return err
	}

	switch output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(traj)
	case "summary":
		return writeSummary(w, traj)
	case "events":
		if err := writeEvents(w, traj); err != nil {
			return err
		}
		return writeSummary(w, traj)
	}
	return fmt.Errorf("unknown output format %q", output)
}

func writeEvents(w io.Writer, traj *game.Trajectory) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tEVENT\tBALL\tTARGET\tSPEED\tREGIME")
	for _, ev := range traj.Events() {
		regime := ""
		if ev.Type == game.EventTransition {
			regime = fmt.Sprintf("%s -> %s", ev.From, ev.To)
		}
		fmt.Fprintf(tw, "%.4f\t%s\t%s\t%s\t%.3f\t%s\n", ev.Time, ev.Type, ev.Ball, ev.Target, ev.Speed, regime)
	}
	return tw.Flush()
}

func writeSummary(w io.Writer, traj *game.Trajectory) error {
	_, err := fmt.Fprintf(w, "events: %d  duration: %.3fs  frames: %d  pocketed: %v\n",
		len(traj.Events()), traj.Duration(), len(traj.Frames()), traj.Pocketed())
	return err
}
