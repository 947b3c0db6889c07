package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xtding233/offwork-lock/internal/config"
	"github.com/xtding233/offwork-lock/internal/gacha"
	"github.com/xtding233/offwork-lock/internal/roll"
)

type simulateConfig struct {
	file       string
	trials     int
	maxDraws   int
	draws      int
	seed       uint64
	jsonOutput bool
}

// simulateReport is the --json output of simulate.
type simulateReport struct {
	RollCost       int          `json:"roll_cost"`
	UntilUnlock    *gacha.Stats `json:"until_unlock,omitempty"`
	PointsToUnlock float64      `json:"mean_points_to_unlock,omitempty"`
	Rewards        []rewardFreq `json:"rewards"`
}

type rewardFreq struct {
	ID          string  `json:"id"`
	Expected    float64 `json:"expected"`
	Observed    float64 `json:"observed"`
	Count       int     `json:"count"`
	UnlocksExit bool    `json:"unlocks_exit"`
}

func newSimulateCmd() *cobra.Command {
	s, envErr := loadSettings()
	cfg := &simulateConfig{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Monte Carlo the reward table",
		Long: `Roll the configured reward table many times and report how many rolls
(and points) it takes to draw an exit-unlocking reward, plus the observed
frequency of every reward next to its configured chance.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.file == "" && envErr != nil {
				return envErr
			}
			path := cfg.file
			if path == "" {
				path = s.Paths().ConfigFile()
			}
			snap, err := config.Load(path)
			if err != nil {
				return err
			}
			rep, err := simulate(snap, cfg)
			if err != nil {
				return err
			}
			if cfg.jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			return writeSimulateTable(cmd.OutOrStdout(), rep)
		},
	}

	settingsFlags(cmd, &s)
	cmd.Flags().StringVar(&cfg.file, "file", "", "config file to simulate (default: <config-dir>/"+config.FileName+")")
	cmd.Flags().IntVar(&cfg.trials, "trials", 10000, "independent roll-until-unlock trials")
	cmd.Flags().IntVar(&cfg.maxDraws, "max-draws", 10000, "per-trial roll cap")
	cmd.Flags().IntVar(&cfg.draws, "draws", 100000, "rolls used for the frequency table")
	cmd.Flags().Uint64Var(&cfg.seed, "seed", 0, "deterministic seed (0 = crypto random)")
	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output as JSON")

	return cmd
}

func simulate(snap *config.Snapshot, cfg *simulateConfig) (simulateReport, error) {
	if len(snap.Rewards) == 0 {
		return simulateReport{}, errors.New(roll.FailureEmptyTable.Message())
	}
	rng := gacha.DefaultRNG()
	if cfg.seed != 0 {
		rng = gacha.NewSeededRNG(cfg.seed)
	}

	rep := simulateReport{RollCost: snap.RollCost}
	st, err := gacha.DrawsUntil(snap.Rewards, roll.RewardWeight, roll.UnlocksExit,
		gacha.SimParams{Trials: cfg.trials, MaxDraws: cfg.maxDraws}, rng)
	switch {
	case errors.Is(err, gacha.ErrUnreachableGoal):
		// no reward unlocks exit; frequencies are still useful
	case err != nil:
		return simulateReport{}, err
	default:
		rep.UntilUnlock = &st
		rep.PointsToUnlock = st.Mean * float64(snap.RollCost)
	}

	counts := gacha.Frequencies(snap.Rewards, roll.RewardWeight, cfg.draws, rng)
	for i, d := range roll.Displays(snap.Rewards) {
		f := rewardFreq{
			ID:          d.Reward.ID,
			Expected:    d.Probability,
			Count:       counts[i],
			UnlocksExit: roll.UnlocksExit(d.Reward),
		}
		if cfg.draws > 0 {
			f.Observed = float64(counts[i]) / float64(cfg.draws)
		}
		rep.Rewards = append(rep.Rewards, f)
	}
	return rep, nil
}

func writeSimulateTable(w io.Writer, rep simulateReport) error {
	if st := rep.UntilUnlock; st != nil {
		fmt.Fprintf(w, "rolls until unlock over %d trials (%d capped)\n", st.Trials, st.Capped)
		fmt.Fprintf(w, "  mean %.2f  stddev %.2f  p50 %.0f  p90 %.0f  p99 %.0f\n", st.Mean, st.StdDev, st.P50, st.P90, st.P99)
		fmt.Fprintf(w, "  mean points spent: %.0f (cost %d)\n\n", rep.PointsToUnlock, rep.RollCost)
	} else {
		fmt.Fprintln(w, "no reward unlocks exit")
		fmt.Fprintln(w)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "REWARD\tEXPECTED\tOBSERVED\tCOUNT\tUNLOCKS")
	for _, r := range rep.Rewards {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%t\n", r.ID,
			roll.FormatProbability(r.Expected), roll.FormatProbability(r.Observed), r.Count, r.UnlocksExit)
	}
	return tw.Flush()
}
