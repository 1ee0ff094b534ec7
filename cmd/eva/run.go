package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoSim-25-26J-441/evolution-core/internal/problems"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/config"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

type runOptions struct {
	configPath    string
	seed          int64
	deadline      time.Duration
	progressEvery int
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one evolution from a config file",
		Long: `Loads a run config, evolves the configured problem and prints the best
solution. The run fails if the deadline expires before a stopping condition holds.`,
		Example: "  eva run --config config/target.yaml --seed 7",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(opts.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed = opts.seed
			}
			if cmd.Flags().Changed("deadline") {
				if opts.deadline < 0 {
					return fmt.Errorf("deadline cannot be negative, got %s", opts.deadline)
				}
				cfg.Deadline = ""
				if opts.deadline > 0 {
					cfg.Deadline = opts.deadline.String()
				}
			}
			if err := root.applyLogLevel(cmd, cfg.LogLevel); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var report problems.Reporter
			if opts.progressEvery > 0 {
				out := cmd.OutOrStdout()
				report = func(p problems.Progress) {
					if p.Generation%opts.progressEvery == 0 {
						fmt.Fprintf(out, "generation %s: best %s (fitness %s, mean %.4g)\n",
							humanize.Comma(int64(p.Generation)), p.Best, p.Fitness, p.Stats.Mean)
					}
				}
			}

			res, err := problems.Solve(ctx, cfg, report)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&opts.configPath, "config", "c", "", "run config YAML path (required)")
	fs.Int64Var(&opts.seed, "seed", 0, "override the config seed (0 seeds from the clock)")
	fs.DurationVar(&opts.deadline, "deadline", 0, "override the config deadline (0 disables it)")
	fs.IntVar(&opts.progressEvery, "progress-every", 0, "print progress every N generations (0 disables)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func printResult(w io.Writer, res *problems.Result) {
	fmt.Fprintf(w, "problem:     %s\n", res.Problem)
	fmt.Fprintf(w, "algorithm:   %s\n", res.Algorithm)
	fmt.Fprintf(w, "best:        %s\n", res.Best)
	fmt.Fprintf(w, "fitness:     %s\n", res.Fitness)
	fmt.Fprintf(w, "generations: %s\n", humanize.Comma(int64(res.Generations)))
	fmt.Fprintf(w, "evaluations: %s", humanize.Comma(int64(res.Evaluations)))
	if res.CacheHits > 0 {
		fmt.Fprintf(w, " (%s cache hits)", humanize.Comma(int64(res.CacheHits)))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "elapsed:     %s\n", res.Elapsed.Round(time.Microsecond))
}
