package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/GoSim-25-26J-441/evolution-core/internal/evad"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/config"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type clientOptions struct {
	addr    string
	timeout time.Duration
}

func addClientFlags(fs *pflag.FlagSet, opts *clientOptions) {
	fs.StringVar(&opts.addr, "addr", "localhost"+config.DefaultGRPCAddr, "evolution service gRPC address")
	fs.DurationVar(&opts.timeout, "timeout", 10*time.Second, "per-request timeout")
}

// withClient dials the service, runs fn and closes the connection.
func (o *clientOptions) withClient(ctx context.Context, fn func(ctx context.Context, c *evad.Client) error) error {
	conn, err := grpc.NewClient(o.addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", o.addr, err)
	}
	defer conn.Close()
	return fn(ctx, evad.NewClient(conn))
}

// call runs fn under the per-request timeout.
func (o *clientOptions) call(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return fn(ctx)
}

func newRunsCmd() *cobra.Command {
	opts := &clientOptions{}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Manage runs on a running evolution service",
	}
	addClientFlags(cmd.PersistentFlags(), opts)

	cmd.AddCommand(
		newRunsStartCmd(opts),
		newRunsGetCmd(opts),
		newRunsStopCmd(opts),
		newRunsListCmd(opts),
	)
	return cmd
}

func newRunsStartCmd(opts *clientOptions) *cobra.Command {
	var runID string
	var wait bool
	var poll time.Duration
	var callback evad.Callback

	cmd := &cobra.Command{
		Use:   "start <config.yaml>",
		Short: "Submit a run config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read config file %s: %w", args[0], err)
			}
			return opts.withClient(cmd.Context(), func(ctx context.Context, c *evad.Client) error {
				var run evad.Run
				if err := opts.call(ctx, func(ctx context.Context) error {
					run, err = c.StartRunWithCallback(ctx, runID, string(data), callback)
					return err
				}); err != nil {
					return err
				}
				if wait {
					run, err = waitForRun(ctx, opts, c, run.ID, poll)
					if err != nil {
						return err
					}
				}
				printRun(cmd.OutOrStdout(), run)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&runID, "id", "", "run ID (generated when empty)")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the run to finish")
	cmd.Flags().DurationVar(&poll, "poll", 200*time.Millisecond, "status poll interval with --wait")
	cmd.Flags().StringVar(&callback.URL, "callback-url", "", "URL notified when the run finishes ({run_id} is replaced)")
	cmd.Flags().StringVar(&callback.Secret, "callback-secret", "", "secret sent in the "+evad.CallbackSecretHeader+" header")
	return cmd
}

func waitForRun(ctx context.Context, opts *clientOptions, c *evad.Client, runID string, poll time.Duration) (evad.Run, error) {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		var run evad.Run
		err := opts.call(ctx, func(ctx context.Context) error {
			var err error
			run, err = c.GetRun(ctx, runID)
			return err
		})
		if err != nil {
			return evad.Run{}, err
		}
		if run.Status.Terminal() {
			return run, nil
		}
		select {
		case <-ctx.Done():
			return evad.Run{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func newRunsGetCmd(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <run-id>",
		Short: "Show a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withClient(cmd.Context(), func(ctx context.Context, c *evad.Client) error {
				return opts.call(ctx, func(ctx context.Context) error {
					run, err := c.GetRun(ctx, args[0])
					if err != nil {
						return err
					}
					printRun(cmd.OutOrStdout(), run)
					return nil
				})
			})
		},
	}
}

func newRunsStopCmd(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <run-id>",
		Short: "Cancel a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withClient(cmd.Context(), func(ctx context.Context, c *evad.Client) error {
				return opts.call(ctx, func(ctx context.Context) error {
					run, err := c.StopRun(ctx, args[0])
					if err != nil {
						return err
					}
					printRun(cmd.OutOrStdout(), run)
					return nil
				})
			})
		},
	}
}

func newRunsListCmd(opts *clientOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withClient(cmd.Context(), func(ctx context.Context, c *evad.Client) error {
				return opts.call(ctx, func(ctx context.Context) error {
					runs, err := c.ListRuns(ctx, limit)
					if err != nil {
						return err
					}
					return printRuns(cmd.OutOrStdout(), runs)
				})
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of runs")
	return cmd
}

func printRun(w io.Writer, run evad.Run) {
	fmt.Fprintf(w, "id:          %s\n", run.ID)
	fmt.Fprintf(w, "status:      %s\n", run.Status)
	fmt.Fprintf(w, "problem:     %s\n", run.Problem)
	fmt.Fprintf(w, "created:     %s\n", humanize.Time(run.CreatedAt))
	fmt.Fprintf(w, "generation:  %s\n", humanize.Comma(int64(run.Generation)))
	if run.Best != "" {
		fmt.Fprintf(w, "best:        %s\n", run.Best)
	}
	if run.Error != "" {
		fmt.Fprintf(w, "error:       %s\n", run.Error)
	}
	if res := run.Result; res != nil {
		fmt.Fprintf(w, "fitness:     %s\n", res.Fitness)
		fmt.Fprintf(w, "evaluations: %s\n", humanize.Comma(int64(res.Evaluations)))
		fmt.Fprintf(w, "elapsed:     %s\n", res.Elapsed)
	}
}

func printRuns(w io.Writer, runs []evad.Run) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPROBLEM\tGENERATION\tBEST\tCREATED")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			run.ID, run.Status, run.Problem,
			humanize.Comma(int64(run.Generation)), run.Best, humanize.Time(run.CreatedAt))
	}
	return tw.Flush()
}
