package main

import (
	"github.com/GoSim-25-26J-441/evolution-core/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type rootOptions struct {
	logLevel  string
	logFormat string
}

func addLogFlags(fs *pflag.FlagSet, opts *rootOptions) {
	fs.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	fs.StringVar(&opts.logFormat, "log-format", "text", "log format (text, json)")
}

// applyLogLevel reconfigures the default logger unless --log-level was given
// explicitly.
func (o *rootOptions) applyLogLevel(cmd *cobra.Command, level string) error {
	if cmd.Flags().Changed("log-level") || level == "" {
		return nil
	}
	l, err := logger.NewFormat(o.logFormat, level, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	logger.SetDefault(l)
	return nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "eva",
		Short: "Generational evolutionary algorithm engine",
		Long: `eva evolves populations of candidate solutions with tournament selection,
crossover and mutation until a stopping condition holds or a deadline expires.
It runs single evolutions from YAML configs or serves them over gRPC and HTTP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logger.NewFormat(opts.logFormat, opts.logLevel, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			logger.SetDefault(l)
			return nil
		},
	}
	addLogFlags(cmd.PersistentFlags(), opts)

	cmd.AddCommand(
		newRunCmd(opts),
		newServeCmd(opts),
		newRunsCmd(),
		newProblemsCmd(),
		newVersionCmd(),
	)
	return cmd
}
