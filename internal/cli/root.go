package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	ConfigPath string // YAML config file path

	logger *slog.Logger
}

// Logger returns the logger installed by the root command, or a discarding
// one when a subcommand runs on its own.
func (o *RootOptions) Logger() *slog.Logger {
	if o.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.logger
}

// NewRootCommand creates the root command for the diffc CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "diffc",
		Short: "diffc - differentiate programs with discontinuities",
		Long: `diffc differentiates arithmetic programs containing step functions,
absolute values and reciprocals. Discontinuities are smoothed by sampling
each operand a small epsilon either side of every sampling axis.

Inputs ending in .json, .yaml or .yml hold an expression tree; any other
file is surface syntax such as "x0 * (1 + heaviside(t - 1))".`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if opts.Verbose {
				level = slog.LevelDebug
			}
			opts.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output on stderr")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML config file; flags override its values")

	// Add subcommands
	cmd.AddCommand(NewDiffCommand(opts))
	cmd.AddCommand(NewEvalCommand(opts))
	cmd.AddCommand(NewEmitCommand(opts))

	return cmd
}
