package cli

import (
	"github.com/spf13/cobra"

	"github.com/njchilds90/progdiff/backend"
)

// EmitOptions holds flags for the emit command.
type EmitOptions struct {
	*RootOptions
	Config
}

// NewEmitCommand creates the emit command.
func NewEmitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EmitOptions{RootOptions: rootOpts, Config: DefaultConfig()}

	cmd := &cobra.Command{
		Use:          "emit [input]",
		Short:        "Render an expression without differentiating it",
		Example:      `  diffc emit model.txt --target latex --stdout`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmit(cmd, opts, args)
		},
	}

	bindInputFlags(cmd, &opts.Config)
	bindEmitFlags(cmd, &opts.Config)

	return cmd
}

func runEmit(cmd *cobra.Command, opts *EmitOptions, args []string) error {
	cfg, err := resolveConfig(cmd, opts.RootOptions, &opts.Config, args)
	if err != nil {
		return err
	}
	prog, err := LoadProgram(cfg.Input, cfg.Axes)
	if err != nil {
		return err
	}
	b, err := backend.New(cfg.TargetTag())
	if err != nil {
		return err
	}
	out, err := backend.Emit(b, prog.Expr)
	if err != nil {
		return err
	}
	return writeOutput(cmd, opts.RootOptions, cfg, "", out)
}
