package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/njchilds90/progdiff"
	"github.com/njchilds90/progdiff/backend"
	"github.com/njchilds90/progdiff/frontend"
)

// DiffOptions holds flags for the diff command.
type DiffOptions struct {
	*RootOptions
	Config
}

// NewDiffCommand creates the diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiffOptions{RootOptions: rootOpts, Config: DefaultConfig()}

	cmd := &cobra.Command{
		Use:   "diff [input]",
		Short: "Differentiate an expression and emit the derivative",
		Long: `Differentiate the input by each --wrt variable and render every
derivative with the chosen backend, in --wrt order.

Without --stdout or --output the result goes next to the input, named
<input>.d.<ext> where ext follows the target (.sexp, .go, .tex).`,
		Example: `  diffc diff model.txt --axis t --wrt t --stdout
  diffc diff tree.json --wrt x0 --wrt x1 --target go -o grad.go`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, opts, args)
		},
	}

	bindInputFlags(cmd, &opts.Config)
	bindEmitFlags(cmd, &opts.Config)
	bindDiffFlags(cmd, &opts.Config)

	return cmd
}

func runDiff(cmd *cobra.Command, opts *DiffOptions, args []string) error {
	cfg, err := resolveConfig(cmd, opts.RootOptions, &opts.Config, args)
	if err != nil {
		return err
	}
	if len(cfg.Wrt) == 0 {
		return fmt.Errorf("%w: diff needs at least one --wrt variable", ErrConfig)
	}

	prog, err := LoadProgram(cfg.Input, cfg.Axes)
	if err != nil {
		return err
	}
	log := opts.Logger()
	log.Debug("loaded input", "path", cfg.Input, "nodes", progdiff.NodeCount(prog.Expr), "symbols", prog.Names())

	derivs, err := differentiate(opts.RootOptions, prog, cfg)
	if err != nil {
		return err
	}

	b, err := backend.New(cfg.TargetTag())
	if err != nil {
		return err
	}
	out, err := backend.Emit(b, derivs...)
	if err != nil {
		return err
	}
	return writeOutput(cmd, opts.RootOptions, cfg, ".d", out)
}

// differentiate returns the cfg.Order-th derivative by each cfg.Wrt name.
func differentiate(opts *RootOptions, prog *frontend.Program, cfg Config) ([]progdiff.Expr, error) {
	derivs := make([]progdiff.Expr, 0, len(cfg.Wrt))
	for _, name := range cfg.Wrt {
		id, err := lookupVar(prog, name)
		if err != nil {
			return nil, err
		}
		d := prog.Expr
		for i := 0; i < cfg.Order; i++ {
			d = progdiff.DiffEps(d, id, cfg.Eps)
		}
		opts.Logger().Debug("differentiated", "wrt", name, "id", id, "order", cfg.Order,
			"nodes", progdiff.NodeCount(d), "depth", progdiff.Depth(d))
		derivs = append(derivs, d)
	}
	return derivs, nil
}
