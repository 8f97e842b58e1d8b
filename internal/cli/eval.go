package cli

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/njchilds90/progdiff"
	"github.com/njchilds90/progdiff/frontend"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Config
	At map[string]string // name=value bindings
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts, Config: DefaultConfig()}

	cmd := &cobra.Command{
		Use:   "eval [input]",
		Short: "Evaluate an expression and, with --wrt, its derivatives",
		Long: `Evaluate the input with the --at bindings. Each --wrt variable adds a
line with the smoothed derivative evaluated at the same point.`,
		Example:      `  diffc eval model.txt --axis t --at t=0.5 --at y=2 --wrt t`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, opts, args)
		},
	}

	bindInputFlags(cmd, &opts.Config)
	bindDiffFlags(cmd, &opts.Config)
	cmd.Flags().StringToStringVar(&opts.At, "at", nil, "variable binding name=value (repeatable)")

	return cmd
}

func runEval(cmd *cobra.Command, opts *EvalOptions, args []string) error {
	cfg, err := resolveConfig(cmd, opts.RootOptions, &opts.Config, args)
	if err != nil {
		return err
	}
	prog, err := LoadProgram(cfg.Input, cfg.Axes)
	if err != nil {
		return err
	}

	env, err := bindings(prog, opts.At)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	v, err := evaluate(prog, prog.Expr, env)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "f = %s\n", strconv.FormatFloat(v, 'g', -1, 64))

	derivs, err := differentiate(opts.RootOptions, prog, cfg)
	if err != nil {
		return err
	}
	for i, d := range derivs {
		v, err := evaluate(prog, d, env)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s = %s\n", derivLabel(cfg.Wrt[i], cfg.Order), strconv.FormatFloat(v, 'g', -1, 64))
	}
	return nil
}

func bindings(prog *frontend.Program, at map[string]string) (progdiff.Env, error) {
	names := make([]string, 0, len(at))
	for n := range at {
		names = append(names, n)
	}
	slices.Sort(names)

	env := make(progdiff.Env, len(at))
	for _, name := range names {
		id, err := lookupVar(prog, name)
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(at[name], 64)
		if err != nil {
			return nil, fmt.Errorf("cli: --at %s: %w", name, err)
		}
		env[id] = v
	}
	return env, nil
}

// evaluate reports unbound variables by their source name.
func evaluate(prog *frontend.Program, e progdiff.Expr, env progdiff.Env) (float64, error) {
	v, err := e.Eval(env.Resolve)
	var unresolved *progdiff.UnresolvedVariableError
	if errors.As(err, &unresolved) {
		name := nameOf(prog, unresolved.ID)
		return 0, fmt.Errorf("cli: no value for %s (pass --at %s=<value>): %w", name, name, err)
	}
	return v, err
}

func derivLabel(name string, order int) string {
	if order == 1 {
		return "d/d" + name
	}
	return fmt.Sprintf("d^%d/d%s^%d", order, name, order)
}
