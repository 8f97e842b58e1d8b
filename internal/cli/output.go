package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/njchilds90/progdiff/backend"
)

var extensions = map[backend.Target]string{
	backend.TargetSExpr: ".sexp",
	backend.TargetGo:    ".go",
	backend.TargetLaTeX: ".tex",
}

// outputPath is --output, or the input path with its extension replaced by
// suffix plus the target's extension.
func outputPath(cfg Config, suffix string) string {
	if cfg.Output != "" {
		return cfg.Output
	}
	base := strings.TrimSuffix(cfg.Input, filepath.Ext(cfg.Input))
	return base + suffix + extensions[cfg.TargetTag()]
}

// writeOutput sends out to stdout or to the output file. For a file it
// reports the path written on stdout.
func writeOutput(cmd *cobra.Command, opts *RootOptions, cfg Config, suffix, out string) error {
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	if cfg.Stdout {
		_, err := fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	}

	path := outputPath(cfg, suffix)
	if filepath.Clean(path) == filepath.Clean(cfg.Input) {
		return fmt.Errorf("cli: output %s would overwrite the input", path)
	}
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("cli: write output: %w", err)
	}
	opts.Logger().Info("wrote output", "path", path, "bytes", len(out))
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return err
}
