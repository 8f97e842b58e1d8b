package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/njchilds90/progdiff"
	"github.com/njchilds90/progdiff/backend"
)

// ErrConfig indicates a configuration that fails validation.
var ErrConfig = errors.New("cli: invalid configuration")

// Config is the merged result of the config file and command-line flags.
type Config struct {
	Input  string   `yaml:"input" validate:"required"`
	Target string   `yaml:"target" validate:"required,target"`
	Stdout bool     `yaml:"stdout"`
	Output string   `yaml:"output" validate:"excluded_with=Stdout"`
	Wrt    []string `yaml:"wrt" validate:"dive,required"`
	Axes   []string `yaml:"axes" validate:"dive,required"`
	Eps    float64  `yaml:"eps" validate:"gt=0"`
	Order  int      `yaml:"order" validate:"gte=1,lte=8"`
}

var configValidate *validator.Validate

func init() {
	configValidate = validator.New()
	_ = configValidate.RegisterValidation("target", func(fl validator.FieldLevel) bool {
		_, err := backend.ParseTarget(fl.Field().String())
		return err == nil
	})
}

// DefaultConfig returns the values used when neither file nor flag sets one.
func DefaultConfig() Config {
	return Config{Target: string(backend.TargetSExpr), Eps: progdiff.Eps, Order: 1}
}

// LoadConfig reads a YAML config file over DefaultConfig. Unknown keys are
// rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("cli: read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("cli: parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the struct constraints of c.
func (c Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return nil
}

// TargetTag returns the parsed output target. Call after Validate.
func (c Config) TargetTag() backend.Target {
	t, _ := backend.ParseTarget(c.Target)
	return t
}

func bindInputFlags(cmd *cobra.Command, c *Config) {
	cmd.Flags().StringVarP(&c.Input, "input", "i", "", "input file (or pass it as the argument)")
	cmd.Flags().StringSliceVar(&c.Axes, "axis", nil, "sampling-axis variable name (repeatable)")
}

func bindEmitFlags(cmd *cobra.Command, c *Config) {
	cmd.Flags().StringVarP(&c.Target, "target", "t", c.Target, "output target (sexpr|go|latex)")
	cmd.Flags().BoolVar(&c.Stdout, "stdout", false, "write to stdout instead of a file")
	cmd.Flags().StringVarP(&c.Output, "output", "o", "", "output file path (default derived from the input)")
}

func bindDiffFlags(cmd *cobra.Command, c *Config) {
	cmd.Flags().StringSliceVarP(&c.Wrt, "wrt", "w", nil, "variable to differentiate by (repeatable)")
	cmd.Flags().Float64Var(&c.Eps, "eps", c.Eps, "sampling offset around each axis")
	cmd.Flags().IntVar(&c.Order, "order", c.Order, "derivative order")
}

// resolveConfig loads the --config file, if any, and lays every flag the
// user set explicitly over it. A positional argument names the input.
func resolveConfig(cmd *cobra.Command, root *RootOptions, flags *Config, args []string) (Config, error) {
	cfg := DefaultConfig()
	if root.ConfigPath != "" {
		var err error
		if cfg, err = LoadConfig(root.ConfigPath); err != nil {
			return cfg, err
		}
	}

	fs := cmd.Flags()
	overlay := map[string]func(){
		"input":  func() { cfg.Input = flags.Input },
		"axis":   func() { cfg.Axes = flags.Axes },
		"target": func() { cfg.Target = flags.Target },
		"stdout": func() { cfg.Stdout = flags.Stdout },
		"output": func() { cfg.Output = flags.Output },
		"wrt":    func() { cfg.Wrt = flags.Wrt },
		"eps":    func() { cfg.Eps = flags.Eps },
		"order":  func() { cfg.Order = flags.Order },
	}
	for name, apply := range overlay {
		if fs.Changed(name) {
			apply()
		}
	}
	if len(args) == 1 {
		cfg.Input = args[0]
	}
	// --stdout on the command line wins over an output path from the file.
	if fs.Changed("stdout") && cfg.Stdout && !fs.Changed("output") {
		cfg.Output = ""
	}

	root.Logger().Debug("resolved config", "input", cfg.Input, "target", cfg.Target,
		"wrt", cfg.Wrt, "axes", cfg.Axes, "eps", cfg.Eps, "order", cfg.Order)
	return cfg, cfg.Validate()
}
