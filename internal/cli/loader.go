package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/njchilds90/progdiff"
	"github.com/njchilds90/progdiff/frontend"
)

// ErrUnknownVariable indicates a variable name the program does not bind.
var ErrUnknownVariable = errors.New("cli: unknown variable")

// LoadProgram reads path. Files ending in .json, .yaml or .yml hold a wire
// format tree whose variables are named x<id>; axes only applies to
// surface syntax, since trees carry their own axis flags.
func LoadProgram(path string, axes []string) (*frontend.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cli: read input: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		e, err := progdiff.ParseJSON(data)
		if err != nil {
			return nil, fmt.Errorf("cli: %s: %w", path, err)
		}
		return treeProgram(path, e)
	case ".yaml", ".yml":
		var m map[string]interface{}
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("cli: %s: %w", path, err)
		}
		e, err := progdiff.FromJSON(m)
		if err != nil {
			return nil, fmt.Errorf("cli: %s: %w", path, err)
		}
		return treeProgram(path, e)
	}

	prog, err := frontend.Parse(strings.TrimSpace(string(data)), frontend.Options{SamplingAxes: axes})
	if err != nil {
		return nil, fmt.Errorf("cli: %s: %w", path, err)
	}
	return prog, nil
}

func treeProgram(path string, e progdiff.Expr) (*frontend.Program, error) {
	ids, err := progdiff.FreeVars(e)
	if err != nil {
		return nil, fmt.Errorf("cli: %s: %w", path, err)
	}
	symbols := make(map[string]progdiff.ID, len(ids))
	for _, id := range ids {
		symbols["x"+strconv.FormatUint(uint64(id), 10)] = id
	}
	return &frontend.Program{Expr: e, Symbols: symbols}, nil
}

// lookupVar resolves a name from the symbol table, falling back to an
// explicit id written as 7 or x7.
func lookupVar(prog *frontend.Program, name string) (progdiff.ID, error) {
	if id, ok := prog.Lookup(name); ok {
		return id, nil
	}
	if id, err := strconv.ParseUint(strings.TrimPrefix(name, "x"), 10, 32); err == nil {
		return progdiff.ID(id), nil
	}
	return 0, fmt.Errorf("%w: %q (have %v)", ErrUnknownVariable, name, prog.Names())
}

// nameOf is the inverse of lookupVar.
func nameOf(prog *frontend.Program, id progdiff.ID) string {
	for _, n := range prog.Names() {
		if prog.Symbols[n] == id {
			return n
		}
	}
	return "x" + strconv.FormatUint(uint64(id), 10)
}
