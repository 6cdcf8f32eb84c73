package agent

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// file is the on-disk layout of an agents YAML file.
type file struct {
	Agents []Spec `yaml:"agents"`
}

// Load returns the builtin personas with any overrides from the YAML file at
// path applied. An empty path or a missing file yields the builtins.
func Load(path string) (Definitions, error) {
	defs := Builtin()
	if path == "" {
		return defs, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from operator config
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defs, nil
		}
		return Definitions{}, fmt.Errorf("read agents file %s: %w", path, err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Definitions{}, fmt.Errorf("parse agents file %s: %w", path, err)
	}

	for i, s := range f.Agents {
		if err := defs.Override(s); err != nil {
			return Definitions{}, fmt.Errorf("agents file %s entry %d: %w", path, i, err)
		}
	}

	if err := defs.Validate(); err != nil {
		return Definitions{}, fmt.Errorf("validate agents file %s: %w", path, err)
	}
	return defs, nil
}
