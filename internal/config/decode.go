package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// document mirrors the YAML layout. Ordered sections are kept as nodes and
// walked pair by pair, since declaration order is meaningful.
type document struct {
	App  App `yaml:"app"`
	Data struct {
		Source     yaml.Node `yaml:"source"`
		Dir        string    `yaml:"dir"`
		Parameters yaml.Node `yaml:"parameters"`
	} `yaml:"data"`
	Plots yaml.Node `yaml:"plots"`
	UI    struct {
		Components struct {
			Plots struct {
				DefaultPlot string `yaml:"default_plot"`
			} `yaml:"plots"`
			Parameters struct {
				DefaultSelection map[string]float64 `yaml:"default_selection"`
			} `yaml:"parameters"`
		} `yaml:"components"`
	} `yaml:"ui"`
}

type plotDocument struct {
	PlotSpec   `yaml:",inline"`
	Parameters yaml.Node `yaml:"parameters"`
}

// Parse decodes a configuration document. Relative data paths, including
// data.dir itself, resolve against baseDir.
func Parse(b []byte, baseDir string) (*Config, error) {
	var doc document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg := &Config{
		App:              doc.App,
		DefaultPlot:      doc.UI.Components.Plots.DefaultPlot,
		DefaultSelection: doc.UI.Components.Parameters.DefaultSelection,
	}

	src, err := decodeSource(&doc.Data.Source)
	if err != nil {
		return nil, err
	}
	cfg.Data.Source = src

	cfg.Data.Dir = baseDir
	if doc.Data.Dir != "" {
		dir, err := homedir.Expand(doc.Data.Dir)
		if err != nil {
			return nil, fmt.Errorf("config: data.dir: %w", err)
		}
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(baseDir, dir)
		}
		cfg.Data.Dir = dir
	}

	if cfg.Data.Parameters, err = decodeParameters(&doc.Data.Parameters, "data.parameters"); err != nil {
		return nil, err
	}
	if cfg.Plots, err = decodePlots(&doc.Plots); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeSource accepts either a bare file name or {file_path: ...}.
func decodeSource(n *yaml.Node) (string, error) {
	switch n.Kind {
	case 0:
		return "", nil
	case yaml.ScalarNode:
		return n.Value, nil
	case yaml.MappingNode:
		var v struct {
			FilePath string `yaml:"file_path"`
		}
		if err := n.Decode(&v); err != nil {
			return "", fmt.Errorf("config: data.source: %w", err)
		}
		return v.FilePath, nil
	}
	return "", fmt.Errorf("config: data.source: line %d: expected a path or a mapping", n.Line)
}

// decodeParameters reads either a mapping name -> attributes, keeping its
// order, or a plain list of names.
func decodeParameters(n *yaml.Node, where string) ([]Parameter, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil, nil
		}
	case yaml.SequenceNode:
		var names []string
		if err := n.Decode(&names); err != nil {
			return nil, fmt.Errorf("config: %s: %w", where, err)
		}
		params := make([]Parameter, 0, len(names))
		seen := make(map[string]bool, len(names))
		for _, name := range names {
			if seen[name] {
				return nil, fmt.Errorf("config: %s: duplicate parameter %q", where, name)
			}
			seen[name] = true
			params = append(params, Parameter{Name: name})
		}
		return params, nil
	case yaml.MappingNode:
		params := make([]Parameter, 0, len(n.Content)/2)
		seen := make(map[string]bool, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			name := n.Content[i].Value
			if seen[name] {
				return nil, fmt.Errorf("config: %s: duplicate parameter %q", where, name)
			}
			seen[name] = true
			var p Parameter
			if err := n.Content[i+1].Decode(&p); err != nil {
				return nil, fmt.Errorf("config: %s.%s: %w", where, name, err)
			}
			p.Name = name
			params = append(params, p)
		}
		return params, nil
	}
	return nil, fmt.Errorf("config: %s: line %d: expected a mapping or a list", where, n.Line)
}

func decodePlots(n *yaml.Node) ([]PlotSpec, error) {
	if n.Kind == 0 {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("config: plots: line %d: expected a mapping", n.Line)
	}
	var plots []PlotSpec
	seen := make(map[string]bool)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		if seen[key] {
			return nil, fmt.Errorf("config: plots: duplicate plot %q", key)
		}
		seen[key] = true

		var pd plotDocument
		if err := n.Content[i+1].Decode(&pd); err != nil {
			return nil, fmt.Errorf("config: plots.%s: %w", key, err)
		}
		spec := pd.PlotSpec
		spec.Key = key
		if err := validatePlot(spec); err != nil {
			return nil, fmt.Errorf("config: plots.%s: %w", key, err)
		}
		params, err := decodeParameters(&pd.Parameters, "plots."+key+".parameters")
		if err != nil {
			return nil, err
		}
		spec.Parameters = params
		plots = append(plots, spec)
	}
	return plots, nil
}

func validatePlot(p PlotSpec) error {
	var errs []error
	if p.XColumn == "" {
		errs = append(errs, errors.New("x_column is required"))
	}
	if p.YColumn == "" {
		errs = append(errs, errors.New("y_column is required"))
	}
	return errors.Join(errs...)
}
