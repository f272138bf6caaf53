// Package config loads run documents and resolves them into validated,
// fully defaulted settings.
//
// A document is YAML or TOML (chosen by file extension) with the groups
// grid, physics, forcing, solver, output, boundary and initial. Unknown
// keys are ignored. Missing required keys fail with a
// dynamo.ConfigurationError naming the dotted key.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/coastal/internal/dynamo"
)

const (
	DefaultCFL    = 1.0
	DefaultStride = 1
	DefaultShape  = "flat"
	DefaultEdge   = "west"
)

// Document mirrors the file layout. Pointer fields distinguish a missing
// key from a zero value.
type Document struct {
	Name     string                 `yaml:"name,omitempty" toml:"name,omitempty"`
	Seed     *int64                 `yaml:"seed,omitempty" toml:"seed,omitempty"`
	Grid     GridDoc                `yaml:"grid" toml:"grid"`
	Physics  PhysicsDoc             `yaml:"physics" toml:"physics"`
	Forcing  *ForcingDoc            `yaml:"forcing,omitempty" toml:"forcing,omitempty"`
	Solver   SolverDoc              `yaml:"solver" toml:"solver"`
	Output   OutputDoc              `yaml:"output,omitempty" toml:"output,omitempty"`
	Boundary map[string]BoundaryDoc `yaml:"boundary,omitempty" toml:"boundary,omitempty"`
	Initial  InitialDoc             `yaml:"initial,omitempty" toml:"initial,omitempty"`
}

type GridDoc struct {
	Nx *int     `yaml:"nx" toml:"nx"`
	Ny *int     `yaml:"ny,omitempty" toml:"ny,omitempty"`
	Dx *float64 `yaml:"dx" toml:"dx"`
	Dy *float64 `yaml:"dy,omitempty" toml:"dy,omitempty"`
}

type PhysicsDoc struct {
	Kind        string    `yaml:"kind,omitempty" toml:"kind,omitempty"`
	Gravity     *float64  `yaml:"gravity,omitempty" toml:"gravity,omitempty"`
	Depth       *float64  `yaml:"depth,omitempty" toml:"depth,omitempty"`
	Celerity    *float64  `yaml:"celerity,omitempty" toml:"celerity,omitempty"`
	Viscosity   *float64  `yaml:"viscosity,omitempty" toml:"viscosity,omitempty"`
	Diffusivity *float64  `yaml:"diffusivity,omitempty" toml:"diffusivity,omitempty"`
	Drag        float64   `yaml:"drag,omitempty" toml:"drag,omitempty"`
	Nonlinear   bool      `yaml:"nonlinear,omitempty" toml:"nonlinear,omitempty"`
	Advective   bool      `yaml:"advective,omitempty" toml:"advective,omitempty"`
	Velocity    []float64 `yaml:"velocity,omitempty" toml:"velocity,omitempty"`
}

type ForcingDoc struct {
	Type       *string  `yaml:"type" toml:"type"`
	Hs         *float64 `yaml:"Hs" toml:"Hs"`
	Tp         *float64 `yaml:"Tp" toml:"Tp"`
	Gamma      *float64 `yaml:"gamma,omitempty" toml:"gamma,omitempty"`
	Components int      `yaml:"components,omitempty" toml:"components,omitempty"`
	Edge       string   `yaml:"edge,omitempty" toml:"edge,omitempty"`
	Fields     []string `yaml:"fields,omitempty" toml:"fields,omitempty"`
}

type SolverDoc struct {
	Dt         *float64 `yaml:"dt" toml:"dt"`
	Duration   *float64 `yaml:"duration" toml:"duration"`
	CFLTarget  *float64 `yaml:"cfl_target,omitempty" toml:"cfl_target,omitempty"`
	AutoAdjust bool     `yaml:"auto_adjust,omitempty" toml:"auto_adjust,omitempty"`
	Scheme     string   `yaml:"scheme,omitempty" toml:"scheme,omitempty"`
}

type OutputDoc struct {
	Stride int    `yaml:"stride,omitempty" toml:"stride,omitempty"`
	Gauge  []int  `yaml:"gauge,omitempty" toml:"gauge,omitempty"`
	Field  string `yaml:"field,omitempty" toml:"field,omitempty"`
}

type BoundaryDoc struct {
	Type     string   `yaml:"type" toml:"type"`
	Value    float64  `yaml:"value,omitempty" toml:"value,omitempty"`
	Gradient float64  `yaml:"gradient,omitempty" toml:"gradient,omitempty"`
	Width    int      `yaml:"width,omitempty" toml:"width,omitempty"`
	Strength float64  `yaml:"strength,omitempty" toml:"strength,omitempty"`
	Fields   []string `yaml:"fields,omitempty" toml:"fields,omitempty"`
}

type InitialDoc struct {
	Shape     string    `yaml:"shape,omitempty" toml:"shape,omitempty"`
	Field     string    `yaml:"field,omitempty" toml:"field,omitempty"`
	Amplitude float64   `yaml:"amplitude,omitempty" toml:"amplitude,omitempty"`
	Center    []float64 `yaml:"center,omitempty" toml:"center,omitempty"`
	Sigma     float64   `yaml:"sigma,omitempty" toml:"sigma,omitempty"`
}

// Load reads a document, picking the decoder from the file extension.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, formatOf(path))
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return "toml"
	case ".json":
		// JSON is a YAML subset
		return "yaml"
	}
	return "yaml"
}

// Parse decodes data in the named format ("yaml" or "toml").
func Parse(data []byte, format string) (*Document, error) {
	doc := &Document{}
	switch format {
	case "toml":
		if _, err := toml.Decode(string(data), doc); err != nil {
			return nil, fmt.Errorf("%w: decode toml: %v", dynamo.ErrConfiguration, err)
		}
	case "yaml", "":
		if err := yaml.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("%w: decode yaml: %v", dynamo.ErrConfiguration, err)
		}
	default:
		return nil, dynamo.Configf("format", "unsupported format %q", format)
	}
	return doc, nil
}

// LoadConfig is Load followed by Resolve.
func LoadConfig(path string) (*Config, error) {
	doc, err := Load(path)
	if err != nil {
		return nil, err
	}
	return doc.Resolve()
}

// Save writes the document as YAML, or TOML for a .toml path.
func Save(path string, doc *Document) error {
	var data []byte
	if formatOf(path) == "toml" {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
			return err
		}
		data = buf.Bytes()
	} else {
		var err error
		if data, err = yaml.Marshal(doc); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

func ptr[T any](v T) *T { return &v }
