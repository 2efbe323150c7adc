package importer

import (
	"fmt"
	"os"
	"strings"

	"github.com/funvibe/phasec/internal/typesystem"
	"gopkg.in/yaml.v3"
)

// DeclKind is the kind of a declared library type.
type DeclKind string

const (
	KindClass     DeclKind = "class"
	KindInterface DeclKind = "interface"
	KindStruct    DeclKind = "struct"
	KindEnum      DeclKind = "enum"
)

// Assembly is one loaded library: every type it declares, keyed by its
// assembly-relative FQN ("cloud.Bucket", or "Point" for root types).
type Assembly struct {
	Name    string        `yaml:"assembly"`
	Docs    string        `yaml:"docs,omitempty"`
	Types   []*TypeDecl   `yaml:"types"`
	Globals []*MethodDecl `yaml:"globals,omitempty"`

	// Source is where the assembly was loaded from.
	Source string `yaml:"-"`

	byFQN map[string]*TypeDecl
}

// TypeDecl is a library type in the neutral declaration model shared by
// all loaders.
type TypeDecl struct {
	FQN        string           `yaml:"fqn"`
	Kind       DeclKind         `yaml:"kind"`
	Phase      string           `yaml:"phase,omitempty"`
	Docs       *typesystem.Docs `yaml:"docs,omitempty"`
	Base       string           `yaml:"base,omitempty"`
	Interfaces []string         `yaml:"interfaces,omitempty"`
	Abstract   bool             `yaml:"abstract,omitempty"`
	TypeParams []string         `yaml:"typeParams,omitempty"`
	// StdConstructArgs marks preflight classes constructed with scope and id.
	StdConstructArgs    bool            `yaml:"stdConstructArgs,omitempty"`
	Initializer         *MethodDecl     `yaml:"initializer,omitempty"`
	InflightInitializer *MethodDecl     `yaml:"inflightInitializer,omitempty"`
	Properties          []*PropertyDecl `yaml:"properties,omitempty"`
	Methods             []*MethodDecl   `yaml:"methods,omitempty"`
	Values              []string        `yaml:"values,omitempty"`
}

// Name is the last segment of the FQN.
func (d *TypeDecl) Name() string {
	if i := strings.LastIndex(d.FQN, "."); i >= 0 {
		return d.FQN[i+1:]
	}
	return d.FQN
}

// Submodule is the FQN prefix before the type name, "" for root types.
func (d *TypeDecl) Submodule() string {
	if i := strings.LastIndex(d.FQN, "."); i >= 0 {
		return d.FQN[:i]
	}
	return ""
}

type PropertyDecl struct {
	Name   string           `yaml:"name"`
	Type   string           `yaml:"type"`
	Static bool             `yaml:"static,omitempty"`
	Var    bool             `yaml:"var,omitempty"`
	Phase  string           `yaml:"phase,omitempty"`
	Docs   *typesystem.Docs `yaml:"docs,omitempty"`
}

type ParamDecl struct {
	Name string           `yaml:"name"`
	Type string           `yaml:"type"`
	Docs *typesystem.Docs `yaml:"docs,omitempty"`
}

type MethodDecl struct {
	Name    string           `yaml:"name"`
	Params  []ParamDecl      `yaml:"params,omitempty"`
	Returns string           `yaml:"returns,omitempty"`
	Static  bool             `yaml:"static,omitempty"`
	Phase   string           `yaml:"phase,omitempty"`
	Macro   string           `yaml:"macro,omitempty"`
	Docs    *typesystem.Docs `yaml:"docs,omitempty"`
}

// Lookup finds a type by its assembly-relative FQN.
func (a *Assembly) Lookup(fqn string) (*TypeDecl, bool) {
	if a.byFQN == nil {
		a.index()
	}
	d, ok := a.byFQN[fqn]
	return d, ok
}

// Submodules lists the distinct submodule names, in declaration order.
func (a *Assembly) Submodules() []string {
	var out []string
	seen := map[string]bool{}
	for _, t := range a.Types {
		sub := t.Submodule()
		if sub == "" || seen[sub] {
			continue
		}
		seen[sub] = true
		out = append(out, sub)
	}
	return out
}

func (a *Assembly) index() {
	a.byFQN = make(map[string]*TypeDecl, len(a.Types))
	for _, t := range a.Types {
		a.byFQN[t.FQN] = t
	}
}

func (a *Assembly) validate() error {
	if a.Name == "" {
		return fmt.Errorf("manifest has no assembly name")
	}
	seen := make(map[string]bool, len(a.Types))
	for i, t := range a.Types {
		if t.FQN == "" {
			return fmt.Errorf("types[%d]: missing fqn", i)
		}
		if seen[t.FQN] {
			return fmt.Errorf("types[%d]: duplicate type %s", i, t.FQN)
		}
		seen[t.FQN] = true
		switch t.Kind {
		case KindClass, KindInterface, KindStruct, KindEnum:
		default:
			return fmt.Errorf("%s: unknown kind %q", t.FQN, t.Kind)
		}
		if _, err := parsePhase(t.Phase, typesystem.Preflight); err != nil {
			return fmt.Errorf("%s: %w", t.FQN, err)
		}
	}
	a.index()
	return nil
}

// ParseManifest decodes a YAML library manifest.
func ParseManifest(data []byte, source string) (*Assembly, error) {
	var a Assembly
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", source, err)
	}
	if err := a.validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", source, err)
	}
	a.Source = source
	return &a, nil
}

// LoadManifest reads and decodes a manifest file.
func LoadManifest(path string) (*Assembly, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return ParseManifest(data, path)
}

func parsePhase(s string, def typesystem.Phase) (typesystem.Phase, error) {
	switch s {
	case "":
		return def, nil
	case "preflight":
		return typesystem.Preflight, nil
	case "inflight":
		return typesystem.Inflight, nil
	case "independent", "phase-independent":
		return typesystem.Independent, nil
	}
	return def, fmt.Errorf("unknown phase %q", s)
}
