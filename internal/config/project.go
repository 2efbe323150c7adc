package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ColorMode selects when rendered diagnostics use ANSI colours.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// EmbeddedSDK is the sdkRoot value that selects the SDK manifest compiled into the binary.
const EmbeddedSDK = "embedded"

// Project represents a phasec.yaml configuration.
type Project struct {
	// SDKRoot is the directory holding the SDK manifest (sdk.yaml).
	// Defaults to the embedded manifest.
	SDKRoot string `yaml:"sdkRoot,omitempty"`

	// LibraryPaths are extra directories searched for library manifests
	// and .proto files named by bring statements.
	LibraryPaths []string `yaml:"libraryPaths,omitempty"`

	// ProtoImportPaths are passed to the protobuf parser.
	ProtoImportPaths []string `yaml:"protoImportPaths,omitempty"`

	// SymbolDB is the path of the SQLite symbol database written after checking.
	// Empty disables indexing.
	SymbolDB string `yaml:"symbolDB,omitempty"`

	// Color is one of auto, always, never.
	Color ColorMode `yaml:"color,omitempty"`

	// Debug enables environment dumps.
	Debug bool `yaml:"debug,omitempty"`

	// Dir is the directory containing the configuration file.
	Dir string `yaml:"-"`
}

// DefaultProject returns the configuration used when no phasec.yaml exists.
func DefaultProject(dir string) *Project {
	p := &Project{Dir: dir}
	p.setDefaults()
	return p
}

// LoadProject reads and validates a phasec.yaml file.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseProject(data, path)
}

// ParseProject parses configuration bytes. path is used for error messages
// and to anchor relative directories.
func ParseProject(data []byte, path string) (*Project, error) {
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	p.Dir = filepath.Dir(path)
	if err := p.validate(path); err != nil {
		return nil, err
	}
	p.setDefaults()
	return &p, nil
}

// FindProject searches for phasec.yaml starting from dir and walking up to
// the filesystem root. It returns "" when none is found.
func FindProject(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ProjectFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// ProjectFor loads the phasec.yaml governing dir, or the defaults when there is none.
func ProjectFor(dir string) (*Project, error) {
	path, err := FindProject(dir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return DefaultProject(dir), nil
	}
	return LoadProject(path)
}

func (p *Project) validate(path string) error {
	switch p.Color {
	case "", ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("%s: color must be one of auto, always, never (got %q)", path, p.Color)
	}
	for i, lp := range p.LibraryPaths {
		if lp == "" {
			return fmt.Errorf("%s: libraryPaths[%d]: empty path", path, i)
		}
	}
	return nil
}

func (p *Project) setDefaults() {
	if p.Color == "" {
		p.Color = ColorAuto
	}
	if p.SDKRoot == "" {
		p.SDKRoot = EmbeddedSDK
	}
	if root := os.Getenv(SDKRootEnvVar); root != "" {
		p.SDKRoot = root
	}
	if len(p.ProtoImportPaths) == 0 {
		p.ProtoImportPaths = []string{"."}
	}
}

// Resolve makes a project-relative path absolute.
func (p *Project) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || p.Dir == "" {
		return path
	}
	return filepath.Join(p.Dir, path)
}

// SearchPaths returns the directories searched for brought libraries:
// the source directory first, then the configured library paths.
func (p *Project) SearchPaths(sourceDir string) []string {
	paths := []string{sourceDir}
	for _, lp := range p.LibraryPaths {
		paths = append(paths, p.Resolve(lp))
	}
	return paths
}
