package importer

import (
	_ "embed"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/funvibe/phasec/internal/config"
)

//go:embed sdk/sdk.yaml
var embeddedSDK []byte

// SDKManifestName is the manifest file looked up under an SDK root directory.
const SDKManifestName = "sdk.yaml"

// GoPackagePrefix marks a bring of a Go package: bring "go:strings" as s.
const GoPackagePrefix = "go:"

// NotFoundError is returned when a dependency cannot be located.
type NotFoundError struct {
	Name     string
	Searched []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found (searched %s)", e.Name, strings.Join(e.Searched, ", "))
}

// TypeSystem holds every loaded assembly. It is independent of any type
// arena: assemblies are declarations, materialized per check by an Importer.
type TypeSystem struct {
	assemblies map[string]*Assembly
	// loaded maps a load key (SDK root or dependency name) to an assembly name.
	loaded  map[string]string
	project *config.Project
}

// NewTypeSystem creates an empty type system. project supplies library and
// proto import paths; nil uses defaults.
func NewTypeSystem(project *config.Project) *TypeSystem {
	if project == nil {
		project = config.DefaultProject(".")
	}
	return &TypeSystem{
		assemblies: make(map[string]*Assembly),
		loaded:     make(map[string]string),
		project:    project,
	}
}

// Add registers an assembly directly.
func (ts *TypeSystem) Add(asm *Assembly) string {
	ts.assemblies[asm.Name] = asm
	return asm.Name
}

// Assembly returns a loaded assembly by name.
func (ts *TypeSystem) Assembly(name string) (*Assembly, bool) {
	asm, ok := ts.assemblies[name]
	return asm, ok
}

// LoadModule loads the SDK manifest found under root, which may be a
// directory containing sdk.yaml or the manifest itself. An empty root or
// "embedded" selects the manifest compiled into the binary.
func (ts *TypeSystem) LoadModule(root string) (string, error) {
	if root == "" {
		root = config.EmbeddedSDK
	} else if root != config.EmbeddedSDK {
		root = filepath.Clean(root)
	}
	key := "module:" + root
	if name, ok := ts.loaded[key]; ok {
		return name, nil
	}
	var (
		asm *Assembly
		err error
	)
	switch {
	case root == config.EmbeddedSDK:
		asm, err = ParseManifest(embeddedSDK, "<embedded sdk>")
	default:
		path := root
		if info, statErr := os.Stat(root); statErr == nil && info.IsDir() {
			path = filepath.Join(root, SDKManifestName)
		}
		asm, err = LoadManifest(path)
	}
	if err != nil {
		return "", err
	}
	ts.trace(asm)
	ts.loaded[key] = ts.Add(asm)
	return asm.Name, nil
}

// LoadDependency loads a brought library. name is a .proto file, a Go
// package prefixed with "go:", or the base name of a YAML manifest.
// searchRoot is the directory of the source being checked; the project's
// library paths are searched after it.
func (ts *TypeSystem) LoadDependency(name, searchRoot string) (string, error) {
	key := "dep:" + searchRoot + ":" + name
	if asmName, ok := ts.loaded[key]; ok {
		return asmName, nil
	}
	var (
		asm *Assembly
		err error
	)
	switch {
	case strings.HasSuffix(name, ".proto"):
		asm, err = loadProto(name, ts.searchPaths(searchRoot), ts.protoImportPaths())
	case strings.HasPrefix(name, GoPackagePrefix):
		asm, err = loadGoPackage(strings.TrimPrefix(name, GoPackagePrefix), searchRoot)
	default:
		asm, err = ts.findManifest(name, searchRoot)
	}
	if err != nil {
		return "", err
	}
	ts.trace(asm)
	ts.loaded[key] = ts.Add(asm)
	return asm.Name, nil
}

func (ts *TypeSystem) findManifest(name, searchRoot string) (*Assembly, error) {
	var searched []string
	for _, dir := range ts.searchPaths(searchRoot) {
		path := filepath.Join(dir, name+".yaml")
		searched = append(searched, path)
		asm, err := LoadManifest(path)
		if err == nil {
			return asm, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	return nil, &NotFoundError{Name: name, Searched: searched}
}

func (ts *TypeSystem) searchPaths(searchRoot string) []string {
	return ts.project.SearchPaths(searchRoot)
}

func (ts *TypeSystem) protoImportPaths() []string {
	paths := make([]string, 0, len(ts.project.ProtoImportPaths))
	for _, p := range ts.project.ProtoImportPaths {
		paths = append(paths, ts.project.Resolve(p))
	}
	return paths
}

func (ts *TypeSystem) trace(asm *Assembly) {
	if config.IsDebugMode {
		log.Printf("importer: loaded assembly %s from %s (%d types)", asm.Name, asm.Source, len(asm.Types))
	}
}
