// Package lsp answers editor queries over checked files. A Session keeps the
// last pipeline result of every open file; queries only ever read a complete
// result.
package lsp

import (
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/funvibe/phasec/internal/config"
	"github.com/funvibe/phasec/internal/importer"
	"github.com/funvibe/phasec/internal/pipeline"
)

// FileState is the result of checking one version of a file.
type FileState struct {
	URI      string
	Version  string
	Contents []byte
	Context  *pipeline.PipelineContext
}

// Session holds the open files of one editor connection. Libraries imported
// for one file are shared with the others through a single type system.
type Session struct {
	mu      sync.RWMutex
	files   map[string]*FileState
	project *config.Project
	ts      *importer.TypeSystem
}

func NewSession(project *config.Project) *Session {
	if project == nil {
		project = config.DefaultProject(".")
	}
	return &Session{
		files:   make(map[string]*FileState),
		project: project,
		ts:      importer.NewTypeSystem(project),
	}
}

// Open checks contents and starts tracking uri.
func (s *Session) Open(uri string, contents []byte) *FileState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.check(uri, contents, nil)
}

// Update re-checks an open file. Files not opened before are opened.
func (s *Session) Update(uri string, contents []byte) *FileState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.check(uri, contents, s.files[uri])
}

// Close forgets uri.
func (s *Session) Close(uri string) {
	s.mu.Lock()
	delete(s.files, uri)
	s.mu.Unlock()
}

func (s *Session) Get(uri string) (*FileState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fs, ok := s.files[uri]
	return fs, ok
}

// check runs the pipeline and replaces the file state. Callers hold mu.
func (s *Session) check(uri string, contents []byte, prev *FileState) *FileState {
	ctx := &pipeline.PipelineContext{
		FilePath:   URIToPath(uri),
		SourceCode: contents,
		Project:    s.project,
		TypeSystem: s.ts,
	}
	if prev != nil && prev.Context != nil {
		ctx.Imports = prev.Context.Imports
	}
	ctx = pipeline.Check().Run(ctx)

	fs := &FileState{
		URI:      uri,
		Version:  uuid.NewString(),
		Contents: contents,
		Context:  ctx,
	}
	s.files[uri] = fs
	if config.IsDebugMode {
		log.Printf("checked %s (%s): %d diagnostics", uri, fs.Version, len(ctx.Errors))
	}
	return fs
}

// URIToPath strips the file scheme from a document URI.
func URIToPath(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}
