package main

import (
	"log"

	"github.com/funvibe/phasec/internal/config"
	"github.com/funvibe/phasec/internal/lsp"
)

func (s *LanguageServer) handleInitialize(id interface{}, params InitializeParams) error {
	log.Printf("Handling initialize request with ID: %v", id)

	if params.RootURI != nil && *params.RootURI != "" {
		s.rootPath = lsp.URIToPath(*params.RootURI)
	} else if params.RootPath != nil && *params.RootPath != "" {
		s.rootPath = *params.RootPath
	}

	if s.rootPath != "" {
		project, err := config.ProjectFor(s.rootPath)
		if err != nil {
			log.Printf("Using default configuration: %v", err)
			project = config.DefaultProject(s.rootPath)
		}
		config.IsDebugMode = config.IsDebugMode || project.Debug
		s.session = lsp.NewSession(project)
	}

	return s.sendResponse(id, InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync: 1, // Full sync
			HoverProvider:    true,
			SignatureHelpProvider: &SignatureHelpOptions{
				TriggerCharacters: []string{"(", ","},
			},
		},
		ServerInfo: &ServerInfo{Name: "phasec"},
	})
}

func (s *LanguageServer) handleShutdown(id interface{}) error {
	s.shutdown = true
	return s.sendResponse(id, nil)
}
