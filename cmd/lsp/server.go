package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/funvibe/phasec/internal/config"
	"github.com/funvibe/phasec/internal/lsp"
)

// Language Server implementation
type LanguageServer struct {
	session  *lsp.Session
	writer   io.Writer // Output stream for JSON-RPC responses
	rootPath string    // Workspace root, where phasec.yaml is searched from
	shutdown bool
}

func NewLanguageServer(writer io.Writer) *LanguageServer {
	if writer == nil {
		writer = os.Stdout
	}
	return &LanguageServer{
		session: lsp.NewSession(nil),
		writer:  writer,
	}
}

// Start serves Content-Length framed messages from r until it is closed or
// the client sends exit. It returns the process exit code.
func (s *LanguageServer) Start(r io.Reader) int {
	reader := bufio.NewReader(r)

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				log.Printf("Error reading header: %v", err)
			}
			break
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, "Content-Length: ") {
			continue
		}
		contentLength, err := strconv.Atoi(strings.TrimPrefix(line, "Content-Length: "))
		if err != nil {
			log.Printf("Error parsing Content-Length: %v", err)
			continue
		}

		// Skip any other headers up to the blank separator line.
		for {
			header, err := reader.ReadString('\n')
			if err != nil {
				log.Printf("Error reading separator: %v", err)
				return 1
			}
			if strings.TrimRight(header, "\r\n") == "" {
				break
			}
		}

		content := make([]byte, contentLength)
		if _, err := io.ReadFull(reader, content); err != nil {
			log.Printf("Error reading content: %v", err)
			break
		}

		exit, err := s.handleMessage(content)
		if err != nil {
			log.Printf("Error handling message: %v", err)
		}
		if exit {
			if s.shutdown {
				return 0
			}
			return 1
		}
	}
	return 0
}

type baseMessage struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// handleMessage dispatches one message. It reports true when the client
// asked the server to exit.
func (s *LanguageServer) handleMessage(content []byte) (bool, error) {
	if config.IsDebugMode {
		log.Printf("Received message: %s", string(content))
	}

	var msg baseMessage
	if err := json.Unmarshal(content, &msg); err != nil {
		return false, fmt.Errorf("failed to unmarshal message: %w", err)
	}

	if msg.Method == "exit" {
		return true, nil
	}
	if msg.ID != nil {
		return false, s.handleRequest(msg)
	}
	return false, s.handleNotification(msg)
}

func (s *LanguageServer) handleRequest(msg baseMessage) error {
	switch msg.Method {
	case "initialize":
		var params InitializeParams
		if err := s.decodeParams(msg, &params); err != nil {
			return err
		}
		return s.handleInitialize(msg.ID, params)

	case "shutdown":
		return s.handleShutdown(msg.ID)

	case "textDocument/hover":
		var params TextDocumentPositionParams
		if err := s.decodeParams(msg, &params); err != nil {
			return err
		}
		return s.handleHover(msg.ID, params)

	case "textDocument/signatureHelp":
		var params TextDocumentPositionParams
		if err := s.decodeParams(msg, &params); err != nil {
			return err
		}
		return s.handleSignatureHelp(msg.ID, params)

	default:
		return s.sendError(msg.ID, codeMethodNotFound, fmt.Sprintf("Method not found: %s", msg.Method))
	}
}

func (s *LanguageServer) handleNotification(msg baseMessage) error {
	switch msg.Method {
	case "initialized":
		return nil

	case "textDocument/didOpen":
		var params DidOpenTextDocumentParams
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return err
		}
		return s.handleDidOpen(params)

	case "textDocument/didChange":
		var params DidChangeTextDocumentParams
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return err
		}
		return s.handleDidChange(params)

	case "textDocument/didClose":
		var params DidCloseTextDocumentParams
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return err
		}
		return s.handleDidClose(params)

	default:
		// Unknown notification, ignore
		return nil
	}
}

// decodeParams unmarshals request params, answering invalid params itself.
func (s *LanguageServer) decodeParams(msg baseMessage, into interface{}) error {
	if len(msg.Params) == 0 {
		return nil
	}
	if err := json.Unmarshal(msg.Params, into); err != nil {
		if sendErr := s.sendError(msg.ID, codeInvalidParams, err.Error()); sendErr != nil {
			return sendErr
		}
		return fmt.Errorf("%s: %w", msg.Method, err)
	}
	return nil
}

func (s *LanguageServer) sendResponse(id interface{}, result interface{}) error {
	return s.sendMessage(ResponseMessage{Jsonrpc: "2.0", ID: id, Result: result})
}

func (s *LanguageServer) sendError(id interface{}, code int, message string) error {
	return s.sendMessage(ResponseMessage{
		Jsonrpc: "2.0",
		ID:      id,
		Error:   &Error{Code: code, Message: message},
	})
}

func (s *LanguageServer) sendNotification(method string, params interface{}) error {
	return s.sendMessage(NotificationMessage{Jsonrpc: "2.0", Method: method, Params: params})
}

func (s *LanguageServer) sendMessage(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(s.writer, "Content-Length: %d\r\n\r\n%s", len(data), data)
	return err
}
