package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// protocolVersion is the MCP revision this server speaks.
const protocolVersion = "2024-11-05"

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// maxLineBytes bounds a single request line. Observation payloads stay far
// below this; anything bigger is a broken client.
const maxLineBytes = 4 * 1024 * 1024

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ToolContent is one MCP content block. Only text blocks are produced here.
type ToolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallResult is the tools/call result payload. Tool failures travel in-band
// as IsError + message text; JSON-RPC errors are reserved for protocol
// problems.
type CallResult struct {
	Content []ToolContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

type toolDescriptor struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema *JSONSchema `json:"inputSchema"`
}

type callParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Server speaks newline-delimited JSON-RPC 2.0 over a reader/writer pair,
// normally stdin/stdout. All logging goes to the supplied logger (stderr in
// practice); stdout carries protocol frames only.
type Server struct {
	name     string
	version  string
	registry *Registry
	in       io.Reader
	out      io.Writer
	log      *zap.Logger

	writeMu sync.Mutex
}

// NewServer creates an MCP server on stdin/stdout.
func NewServer(name, version string, registry *Registry, log *zap.Logger) *Server {
	return NewServerIO(name, version, registry, os.Stdin, os.Stdout, log)
}

// NewServerIO creates an MCP server on an explicit reader/writer pair.
func NewServerIO(name, version string, registry *Registry, in io.Reader, out io.Writer, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		name:     name,
		version:  version,
		registry: registry,
		in:       in,
		out:      out,
		log:      log,
	}
}

// Serve reads requests line by line until EOF or context cancellation.
// Each tool call runs on the request goroutine; MCP clients pipeline
// requests rarely enough that serial handling keeps ordering simple.
func (s *Server) Serve(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	s.log.Info("MCP server listening on stdio",
		zap.String("server", s.name),
		zap.Int("tools", s.registry.Count()))

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		s.handleLine(ctx, []byte(line))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	s.log.Info("MCP client closed the stream")
	return nil
}

func (s *Server) handleLine(ctx context.Context, line []byte) {
	var req rpcRequest
	if err := json.Unmarshal(line, &req); err != nil {
		s.log.Warn("undecodable request line", zap.Error(err))
		s.reply(rpcResponse{JSONRPC: "2.0", Error: &rpcError{Code: codeParseError, Message: "parse error"}})
		return
	}

	resp, respond := s.dispatch(ctx, req)
	// Requests without an id are notifications and get no response.
	if respond && req.ID != nil {
		s.reply(resp)
	}
}

func (s *Server) dispatch(ctx context.Context, req rpcRequest) (rpcResponse, bool) {
	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}

	switch req.Method {
	case "initialize":
		resp.Result = map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities": map[string]any{
				"tools": map[string]any{},
			},
			"serverInfo": map[string]any{
				"name":    s.name,
				"version": s.version,
			},
		}
		return resp, true

	case "notifications/initialized", "initialized":
		return resp, false

	case "ping":
		resp.Result = map[string]any{}
		return resp, true

	case "tools/list":
		tools := s.registry.List()
		descriptors := make([]toolDescriptor, 0, len(tools))
		for _, t := range tools {
			descriptors = append(descriptors, toolDescriptor{
				Name:        t.Name,
				Description: t.Description,
				InputSchema: t.Parameters,
			})
		}
		resp.Result = map[string]any{"tools": descriptors}
		return resp, true

	case "tools/call":
		var params callParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			resp.Error = &rpcError{Code: codeInvalidParams, Message: "invalid tools/call params"}
			return resp, true
		}
		if _, ok := s.registry.Get(params.Name); !ok {
			resp.Error = &rpcError{Code: codeInvalidParams, Message: fmt.Sprintf("unknown tool: %s", params.Name)}
			return resp, true
		}

		out, err := s.registry.Execute(ctx, params.Name, params.Arguments)
		if err != nil {
			s.log.Warn("tool call failed",
				zap.String("tool", params.Name),
				zap.Error(err))
			resp.Result = CallResult{
				Content: []ToolContent{{Type: "text", Text: err.Error()}},
				IsError: true,
			}
			return resp, true
		}
		resp.Result = CallResult{
			Content: []ToolContent{{Type: "text", Text: out}},
		}
		return resp, true

	default:
		if req.ID == nil {
			// Unknown notification, nothing to answer.
			return resp, false
		}
		resp.Error = &rpcError{Code: codeMethodNotFound, Message: fmt.Sprintf("method not found: %s", req.Method)}
		return resp, true
	}
}

// reply writes one response frame followed by a newline.
func (s *Server) reply(resp rpcResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error("encode response", zap.Error(err))
		return
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.out.Write(append(data, '\n')); err != nil {
		s.log.Error("write response", zap.Error(err))
	}
}
