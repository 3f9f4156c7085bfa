// Package mcpserver serves a capability catalog over the Model Context
// Protocol: newline-delimited JSON-RPC 2.0 on a reader/writer pair, usually
// stdin and stdout.
package mcpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/soyeahso/alarmhound/internal/capability"
	"github.com/soyeahso/alarmhound/internal/logging"
	"github.com/soyeahso/alarmhound/internal/version"
)

// ProtocolVersion is the MCP revision this server speaks.
const ProtocolVersion = "2024-11-05"

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type response struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Tool is one entry of a tools/list result.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

type callParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolResult is the tools/call result.
type ToolResult struct {
	Content []ContentItem `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// ContentItem is a single block of tool output.
type ContentItem struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type initializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ServerInfo      serverInfo     `json:"serverInfo"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Server answers MCP requests from the capabilities in a catalog.
type Server struct {
	catalog *capability.Catalog
	log     *logging.Logger

	mu  sync.Mutex
	out io.Writer
}

// New creates a server writing responses to out.
func New(catalog *capability.Catalog, out io.Writer, log *logging.Logger) *Server {
	return &Server{catalog: catalog, out: out, log: log.Sub("mcp")}
}

// Run reads requests from in until EOF or ctx is cancelled.
func (s *Server) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	s.log.Info().Strs("tools", s.catalog.Names()).Msg("listening for requests")
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		s.handle(ctx, line)
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return fmt.Errorf("reading requests: %w", err)
	}
	s.log.Info().Msg("input closed")
	return nil
}

func (s *Server) handle(ctx context.Context, line []byte) {
	var req request
	if err := json.Unmarshal(line, &req); err != nil {
		s.sendError(nil, codeParseError, "Parse error", err.Error())
		return
	}
	s.log.Debug().Str("method", req.Method).Msg("request")

	switch req.Method {
	case "initialize":
		s.sendResult(req.ID, initializeResult{
			ProtocolVersion: ProtocolVersion,
			Capabilities:    map[string]any{"tools": map[string]any{}},
			ServerInfo:      serverInfo{Name: "alarmhound", Version: version.Version},
		})
	case "notifications/initialized":
	case "ping":
		s.sendResult(req.ID, map[string]any{})
	case "tools/list":
		s.sendResult(req.ID, map[string]any{"tools": s.tools()})
	case "tools/call":
		s.handleCall(ctx, req)
	default:
		s.sendError(req.ID, codeMethodNotFound, "Method not found", "Unknown method: "+req.Method)
	}
}

func (s *Server) tools() []Tool {
	descs := s.catalog.Descriptors()
	tools := make([]Tool, 0, len(descs))
	for _, d := range descs {
		tools = append(tools, Tool{Name: d.Name, Description: d.Description, InputSchema: d.Schema})
	}
	return tools
}

func (s *Server) handleCall(ctx context.Context, req request) {
	var p callParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		s.sendError(req.ID, codeInvalidParams, "Invalid params", err.Error())
		return
	}

	var payload capability.Payload
	cp, ok := s.catalog.Lookup(p.Name)
	if !ok {
		payload = capability.UnknownTool(p.Name)
	} else {
		payload = invoke(ctx, cp, p.Arguments)
	}

	text, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		s.sendResult(req.ID, ToolResult{Content: []ContentItem{{Type: "text", Text: err.Error()}}, IsError: true})
		return
	}
	s.sendResult(req.ID, ToolResult{
		Content: []ContentItem{{Type: "text", Text: string(text)}},
		IsError: payload.IsError(),
	})
}

func invoke(ctx context.Context, cp capability.Capability, args map[string]any) (payload capability.Payload) {
	defer func() {
		if r := recover(); r != nil {
			payload = capability.Failuref("capability panicked: %v", r)
		}
	}()
	if args == nil {
		args = map[string]any{}
	}
	out, err := cp.Invoke(ctx, args)
	if err != nil {
		return capability.Failure(err)
	}
	return out
}

func (s *Server) sendResult(id, result any) {
	s.write(response{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *Server) sendError(id any, code int, message string, data any) {
	s.log.Debug().Int("code", code).Str("message", message).Msg("error response")
	s.write(response{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: message, Data: data}})
}

func (s *Server) write(resp response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error().Err(err).Msg("marshaling response")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data = append(data, '\n')
	if _, err := s.out.Write(data); err != nil {
		s.log.Error().Err(err).Msg("writing response")
	}
}
