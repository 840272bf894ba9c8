// Package mcpserver exposes the operation dispatcher as MCP tools and
// resources.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/matiasleandrokruk/netsuite-mcp/internal/domain/tool"
	"github.com/matiasleandrokruk/netsuite-mcp/internal/version"
)

// Dispatcher is the subset of *tool.Dispatcher the server needs.
type Dispatcher interface {
	Invoke(ctx context.Context, name string, args map[string]any) (json.RawMessage, error)
	Registry() *tool.Registry
}

// Server wraps an *mcp.Server with every registered operation as a tool.
type Server struct {
	mcp        *mcp.Server
	dispatcher Dispatcher
	logger     logrus.FieldLogger
}

func New(d Dispatcher, logger logrus.FieldLogger) *Server {
	s := &Server{
		mcp:        mcp.NewServer(&mcp.Implementation{Name: version.Name, Version: version.Version}, nil),
		dispatcher: d,
		logger:     logger,
	}

	for _, desc := range d.Registry().List() {
		s.mcp.AddTool(&mcp.Tool{
			Name:        desc.Name,
			Description: desc.Description,
			InputSchema: desc.InputSchema(),
		}, s.toolHandler(desc.Name))
	}
	s.addResources()

	logger.WithField("tools", len(d.Registry().List())).Info("mcp tools registered")
	return s
}

// MCP returns the underlying SDK server.
func (s *Server) MCP() *mcp.Server { return s.mcp }

// Run serves a single session over t until the peer disconnects or ctx ends.
func (s *Server) Run(ctx context.Context, t mcp.Transport) error {
	return s.mcp.Run(ctx, t)
}

// ServeStdio serves over the process's stdin and stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) toolHandler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := decodeArguments(req.Params.Arguments)
		if err != nil {
			return errorResult(&tool.Error{Kind: tool.KindInvalidParams, Message: err.Error()}), nil
		}

		out, err := s.dispatcher.Invoke(ctx, name, args)
		if err != nil {
			return errorResult(tool.ToError(err)), nil
		}
		return successResult(out), nil
	}
}

// decodeArguments parses tool arguments keeping numbers exact.
func decodeArguments(raw json.RawMessage) (map[string]any, error) {
	args := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return args, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&args); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON object: %v", err)
	}
	return args, nil
}

func successResult(out json.RawMessage) *mcp.CallToolResult {
	res := &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(out)}},
	}
	if isObject(out) {
		res.StructuredContent = out
	}
	return res
}

func errorResult(te *tool.Error) *mcp.CallToolResult {
	body := map[string]any{"error": te}
	text, _ := json.Marshal(body)
	return &mcp.CallToolResult{
		IsError:           true,
		Content:           []mcp.Content{&mcp.TextContent{Text: string(text)}},
		StructuredContent: body,
	}
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
