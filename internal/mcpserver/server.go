// Package mcpserver exposes the tool dispatcher over the Model Context
// Protocol, on stdio or as a streamable HTTP handler.
//
// A failed tool call is not a JSON-RPC error. It comes back as a tools/call
// result with isError set and a single text part holding
//
//	{"error":{"kind":"permission_denied","code":-32600,"message":"...","upstream_status":404}}
//
// where code is the JSON-RPC code for the kind: -32601 for unknown_tool,
// -32600 for invalid_arguments and permission_denied, -32603 otherwise.
// Clients should read error.code from that body. The one exception is a tool
// name that was never registered: mcp-go rejects it before dispatch with a
// JSON-RPC -32602 "tool not found" error.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/JakeFAU/stayscout/internal/toolerr"
	"github.com/JakeFAU/stayscout/internal/tools"
)

// ServerName is the implementation name reported during initialize.
const ServerName = "stayscout"

// Dispatcher is the core the adapter forwards to. *tools.Dispatcher satisfies it.
type Dispatcher interface {
	ListTools() []tools.Descriptor
	CallTool(ctx context.Context, name string, args map[string]any) (tools.Result, error)
}

// Server wraps an MCP server whose tools all route through one Dispatcher.
type Server struct {
	mcp        *server.MCPServer
	dispatcher Dispatcher
	logger     *zap.Logger
}

// New registers every descriptor the dispatcher advertises.
func New(version string, d Dispatcher, logger *zap.Logger) (*Server, error) {
	if d == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		mcp:        server.NewMCPServer(ServerName, version, server.WithToolCapabilities(false)),
		dispatcher: d,
		logger:     logger,
	}
	for _, desc := range d.ListTools() {
		schema, err := json.Marshal(desc.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("marshal schema for %s: %w", desc.Name, err)
		}
		s.mcp.AddTool(mcp.NewToolWithRawSchema(desc.Name, desc.Description, schema), s.handler(desc.Name))
	}
	return s, nil
}

// handler forwards a call to the dispatcher. Tool failures are returned as
// error results carrying the toolerr body; mcp-go reports a handler's Go error
// only as a generic internal error.
func (s *Server) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := s.dispatcher.CallTool(ctx, name, req.GetArguments())
		if err != nil {
			return errorResult(err), nil
		}
		out := &mcp.CallToolResult{Content: make([]mcp.Content, 0, len(res.Content))}
		for _, c := range res.Content {
			out.Content = append(out.Content, mcp.NewTextContent(c.Text))
		}
		return out, nil
	}
}

func errorResult(err error) *mcp.CallToolResult {
	body := toolerr.As(err).Body()
	text, marshalErr := json.Marshal(map[string]toolerr.Body{"error": body})
	if marshalErr != nil {
		text = []byte(body.Message)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(text))},
		IsError: true,
	}
}

// HTTPHandler returns a stateless streamable HTTP handler. Mount it at /mcp.
func (s *Server) HTTPHandler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcp, server.WithStateLess(true))
}

// ServeStdio reads newline-delimited JSON-RPC from in and writes responses
// to out until ctx is done or in reaches EOF.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger.Named("stdio")))
	if err := stdio.Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("serve stdio: %w", err)
	}
	return nil
}
