package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/freestyler/internal/freestyle"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes freestyle tools.
type Server struct {
	svc *freestyle.Service
	mcp *server.MCPServer
}

// NewServer creates a new MCP server backed by svc.
func NewServer(svc *freestyle.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"freestyler",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(dropBarsTool, s.handleDropBars)
	s.mcp.AddTool(cutBarsTool, s.handleCutBars)
	s.mcp.AddTool(listPersonasTool, s.handleListPersonas)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
