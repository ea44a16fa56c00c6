// Package mcp exposes the news pipeline as MCP tools over stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/johnrirwin/marketwire/internal/logging"
	"github.com/johnrirwin/marketwire/internal/orchestrator"
	"github.com/johnrirwin/marketwire/internal/sources"
)

const (
	serverName    = "marketwire"
	serverVersion = "1.0.0"
)

type Server struct {
	mcpServer *server.MCPServer
	client    orchestrator.NewsClient
	registry  *sources.Registry
	desk      *orchestrator.Orchestrator
	logger    *logging.Logger
}

// NewServer registers the news tools. desk may be nil, which disables the
// snapshot tools.
func NewServer(client orchestrator.NewsClient, registry *sources.Registry, desk *orchestrator.Orchestrator, logger *logging.Logger) *Server {
	s := &Server{
		client:   client,
		registry: registry,
		desk:     desk,
		logger:   logger,
	}

	s.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
	)
	s.registerTools()

	return s
}

// ServeStdio blocks serving requests on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.logger.Info("MCP server started, waiting for requests...")
	return server.ServeStdio(s.mcpServer)
}
