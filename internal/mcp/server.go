// Package mcp serves the query tools to Model Context Protocol clients.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dvloznov/copilot-ledger/internal/tools"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
)

// Name is the implementation name reported during initialization.
const Name = "copilot-money-mcp"

// UnavailableMessage is returned for tool calls while the database is missing.
const UnavailableMessage = "Database not available. Please ensure Copilot Money is installed " +
	"and has created local data, or provide a custom database path."

// Server exposes Tools as MCP tools.
type Server struct {
	tools *tools.Tools
	log   zerolog.Logger
	srv   *sdk.Server
}

// NewServer registers every tool in tools.Schemas.
func NewServer(t *tools.Tools, log zerolog.Logger, version string) *Server {
	s := &Server{
		tools: t,
		log:   log,
		srv:   sdk.NewServer(&sdk.Implementation{Name: Name, Version: version}, nil),
	}
	for _, schema := range tools.Schemas() {
		s.srv.AddTool(&sdk.Tool{
			Name:        schema.Name,
			Description: schema.Description,
			InputSchema: schema.InputSchema,
		}, s.handler(schema.Name))
	}
	return s
}

// Run serves one client over stdin and stdout until it disconnects or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info().Str("db_path", s.tools.Database().Path()).Msg("MCP server started")
	err := s.srv.Run(ctx, &sdk.StdioTransport{})
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp.Run: %w", err)
	}
	s.log.Info().Msg("MCP client disconnected")
	return nil
}

// Connect starts a session over t and returns without waiting for it to end.
func (s *Server) Connect(ctx context.Context, t sdk.Transport) (*sdk.ServerSession, error) {
	return s.srv.Connect(ctx, t, nil)
}

func (s *Server) handler(name string) sdk.ToolHandler {
	log := s.log.With().Str("tool", name).Logger()
	return func(ctx context.Context, req *sdk.CallToolRequest) (*sdk.CallToolResult, error) {
		log.Debug().Msg("Handling tool call")
		return s.callTool(ctx, log, name, req.Params.Arguments), nil
	}
}

// callTool reports every failure as an error result so the client sees the message.
func (s *Server) callTool(ctx context.Context, log zerolog.Logger, name string, args json.RawMessage) *sdk.CallToolResult {
	if !s.tools.Database().IsAvailable() {
		log.Warn().Str("db_path", s.tools.Database().Path()).Msg("Database not available")
		return textResult(UnavailableMessage, true)
	}

	out, err := s.tools.Call(ctx, name, args)
	switch {
	case errors.Is(err, tools.ErrAccountNotFound), errors.Is(err, tools.ErrInvalidArgument):
		return textResult("Error: "+err.Error(), true)
	case err != nil:
		log.Error().Err(err).Msg("Tool execution failed")
		return textResult("Error executing tool: "+err.Error(), true)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode tool result")
		return textResult("Error executing tool: "+err.Error(), true)
	}
	return textResult(string(data), false)
}

func textResult(text string, isError bool) *sdk.CallToolResult {
	return &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{Text: text}},
		IsError: isError,
	}
}
