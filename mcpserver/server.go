// Package mcpserver exposes a tool registry over the Model Context
// Protocol. Each registered tool is published with a JSON schema derived
// from its spec; invocation failures come back as in-band tool errors so
// MCP clients can read the code and retryability.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/seaway-labs/drydock/tool"
)

const serverName = "drydock"

// Config configures an MCP server over a tool registry.
type Config struct {
	Registry *tool.Registry
	Version  string
	Logger   *slog.Logger
}

// Server serves a tool registry to MCP clients.
type Server struct {
	registry *tool.Registry
	logger   *slog.Logger
	impl     *mcp.Server
}

// New builds an MCP server publishing every tool in the registry.
func New(cfg Config) (*Server, error) {
	if cfg.Registry == nil {
		return nil, errors.New("mcpserver: registry is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	impl := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: cfg.Version}, nil)
	s := &Server{
		registry: cfg.Registry,
		logger:   logger,
		impl:     impl,
	}

	for _, name := range cfg.Registry.Names() {
		t, ok := cfg.Registry.Get(name)
		if !ok {
			continue
		}
		spec := t.Spec()
		impl.AddTool(&mcp.Tool{
			Name:        name,
			Description: spec.Description,
			InputSchema: inputSchema(spec),
		}, s.handler(name))
	}
	return s, nil
}

// Run serves MCP over stdio until the context is cancelled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("mcp server starting", "tools", s.registry.Names())
	return s.impl.Run(ctx, mcp.NewStdioTransport())
}

// RunTransport serves MCP over the given transport. Used by tests with
// in-memory transports.
func (s *Server) RunTransport(ctx context.Context, transport mcp.Transport) error {
	return s.impl.Run(ctx, transport)
}

// handler adapts one registry tool into an MCP tool handler. Registry
// dispatch keeps the observability path shared with every other caller.
func (s *Server) handler(name string) mcp.ToolHandler {
	return func(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[map[string]any]) (*mcp.CallToolResultFor[any], error) {
		outputs, err := s.registry.Invoke(ctx, name, params.Arguments)
		if err != nil {
			s.logger.Warn("tool invocation failed", "tool", name, "error", err)
			return errorResult(err)
		}

		payload, err := json.Marshal(outputs)
		if err != nil {
			return nil, fmt.Errorf("mcpserver: encode %s outputs: %w", name, err)
		}
		return &mcp.CallToolResultFor[any]{
			Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
		}, nil
	}
}

// errorResult renders an invocation failure as an in-band tool error so
// the MCP session stays usable.
func errorResult(err error) (*mcp.CallToolResultFor[any], error) {
	body := map[string]any{
		"code":    tool.ErrCodeInvocationFailed,
		"message": err.Error(),
	}

	var toolErr *tool.Error
	var argErr *tool.ArgumentError
	switch {
	case errors.As(err, &toolErr):
		body["code"] = toolErr.Code
		body["message"] = toolErr.Message
		body["retryable"] = toolErr.Retryable
		if len(toolErr.Details) > 0 {
			body["details"] = toolErr.Details
		}
	case errors.As(err, &argErr):
		body["code"] = tool.ErrCodeInvalidArgument
		body["field"] = argErr.Field
		body["message"] = argErr.Message
	}

	payload, marshalErr := json.Marshal(body)
	if marshalErr != nil {
		return nil, fmt.Errorf("mcpserver: encode error payload: %w", marshalErr)
	}
	return &mcp.CallToolResultFor[any]{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
	}, nil
}

// inputSchema converts a tool spec into the JSON schema MCP clients
// receive from tools/list.
func inputSchema(spec tool.Spec) *jsonschema.Schema {
	properties := make(map[string]*jsonschema.Schema, len(spec.Inputs))
	var required []string
	for name, field := range spec.Inputs {
		properties[name] = &jsonschema.Schema{
			Type:        field.Type,
			Description: field.Description,
		}
		if field.Required {
			required = append(required, name)
		}
	}
	slices.Sort(required)
	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}
