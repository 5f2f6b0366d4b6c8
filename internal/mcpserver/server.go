// Package mcpserver exposes the env file parser over MCP stdio so agents
// can inspect .env files without shelling out.
package mcpserver

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/envfold/envfold/internal/audit"
	"github.com/envfold/envfold/internal/envfile"
)

func resolvePath(path string) string {
	if path == "" {
		return ".env"
	}
	return path
}

// Run serves the parser tools on stdio until ctx is done.
func Run(ctx context.Context) error {
	server := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "envfold",
		Version: "0.1.0",
	}, nil)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "parse_env_file",
		Description: "Parse a .env file with backslash line-continuation support. Returns the ordered key/value entries with their starting line numbers. Duplicate keys are preserved in order; values may contain embedded newlines from folded lines.",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, args struct {
		Path string `json:"path" jsonschema:"path to the .env file (default: .env)"`
	}) (*mcpsdk.CallToolResult, any, error) {
		path := resolvePath(args.Path)
		entries, err := envfile.Load(path)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		_ = audit.Log("", audit.OpMCPCall, audit.WithTool("parse_env_file"), audit.WithFiles([]string{path}))
		return successResult(map[string]any{"path": path, "entries": entries, "count": len(entries)}), nil, nil
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "list_env_keys",
		Description: "List the key names in a .env file in input order, duplicates included. Use to see what a file defines without reading the values.",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, args struct {
		Path string `json:"path" jsonschema:"path to the .env file (default: .env)"`
	}) (*mcpsdk.CallToolResult, any, error) {
		path := resolvePath(args.Path)
		entries, err := envfile.Load(path)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		_ = audit.Log("", audit.OpMCPCall, audit.WithTool("list_env_keys"), audit.WithFiles([]string{path}))
		return successResult(map[string]any{"path": path, "keys": envfile.Keys(entries)}), nil, nil
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "check_env_file",
		Description: "Parse a .env file and report diagnostics (e.g. lines with no '=' separator). Parsing never fails; ok is false only when the file cannot be read.",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, args struct {
		Path string `json:"path" jsonschema:"path to the .env file (default: .env)"`
	}) (*mcpsdk.CallToolResult, any, error) {
		path := resolvePath(args.Path)
		entries, diags, err := envfile.LoadWithDiagnostics(path)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		_ = audit.Log("", audit.OpMCPCall, audit.WithTool("check_env_file"), audit.WithFiles([]string{path}))
		return successResult(map[string]any{
			"path":        path,
			"entries":     len(entries),
			"diagnostics": diags,
		}), nil, nil
	})

	transport := &mcpsdk.StdioTransport{}
	return server.Run(ctx, transport)
}
