package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/envfold/envfold/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server (stdio) for AI/IDE integration",
	Long:  `Run the Model Context Protocol server on stdio. Exposes parse_env_file (ordered entries), list_env_keys (key names only), and check_env_file (parser diagnostics) for the folded .env format.`,
	RunE:  runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	return mcpserver.Run(context.Background())
}
