package cli

import (
	"github.com/spf13/cobra"

	"github.com/shinyobjectz/beans/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so agents can store and query
research findings.

The server communicates over stdio using JSON-RPC and exposes the tools
research_store, research_list, research_search, research_show and
research_for.

Example client configuration:
  {
    "mcpServers": {
      "beans": {
        "command": "/path/to/beans",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	svc, err := research()
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{Research: svc})
	if err != nil {
		return err
	}
	return server.Run(cmd.Context())
}
