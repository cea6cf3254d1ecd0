package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can search
KIIT notices and ask cited questions.

By default, the server communicates over stdio using JSON-RPC.
Use --port to start an HTTP server instead.

Tools: search, ask, recent_notices
Resources: kiit://notices/recent, kiit://notices/{noticeId}

Examples:
  # Stdio mode (default, for desktop assistants)
  kiitbot mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  kiitbot mcp serve --port 8090

Assistant configuration:
  {
    "mcpServers": {
      "kiitbot": {
        "command": "/path/to/kiitbot",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	if err := ensureIndex(cmd.Context()); err != nil {
		return err
	}

	ports := &mcp.Ports{
		Search:   searchService,
		Chat:     chatService,
		Document: documentService,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
