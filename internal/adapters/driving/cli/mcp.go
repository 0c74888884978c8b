package cli

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/playbookbot/internal/adapters/driving/mcp"
	"github.com/custodia-labs/playbookbot/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve playbook tools to AI assistants",
	Long: `Serve search_playbooks, recommend_playbooks and sync_playbooks over MCP.

Without --port the server speaks JSON-RPC on stdio, which is what desktop
assistants launch. With --port it serves streamable HTTP on ` + mcp.EndpointPath + `
and a health check on ` + mcp.HealthPath + `.

Examples:
  playbookbot mcp serve
  playbookbot mcp serve --port 8080
  playbookbot mcp serve --port 8080 --host 0.0.0.0

Assistant configuration:
  {
    "mcpServers": {
      "playbookbot": {
        "command": "/path/to/playbookbot",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

var (
	mcpPort int
	mcpHost string
)

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "serve HTTP on this port instead of stdio")
	mcpServeCmd.Flags().StringVar(&mcpHost, "host", "127.0.0.1", "interface to bind in HTTP mode")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	server, err := mcp.NewServer(&mcp.Ports{
		Search:    searchService,
		Recommend: recommendService,
		Sync:      synchronizer,
		Limiter:   limiter,
		Defaults:  searchDefaults,
	})
	if err != nil {
		return err
	}
	logger.SetTimestamps(true)

	if mcpPort <= 0 {
		return server.Run(cmd.Context())
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(mcpHost, strconv.Itoa(mcpPort)))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", mcpPort, err)
	}
	cmd.Printf("MCP server listening on http://%s%s\n", ln.Addr(), mcp.EndpointPath)
	return server.RunHTTP(cmd.Context(), ln)
}
