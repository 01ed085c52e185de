package main

import (
	"log"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/gridkit/internal/grid"
	gridmcp "github.com/ajitpratap0/gridkit/internal/mcp"
)

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP (Model Context Protocol) server over stdio",
		Long: `Starts an MCP JSON-RPC 2.0 server that reads from stdin and writes to stdout.
All diagnostic logs go to stderr so that stdout remains exclusively MCP protocol traffic.

Tools exposed:
  list_collections    collections of the grid with row counts
  get_entity          one entity by type and uuid
  node_participants   participants and rated power per node
  disconnected_lines  lines isolated by opened switches
  mapping             external mapping entries
  series_error        RMSE or MAE between two primary series

If the grid cannot be loaded at startup the server still starts; grid tool
calls then return MCP error responses.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger()

			var ct *grid.Container
			loaded, loadErr := loadGrid(logger, "")
			if loadErr != nil {
				logger.Error("mcp: failed to load grid; grid tools will fail", "error", loadErr)
			} else {
				ct = loaded
			}
			m, mapErr := loadMapping(false)
			if mapErr != nil {
				logger.Error("mcp: failed to load mapping; serving an empty table", "error", mapErr)
			}

			srv := gridmcp.NewServer(ct, m, logger)

			errLogger := log.New(os.Stderr, "mcp: ", log.LstdFlags)

			logger.Info("mcp: gridkit MCP server starting", "transport", "stdio")

			return mcpserver.ServeStdio(
				srv.MCPServer(),
				mcpserver.WithErrorLogger(errLogger),
			)
		},
	}

	return cmd
}
