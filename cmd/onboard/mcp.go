package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	onboarding "github.com/techiemaya-admin/lad-onboarding"
	"github.com/techiemaya-admin/lad-onboarding/internal/cli"
	"github.com/techiemaya-admin/lad-onboarding/pkg/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the onboarding engine as an MCP Server.
This allows AI agents to run onboarding sessions as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		app, cfg := openApp(cmd, false)
		defer app.Close()
		debug, _ := cmd.Flags().GetBool("debug")
		logger := cli.NewLogger(cfg.LogLevel, debug, false)

		srv := mcp.NewServer(app.Service, onboarding.Version, mcp.WithLogger(logger))

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			logger.Info("Starting Onboarding MCP Server (Stdio)...")
			if err := srv.ServeStdio(); err != nil {
				logger.Error("MCP Server execution failed", "err", err)
				os.Exit(1)
			}
		case "sse":
			logger.Info("Starting Onboarding MCP Server (SSE)", "port", port)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, port); err != nil && err != http.ErrServerClosed {
				logger.Error("MCP Server execution failed", "err", err)
				os.Exit(1)
			}
			logger.Info("MCP Server stopped gracefully")
		default:
			log.Fatalf("Unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
