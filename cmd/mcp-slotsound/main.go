// Command mcp-slotsound runs the MCP tool server for storage slot comparison.
// Uses stdio transport for integration with AI assistants.
package main

import (
	"context"
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/chests-genuine/zk-slot-soundness/internal/config"
	"github.com/chests-genuine/zk-slot-soundness/internal/mcpserver"
	"github.com/chests-genuine/zk-slot-soundness/internal/observability"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("unable to load config: %v", err)
	}
	observability.InitLogger(cfg.LogLevel)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "zk-slot-soundness",
		Version: "v0.3.0",
	}, nil)
	mcpserver.RegisterTools(server, cfg)

	if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		log.Fatalf("mcp server error: %v", err)
	}
}
