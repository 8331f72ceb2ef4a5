package main

import (
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"

	"github.com/ternarybob/ghostfetch/internal/common"
	"github.com/ternarybob/ghostfetch/pkg/client"
)

// Model Context Protocol server exposing a running GhostFetch service as
// agent tools over stdio. Point GHOSTFETCH_SERVER at the service.
func main() {
	serverURL := os.Getenv("GHOSTFETCH_SERVER")
	if serverURL == "" {
		serverURL = "http://localhost:8000"
	}

	// Console only, warn level: MCP owns stdout, so keep logging quiet.
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:       arbor_models.LogWriterTypeConsole,
		TimeFormat: "15:04:05",
	}).WithLevelFromString("warn")

	fetchClient := client.New(serverURL)

	mcpServer := server.NewMCPServer(
		"ghostfetch",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createFetchURLTool(), handleFetchURL(fetchClient, logger))
	mcpServer.AddTool(createGetJobTool(), handleGetJob(fetchClient, logger))
	mcpServer.AddTool(createServiceHealthTool(), handleServiceHealth(fetchClient, logger))

	// Blocks on stdio until the agent disconnects.
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
