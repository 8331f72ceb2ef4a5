package main

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ghostfetch/pkg/client"
)

// handleFetchURL implements the fetch_url tool
func handleFetchURL(c *client.Client, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rawURL, err := request.RequireString("url")
		if err != nil || rawURL == "" {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: url parameter is required"),
				},
			}, nil
		}

		timeout := time.Duration(request.GetInt("timeout", 0)) * time.Second

		artifact, err := c.FetchSync(ctx, rawURL, timeout)
		if err != nil {
			logger.Error().Err(err).Str("url", rawURL).Msg("Fetch failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Error fetching URL: %v", err)),
				},
			}, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(formatArtifact(artifact)),
			},
		}, nil
	}
}

// handleGetJob implements the get_job tool
func handleGetJob(c *client.Client, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jobID, err := request.RequireString("job_id")
		if err != nil || jobID == "" {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: job_id parameter is required"),
				},
			}, nil
		}

		job, err := c.GetJob(ctx, jobID)
		if err != nil {
			logger.Error().Err(err).Str("job_id", jobID).Msg("Job lookup failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Job not found: %v", err)),
				},
			}, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(formatJob(job)),
			},
		}, nil
	}
}

// handleServiceHealth implements the service_health tool
func handleServiceHealth(c *client.Client, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		health, err := c.ServiceHealth(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Health check failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Service unreachable: %v", err)),
				},
			}, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(formatHealth(health)),
			},
		}, nil
	}
}
