package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createFetchURLTool returns the fetch_url tool definition
func createFetchURLTool() mcp.Tool {
	return mcp.NewTool("fetch_url",
		mcp.WithDescription("Fetch web content from sites that block automated clients. Uses a stealthy headless browser and returns the page as clean Markdown with metadata."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL to fetch (e.g. https://x.com/user/status/123)"),
		),
		mcp.WithNumber("timeout",
			mcp.Description("Maximum seconds to wait for the fetch (default: server-side default, usually 120)"),
		),
	)
}

// createGetJobTool returns the get_job tool definition
func createGetJobTool() mcp.Tool {
	return mcp.NewTool("get_job",
		mcp.WithDescription("Look up a previously submitted fetch job by its ID, including its result or failure details"),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("Job ID returned by the fetch service"),
		),
	)
}

// createServiceHealthTool returns the service_health tool definition
func createServiceHealthTool() mcp.Tool {
	return mcp.NewTool("service_health",
		mcp.WithDescription("Report the fetch service's health: browser state, queue depth, and capacity"),
	)
}
