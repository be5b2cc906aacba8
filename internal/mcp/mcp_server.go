// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"
	"log/slog"

	"github.com/huangsam/monthrank/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the monthrank MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager, logger *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		"Monthrank Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
		logger:  logger,
	}

	// --- 1. Tool: process_records ---
	s.AddTool(mcp.NewTool("process_records",
		mcp.WithDescription("Group records by month, rank each month by value (highest first) and order the months chronologically."),
		mcp.WithString("input_path", mcp.Description("Path to a JSON array of records, optionally zstd-compressed (.zst)."), mcp.Required()),
		mcp.WithString("algorithm", mcp.Description("Ordering strategy. Defaults to 'merge'."), mcp.Enum("bubble", "merge")),
		mcp.WithNumber("workers", mcp.Description("Number of months ranked concurrently.")),
	), h.handleProcessRecords)

	// --- 2. Tool: summarize_peaks ---
	s.AddTool(mcp.NewTool("summarize_peaks",
		mcp.WithDescription("List the countries with the highest peak value in every month."),
		mcp.WithString("input_path", mcp.Description("Path to a JSON array of records."), mcp.Required()),
		mcp.WithNumber("limit", mcp.Description("Number of countries per month. Defaults to 10.")),
		mcp.WithString("algorithm", mcp.Description("Ordering strategy."), mcp.Enum("bubble", "merge")),
	), h.handleSummarizePeaks)

	// --- 3. Tool: compare_algorithms ---
	s.AddTool(mcp.NewTool("compare_algorithms",
		mcp.WithDescription("Rank the records with every algorithm and report their metrics. Fails when the algorithms disagree."),
		mcp.WithString("input_path", mcp.Description("Path to a JSON array of records."), mcp.Required()),
		mcp.WithNumber("workers", mcp.Description("Number of months ranked concurrently.")),
	), h.handleCompareAlgorithms)

	return s
}

// StartMCPServer starts the monthrank MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager, logger *slog.Logger) error {
	s := NewMCPServer(baseCfg, mgr, logger)
	return server.ServeStdio(s)
}
