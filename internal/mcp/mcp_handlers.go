package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/huangsam/monthrank/core"
	"github.com/huangsam/monthrank/internal/contract"
	"github.com/huangsam/monthrank/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
	logger  *slog.Logger
}

// toolConfig clones the base config and applies the arguments shared by every tool.
func (h *toolHandler) toolConfig(request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()
	cfg.InputPath = request.GetString("input_path", "")
	if a := request.GetString("algorithm", ""); a != "" {
		cfg.Algorithm = schema.Algorithm(a)
	}
	if w := request.GetInt("workers", 0); w != 0 {
		cfg.Workers = w
	}
	if l := request.GetInt("limit", 0); l != 0 {
		cfg.ResultLimit = l
	}
	if err := contract.RevalidateToolInputs(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (h *toolHandler) handleProcessRecords(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.toolConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	result, err := core.GetProcessResult(core.WithSuppressHeader(ctx), cfg, h.mgr, h.logger)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("processing failed: %v", err)), nil
	}
	return jsonResult(result)
}

func (h *toolHandler) handleSummarizePeaks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.toolConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	summaries, err := core.GetSummaryResult(core.WithSuppressHeader(ctx), cfg, h.mgr, h.logger)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("summary failed: %v", err)), nil
	}
	return jsonResult(summaries)
}

func (h *toolHandler) handleCompareAlgorithms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.toolConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	comparison, _, err := core.GetRunAllResult(core.WithSuppressHeader(ctx), cfg, h.mgr, h.logger)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("comparison failed: %v", err)), nil
	}
	return jsonResult(comparison)
}

// jsonResult encodes v the same way the CLI does, without escaping record payloads.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}
