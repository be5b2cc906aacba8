package mcp_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/monthrank/internal/contract"
	mcp_internal "github.com/huangsam/monthrank/internal/mcp"
	"github.com/huangsam/monthrank/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const records = `[
  {"Date": {"Year": 2020, "Month": 2, "Day": 1}, "Data": {"Cases": 3}, "Location": {"Country": "Italy"}},
  {"Date": {"Year": 2020, "Month": 1, "Day": 3}, "Data": {"Cases": 5}, "Location": {"Country": "Italy"}},
  {"Date": {"Year": 2020, "Month": 1, "Day": 4}, "Data": {"Cases": 9}, "Location": {"Country": "Spain"}}
]`

func baseConfig() *contract.Config {
	return &contract.Config{
		Algorithm:   schema.MergeSort,
		Workers:     1,
		ResultLimit: 10,
		Fields:      schema.DefaultFieldMap(),
	}
}

func callTool(t *testing.T, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	s := mcp_internal.NewMCPServer(baseConfig(), nil, nil)
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	req := mcp.CallToolRequest{Params: mcp.CallToolParams{Name: name, Arguments: args}}
	res, err := tool.Handler(context.Background(), req)
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	require.NotNil(t, res)
	return res
}

func resultText(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func writeRecords(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "covid.json")
	require.NoError(t, os.WriteFile(path, []byte(records), 0o644))
	return path
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		tool    string
		args    map[string]any
		wantErr string
	}{
		{"process_records missing input_path", "process_records", map[string]any{}, "input_path is required"},
		{"process_records stdin", "process_records", map[string]any{"input_path": "-"}, "cannot be stdin"},
		{"process_records bad algorithm", "process_records", map[string]any{"input_path": "x.json", "algorithm": "quick"}, "invalid algorithm"},
		{"process_records negative workers", "process_records", map[string]any{"input_path": "x.json", "workers": -2.0}, "workers must be greater than 0"},
		{"summarize_peaks limit too large", "summarize_peaks", map[string]any{"input_path": "x.json", "limit": 5000.0}, "limit must be greater than 0"},
		{"compare_algorithms missing input_path", "compare_algorithms", map[string]any{}, "input_path is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callTool(t, tt.tool, tt.args)
			assert.True(t, res.IsError, "The response should indicate an error state")
			assert.Contains(t, resultText(res), tt.wantErr)
		})
	}
}

func TestMCPServerHandlers_MissingFile(t *testing.T) {
	res := callTool(t, "process_records", map[string]any{"input_path": filepath.Join(t.TempDir(), "missing.json")})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(res), "processing failed")
}

func TestMCPServerHandlers_ProcessRecords(t *testing.T) {
	res := callTool(t, "process_records", map[string]any{"input_path": writeRecords(t), "algorithm": "bubble", "workers": 2.0})
	require.False(t, res.IsError, resultText(res))

	var decoded struct {
		Data []struct {
			Date string           `json:"date"`
			Data []map[string]any `json:"data"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &decoded))
	require.Len(t, decoded.Data, 2)
	assert.Equal(t, "2020-01", decoded.Data[0].Date)
	assert.Equal(t, "Spain", decoded.Data[0].Data[0]["Location"].(map[string]any)["Country"])
}

func TestMCPServerHandlers_SummarizePeaks(t *testing.T) {
	res := callTool(t, "summarize_peaks", map[string]any{"input_path": writeRecords(t), "limit": 1.0})
	require.False(t, res.IsError, resultText(res))

	var summaries []schema.MonthSummary
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &summaries))
	require.Len(t, summaries, 2)
	assert.Equal(t, []schema.CountryPeak{{Country: "Spain", Value: "9", Date: "2020-1-4"}}, summaries[0].Peaks)
}

func TestMCPServerHandlers_CompareAlgorithms(t *testing.T) {
	res := callTool(t, "compare_algorithms", map[string]any{"input_path": writeRecords(t)})
	require.False(t, res.IsError, resultText(res))

	var comparison schema.ComparisonResult
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &comparison))
	assert.True(t, comparison.Equivalent)
	require.Len(t, comparison.Runs, 2)
	assert.Equal(t, schema.BubbleSort, comparison.Runs[0].Algorithm)
}
