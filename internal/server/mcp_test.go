package server

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func newTestMCPServer(t *testing.T) *MCPServer {
	t.Helper()
	return NewMCPServer(newTestService(t))
}

// callToolMayError invokes an MCP tool through an in-memory client session.
// It returns nil if a transport-level error occurs (tool not found, etc.).
func callToolMayError(t *testing.T, ms *MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()

	ct, st := mcp.NewInMemoryTransports()
	if _, err := ms.server.Connect(ctx, st, nil); err != nil {
		t.Fatalf("server.Connect: %v", err)
	}

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	if err != nil {
		t.Fatalf("client.Connect: %v", err)
	}
	defer cs.Close()

	result, err := cs.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return nil
	}
	return result
}

// callTool is like callToolMayError but fails the test on transport errors.
func callTool(t *testing.T, ms *MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	result := callToolMayError(t, ms, name, args)
	if result == nil {
		t.Fatalf("CallTool(%s) failed", name)
	}
	return result
}

// parseToolResult extracts the JSON text from a CallToolResult and unmarshals it into v.
func parseToolResult(t *testing.T, result *mcp.CallToolResult, v any) {
	t.Helper()
	if result.IsError {
		t.Fatalf("unexpected tool error: %+v", result.Content)
	}
	if len(result.Content) == 0 {
		t.Fatal("empty result content")
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	if err := json.Unmarshal([]byte(tc.Text), v); err != nil {
		t.Fatalf("unmarshal result: %v\nraw: %s", err, tc.Text)
	}
}

func parseToolError(t *testing.T, result *mcp.CallToolResult) toolErrorOutput {
	t.Helper()
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if !result.IsError {
		t.Fatal("expected IsError=true")
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	var out toolErrorOutput
	if err := json.Unmarshal([]byte(tc.Text), &out); err != nil {
		t.Fatalf("unmarshal error output: %v\nraw: %s", err, tc.Text)
	}
	return out
}

func TestMCP_MakePalette(t *testing.T) {
	ms := newTestMCPServer(t)
	result := callTool(t, ms, "make_palette", map[string]any{
		"paletteSize": 3,
		"weights":     map[string]any{"ciede2000": 1, "nameDifference": 0.5, "nameUniqueness": 0, "pairPreference": 1},
	})

	var out MakeResponse
	parseToolResult(t, result, &out)
	if out.PaletteSize != 3 || out.AchievedSize != len(out.Colors) || out.AchievedSize == 0 {
		t.Errorf("make_palette = %+v", out)
	}
	if out.Weights["nameDifference"] != 0.5 {
		t.Errorf("weights = %v", out.Weights)
	}
}

func TestMCP_MakePalette_InvalidInput(t *testing.T) {
	ms := newTestMCPServer(t)
	result := callTool(t, ms, "make_palette", map[string]any{
		"weights": map[string]any{"ciede2000": 1},
	})
	out := parseToolError(t, result)
	if out.Code != "invalid_input" {
		t.Errorf("code = %q, want invalid_input", out.Code)
	}
}

func TestMCP_ScorePalette(t *testing.T) {
	ms := newTestMCPServer(t)
	result := callTool(t, ms, "score_palette", map[string]any{
		"palette": [][]float64{{50, 0, 0}, {70, 40, 40}},
	})

	var out ScoreResponse
	parseToolResult(t, result, &out)
	if !out.Scorable || out.Name != "???" || len(out.NUScores) != 2 {
		t.Errorf("score_palette = %+v", out)
	}
	if out.MinScores == nil || out.MinScores.DE <= 0 {
		t.Errorf("minScores = %+v", out.MinScores)
	}
}

func TestMCP_ScorePalette_NotScorable(t *testing.T) {
	ms := newTestMCPServer(t)
	result := callTool(t, ms, "score_palette", map[string]any{
		"palette": [][]float64{{50, 0, 0}},
	})
	var out ScoreResponse
	parseToolResult(t, result, &out)
	if out.Scorable {
		t.Error("a single color should not be scorable")
	}
}

func TestMCP_ConvertColor(t *testing.T) {
	ms := newTestMCPServer(t)
	result := callTool(t, ms, "convert_color", map[string]any{"hex": "#777777"})

	var out ConvertResponse
	parseToolResult(t, result, &out)
	if out.RGB.R != 119 || out.Snapped.L != 50 || !out.InGamut {
		t.Errorf("convert_color = %+v", out)
	}

	errOut := parseToolError(t, callTool(t, ms, "convert_color", map[string]any{"hex": "nope"}))
	if errOut.Code != "invalid_input" {
		t.Errorf("code = %q, want invalid_input", errOut.Code)
	}
}

func TestMCP_NormalizeHues(t *testing.T) {
	ms := newTestMCPServer(t)
	result := callTool(t, ms, "normalize_hues", map[string]any{
		"ranges": [][]float64{{-20, 20}},
	})

	var out NormalizeResponse
	parseToolResult(t, result, &out)
	if len(out.Ranges) != 2 || out.Ranges[0][1] != 20 || out.Ranges[1][0] != 340 {
		t.Errorf("normalize_hues = %+v", out)
	}
}

func TestMCP_ToolFilter_AllowList(t *testing.T) {
	ms := NewMCPServerWithFilters(newTestService(t), []string{"convert_color"}, nil)

	result := callToolMayError(t, ms, "convert_color", map[string]any{"lab": []float64{50, 0, 0}})
	if result == nil || result.IsError {
		t.Error("convert_color should be allowed")
	}

	result = callToolMayError(t, ms, "normalize_hues", map[string]any{"ranges": [][]float64{}})
	if result != nil && !result.IsError {
		t.Error("normalize_hues should not be allowed when only convert_color is in allow list")
	}
}

func TestMCP_ToolFilter_DenyList(t *testing.T) {
	ms := NewMCPServerWithFilters(newTestService(t), nil, []string{"make_palette"})

	result := callToolMayError(t, ms, "normalize_hues", map[string]any{"ranges": [][]float64{}})
	if result == nil || result.IsError {
		t.Error("normalize_hues should be allowed")
	}

	result = callToolMayError(t, ms, "make_palette", nil)
	if result != nil && !result.IsError {
		t.Error("make_palette should be denied")
	}
}
