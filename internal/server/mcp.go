package server

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wethinkt/go-colorgorical/internal/applog"
	"github.com/wethinkt/go-colorgorical/internal/hue"
	"github.com/wethinkt/go-colorgorical/internal/jnd"
	"github.com/wethinkt/go-colorgorical/internal/palette"
	"github.com/wethinkt/go-colorgorical/internal/scoring"
	"github.com/wethinkt/go-colorgorical/internal/version"
)

// MCPServer exposes the palette service as MCP tools.
type MCPServer struct {
	server     *mcp.Server
	service    *Service
	allowTools map[string]bool
	denyTools  map[string]bool
}

// NewMCPServer creates an MCP server with every tool registered.
func NewMCPServer(svc *Service) *MCPServer {
	return NewMCPServerWithFilters(svc, nil, nil)
}

// NewMCPServerWithFilters registers only the tools passing the allow and
// deny lists. An empty allow list allows every tool.
func NewMCPServerWithFilters(svc *Service, allow, deny []string) *MCPServer {
	ms := &MCPServer{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "colorgorical",
			Version: version.Get(),
		}, nil),
		service: svc,
	}
	if len(allow) > 0 {
		ms.allowTools = make(map[string]bool)
		for _, t := range allow {
			ms.allowTools[strings.TrimSpace(t)] = true
		}
	}
	if len(deny) > 0 {
		ms.denyTools = make(map[string]bool)
		for _, t := range deny {
			ms.denyTools[strings.TrimSpace(t)] = true
		}
	}
	ms.registerTools()
	return ms
}

// isToolAllowed checks if a tool should be registered.
func (ms *MCPServer) isToolAllowed(name string) bool {
	if ms.denyTools != nil && ms.denyTools[name] {
		return false
	}
	if ms.allowTools != nil && !ms.allowTools[name] {
		return false
	}
	return true
}

// registerTools adds the allowed tools to the MCP server.
func (ms *MCPServer) registerTools() {
	var registered []string

	if ms.isToolAllowed("make_palette") {
		mcp.AddTool(ms.server, &mcp.Tool{
			Name:        "make_palette",
			Description: "Build a categorical color palette. Weights (ciede2000, nameDifference, nameUniqueness, pairPreference) must all be given when set; hueFilters are [low, high] degree pairs; colors are CIE Lab triples.",
		}, ms.handleMakePalette)
		registered = append(registered, "make_palette")
	}

	if ms.isToolAllowed("score_palette") {
		mcp.AddTool(ms.server, &mcp.Tool{
			Name:        "score_palette",
			Description: "Score a palette of CIE Lab triples: perceptual distance, name difference, name uniqueness and pair preference of every pair.",
		}, ms.handleScorePalette)
		registered = append(registered, "score_palette")
	}

	if ms.isToolAllowed("convert_color") {
		mcp.AddTool(ms.server, &mcp.Tool{
			Name:        "convert_color",
			Description: "Convert one color, given as a Lab triple, an RGB triple or a hex string, between CIE Lab and sRGB.",
		}, ms.handleConvertColor)
		registered = append(registered, "convert_color")
	}

	if ms.isToolAllowed("normalize_hues") {
		mcp.AddTool(ms.server, &mcp.Tool{
			Name:        "normalize_hues",
			Description: "Merge, wrap and sort hue ranges given as [low, high] degree pairs. An empty result means hue is unrestricted.",
		}, ms.handleNormalizeHues)
		registered = append(registered, "normalize_hues")
	}

	applog.Log.Info("MCP tools registered", "tools", registered)
}

// toolErrorOutput is the JSON body of a failed tool call.
type toolErrorOutput struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// toolError reports err to the client as a tool result rather than a
// protocol error.
func toolError(err error) *mcp.CallToolResult {
	code := "internal_error"
	switch {
	case errors.Is(err, palette.ErrInvalidInput), errors.Is(err, hue.ErrMalformedRange), errors.Is(err, jnd.ErrInvalidMarkSize):
		code = "invalid_input"
	case errors.Is(err, scoring.ErrUnavailable), errors.Is(err, scoring.ErrMalformedOutput):
		code = "scoring_unavailable"
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: formatJSON(toolErrorOutput{Code: code, Message: err.Error()})}},
	}
}

func (ms *MCPServer) handleMakePalette(ctx context.Context, req *mcp.CallToolRequest, input MakeRequest) (*mcp.CallToolResult, any, error) {
	out, err := ms.service.Make(ctx, input)
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: formatJSON(out)}},
	}, out, nil
}

func (ms *MCPServer) handleScorePalette(ctx context.Context, req *mcp.CallToolRequest, input ScoreRequest) (*mcp.CallToolResult, any, error) {
	out, err := ms.service.Score(ctx, input)
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: formatJSON(out)}},
	}, out, nil
}

func (ms *MCPServer) handleConvertColor(ctx context.Context, req *mcp.CallToolRequest, input ConvertRequest) (*mcp.CallToolResult, any, error) {
	out, err := ms.service.Convert(input)
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: formatJSON(out)}},
	}, out, nil
}

func (ms *MCPServer) handleNormalizeHues(ctx context.Context, req *mcp.CallToolRequest, input NormalizeRequest) (*mcp.CallToolResult, any, error) {
	out, err := ms.service.NormalizeHues(input)
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: formatJSON(out)}},
	}, out, nil
}

// RunStdio serves MCP over stdin/stdout until ctx ends.
func (ms *MCPServer) RunStdio(ctx context.Context) error {
	if applog.Log.Enabled() {
		return ms.server.Run(ctx, &mcp.LoggingTransport{Transport: &mcp.StdioTransport{}, Writer: applog.Log.Writer()})
	}
	return ms.server.Run(ctx, &mcp.StdioTransport{})
}

// Server returns the underlying MCP server.
func (ms *MCPServer) Server() *mcp.Server { return ms.server }

func formatJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
