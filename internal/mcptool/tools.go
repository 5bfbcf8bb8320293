// Package mcptool exposes the report builder as MCP tools.
//
// Each tool follows the same shape:
// - a struct holding its dependencies, injected by constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the call and returns a result
package mcptool

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/report"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/render"
)

// ServerName identifies the MCP server to clients.
const ServerName = "maturity-assessment"

// NewServer creates an MCP server with every assessment tool registered.
func NewServer(b *report.Builder, version string) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	build := NewBuildTool(b)
	s.AddTool(build.Definition(), build.Handle)

	dims := NewDimensionsTool(b)
	s.AddTool(dims.Definition(), dims.Handle)

	return s
}

// BuildTool handles the build_assessment MCP tool.
type BuildTool struct {
	builder *report.Builder
}

// NewBuildTool creates a BuildTool over b.
func NewBuildTool(b *report.Builder) *BuildTool {
	return &BuildTool{builder: b}
}

// Definition returns the MCP tool definition for build_assessment.
func (t *BuildTool) Definition() mcp.Tool {
	return mcp.NewTool("build_assessment",
		mcp.WithDescription(
			"Build an AI maturity assessment report from a JSON document holding the subject, "+
				"evidence items, interview quotes, self-rated perceptions and an optional benchmark.",
		),
		mcp.WithString("document",
			mcp.Required(),
			mcp.Description("JSON build document: {subject, evidence, quotes, perceptions, benchmark}"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: json (default) or markdown"),
			mcp.Enum(string(render.FormatJSON), string(render.FormatMarkdown)),
		),
	)
}

// Handle processes the build_assessment tool call. Input problems are
// returned as tool errors so the model can correct them.
func (t *BuildTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := req.GetString("document", "")
	if strings.TrimSpace(raw) == "" {
		return mcp.NewToolResultError("document is required"), nil
	}
	format, err := render.ParseFormat(req.GetString("format", string(render.FormatJSON)))
	if err != nil || (format != render.FormatJSON && format != render.FormatMarkdown) {
		return mcp.NewToolResultError(fmt.Sprintf("unsupported format %q", req.GetString("format", ""))), nil
	}

	doc, err := report.DecodeDocument(strings.NewReader(raw))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rep, err := t.builder.BuildDocument(ctx, doc)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("build failed: %v", err)), nil
	}

	var buf bytes.Buffer
	if err := render.Render(&buf, rep, format); err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(buf.String()), nil
}

// DimensionsTool handles the list_dimensions MCP tool.
type DimensionsTool struct {
	builder *report.Builder
}

// NewDimensionsTool creates a DimensionsTool over b.
func NewDimensionsTool(b *report.Builder) *DimensionsTool {
	return &DimensionsTool{builder: b}
}

// Definition returns the MCP tool definition for list_dimensions.
func (t *DimensionsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_dimensions",
		mcp.WithDescription("List the dimension keys and configured weights used by build_assessment."),
	)
}

// Handle processes the list_dimensions tool call.
func (t *DimensionsTool) Handle(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	set := t.builder.DimensionSet()
	weights := t.builder.Weights()
	ids := make([]model.DimensionID, 0, len(weights))
	for d := range weights {
		ids = append(ids, d)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Dimension set %s\n\n", set)
	for _, d := range ids {
		fmt.Fprintf(&sb, "- `%s` %s (weight %.3f)\n", d, d.Name(), weights[d])
	}
	return mcp.NewToolResultText(sb.String()), nil
}
