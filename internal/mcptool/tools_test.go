package mcptool

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/report"
)

func newBuilder(t *testing.T) *report.Builder {
	t.Helper()
	b, err := report.NewBuilder(report.WithClock(func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	}))
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	return b
}

func makeReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(r *mcp.CallToolResult) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

const doc = `{
  "subject": {"id": "acme", "name": "Acme"},
  "evidence": [
    {"dimension": "leadership", "statement": "CEO sponsors AI", "polarity": "supporting", "sourceId": "int-1", "weight": 0.4}
  ],
  "perceptions": {"leadership": 9}
}`

func TestBuildTool_Definition(t *testing.T) {
	def := NewBuildTool(newBuilder(t)).Definition()
	if def.Name != "build_assessment" {
		t.Errorf("tool name = %q, want build_assessment", def.Name)
	}
	if _, ok := def.InputSchema.Properties["document"]; !ok {
		t.Error("missing 'document' parameter")
	}
	found := false
	for _, r := range def.InputSchema.Required {
		if r == "document" {
			found = true
		}
	}
	if !found {
		t.Error("'document' should be required")
	}
}

func TestBuildTool_JSON(t *testing.T) {
	tool := NewBuildTool(newBuilder(t))
	res, err := tool.Handle(context.Background(), makeReq(map[string]any{"document": doc}))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(res))
	}

	var rep model.Report
	if err := json.Unmarshal([]byte(resultText(res)), &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if rep.Subject.ID != "acme" {
		t.Errorf("subject = %q, want acme", rep.Subject.ID)
	}
	if len(rep.GapAnalysis.Records) != 1 || rep.GapAnalysis.Records[0].Priority != model.PriorityHigh {
		t.Errorf("gap records = %+v, want one high-priority record", rep.GapAnalysis.Records)
	}
}

func TestBuildTool_Markdown(t *testing.T) {
	tool := NewBuildTool(newBuilder(t))
	res, err := tool.Handle(context.Background(), makeReq(map[string]any{"document": doc, "format": "markdown"}))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !strings.Contains(resultText(res), "# AI Maturity Assessment: Acme") {
		t.Errorf("markdown output missing title:\n%s", resultText(res))
	}
}

func TestBuildTool_Errors(t *testing.T) {
	tool := NewBuildTool(newBuilder(t))
	cases := map[string]map[string]any{
		"missing document": {},
		"invalid json":     {"document": "{"},
		"bad format":       {"document": doc, "format": "xlsx"},
		"bad perception":   {"document": strings.Replace(doc, `"leadership": 9`, `"leadership": 14`, 1)},
	}
	for name, args := range cases {
		res, err := tool.Handle(context.Background(), makeReq(args))
		if err != nil {
			t.Fatalf("%s: handle returned error: %v", name, err)
		}
		if !res.IsError {
			t.Errorf("%s: expected tool error, got %s", name, resultText(res))
		}
	}
}

func TestDimensionsTool(t *testing.T) {
	res, err := NewDimensionsTool(newBuilder(t)).Handle(context.Background(), makeReq(nil))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	text := resultText(res)
	for _, key := range []string{"individual", "leadership", "cultural", "embedding", "velocity"} {
		if !strings.Contains(text, "`"+key+"`") {
			t.Errorf("missing dimension %q in:\n%s", key, text)
		}
	}
}

func TestDimensionsTool_ConfiguredWeights(t *testing.T) {
	b, err := report.NewBuilder(report.WithWeights(map[model.DimensionID]float64{
		model.DimensionIndividual: 0.4,
		model.DimensionLeadership: 0.3,
		model.DimensionCultural:   0.1,
		model.DimensionEmbedding:  0.1,
		model.DimensionVelocity:   0.1,
	}))
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	res, err := NewDimensionsTool(b).Handle(context.Background(), makeReq(nil))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	text := resultText(res)
	for _, want := range []string{"`individual` " + model.DimensionIndividual.Name() + " (weight 0.400)", "(weight 0.300)"} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}
	if strings.Contains(text, "(weight 0.200)") {
		t.Errorf("default weights listed instead of configured ones:\n%s", text)
	}
}

func TestNewServer(t *testing.T) {
	if s := NewServer(newBuilder(t), "test"); s == nil {
		t.Fatal("NewServer returned nil")
	}
}
