package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
)

// Sheet names of the XLSX export.
const (
	SheetSummary         = "Summary"
	SheetDimensions      = "Dimensions"
	SheetGaps            = "Gaps"
	SheetRecommendations = "Recommendations"
	SheetThemes          = "Themes"
)

// XLSX writes rep as a workbook with one sheet per report section.
func XLSX(w io.Writer, rep *model.Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("render xlsx: %w", err)
	}

	summary := [][]any{
		{"Field", "Value"},
		{"Report ID", rep.ID},
		{"Subject", rep.Subject.ID},
		{"Name", rep.Subject.Name},
		{"Industry", rep.Subject.Industry},
		{"Size band", rep.Subject.SizeBand},
		{"Dimension set", string(rep.DimensionSet)},
		{"Overall score", rep.OverallScore},
		{"Overall percentage", rep.OverallPercentage},
		{"Maturity level", rep.MaturityLevel.Name},
		{"Points to next level", rep.GapAnalysis.PointsToNextLevel},
		{"Completed at", rep.CompletedAt.UTC().Format("2006-01-02T15:04:05Z")},
	}
	if pc := rep.PeerComparison; pc != nil {
		summary = append(summary,
			[]any{"Industry average", pc.IndustryAverage},
			[]any{"Percentile", pc.Percentile},
			[]any{"Peer rank", pc.Rank},
		)
	}

	dims := [][]any{{"Dimension", "Score", "Weight", "Weighted", "Confidence", "Evidence", "Gaps", "Next steps"}}
	for _, d := range rep.Dimensions {
		dims = append(dims, []any{
			d.Name, d.Score, d.Weight, d.WeightedScore, d.Confidence, d.EvidenceCount,
			strings.Join(d.Gaps, "; "), strings.Join(d.NextSteps, "; "),
		})
	}

	gaps := [][]any{{"Dimension", "Perceived", "Evidence", "Gap", "Priority"}}
	for _, g := range rep.GapAnalysis.Records {
		gaps = append(gaps, []any{g.Dimension.Name(), g.PerceivedScore, g.EvidenceScore, g.Gap, string(g.Priority)})
	}

	recs := [][]any{{"Horizon", "Priority", "Source", "Recommendation", "Dimension", "Theme"}}
	for _, r := range rep.Recommendations.All() {
		dim := ""
		if r.RelatedDimension != nil {
			dim = r.RelatedDimension.Name()
		}
		recs = append(recs, []any{string(r.Horizon), string(r.Priority), string(r.Source), r.Text, dim, r.RelatedTheme})
	}

	themes := [][]any{{"Theme", "Frequency", "Sentiment", "Quotes"}}
	for _, t := range rep.Themes {
		themes = append(themes, []any{t.Name, t.Frequency, t.Sentiment, strings.Join(t.Quotes, " | ")})
	}

	sheets := []struct {
		name string
		rows [][]any
	}{
		{SheetSummary, summary},
		{SheetDimensions, dims},
		{SheetGaps, gaps},
		{SheetRecommendations, recs},
		{SheetThemes, themes},
	}
	for _, s := range sheets {
		if s.name != SheetSummary {
			if _, err := f.NewSheet(s.name); err != nil {
				return fmt.Errorf("render xlsx: %w", err)
			}
		}
		if err := writeRows(f, s.name, s.rows); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("render xlsx: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return fmt.Errorf("render xlsx: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("render xlsx %s: %w", sheet, err)
		}
	}
	return nil
}
