package render

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
)

// Markdown renders rep as a Markdown document.
func Markdown(rep *model.Report) string {
	var b strings.Builder

	title := rep.Subject.Name
	if title == "" {
		title = rep.Subject.ID
	}
	fmt.Fprintf(&b, "# AI Maturity Assessment: %s\n\n", escape(title))
	fmt.Fprintf(&b, "- **Report:** `%s`\n", rep.ID)
	fmt.Fprintf(&b, "- **Completed:** %s\n", rep.CompletedAt.UTC().Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "- **Dimension set:** %s\n", rep.DimensionSet)
	fmt.Fprintf(&b, "- **Overall score:** %.1f / 10 (%.1f%%)\n", rep.OverallScore, rep.OverallPercentage)
	fmt.Fprintf(&b, "- **Maturity level:** %d %s\n", rep.MaturityLevel.Level, escape(rep.MaturityLevel.Name))
	if rep.NextLevel != nil {
		fmt.Fprintf(&b, "- **Next level:** %s (%.1f points, %.0f%% of the band)\n",
			escape(rep.NextLevel.Name), rep.GapAnalysis.PointsToNextLevel, rep.GapAnalysis.PercentageToNextLevel)
	}
	if rep.MaturityLevel.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", rep.MaturityLevel.Description)
	}

	b.WriteString("\n## Dimensions\n\n")
	b.WriteString("| Dimension | Score | Weight | Weighted | Confidence | Evidence |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|\n")
	for _, d := range rep.Dimensions {
		fmt.Fprintf(&b, "| %s | %.1f | %.2f | %.2f | %.0f%% | %d |\n",
			escape(d.Name), d.Score, d.Weight, d.WeightedScore, d.Confidence*100, d.EvidenceCount)
	}

	if len(rep.GapAnalysis.Records) > 0 {
		b.WriteString("\n## Perception gaps\n\n")
		b.WriteString("| Dimension | Perceived | Evidence | Gap | Priority |\n")
		b.WriteString("|---|---:|---:|---:|---|\n")
		for _, g := range rep.GapAnalysis.Records {
			fmt.Fprintf(&b, "| %s | %.1f | %.1f | %.1f | %s |\n",
				escape(g.Dimension.Name()), g.PerceivedScore, g.EvidenceScore, g.Gap, g.Priority)
		}
	}

	if pc := rep.PeerComparison; pc != nil {
		b.WriteString("\n## Peer comparison\n\n")
		fmt.Fprintf(&b, "Industry average %.1f, percentile %.0f: **%s**.\n", pc.IndustryAverage, pc.Percentile, pc.Rank)
	}

	if len(rep.Themes) > 0 {
		b.WriteString("\n## Themes\n\n")
		for _, t := range rep.Themes {
			fmt.Fprintf(&b, "### %s\n\nMentioned by %d, sentiment %+.2f.\n\n", escape(t.Name), t.Frequency, t.Sentiment)
			for _, q := range t.Quotes {
				fmt.Fprintf(&b, "> %s\n\n", escape(q))
			}
		}
	}

	b.WriteString("\n## Recommendations\n")
	writeRecs(&b, "Immediate", rep.Recommendations.Immediate)
	writeRecs(&b, "Short term", rep.Recommendations.ShortTerm)
	writeRecs(&b, "Long term", rep.Recommendations.LongTerm)

	if len(rep.Warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, w := range rep.Warnings {
			fmt.Fprintf(&b, "- `%s` %s\n", w.Kind, escape(w.Message))
		}
	}
	return b.String()
}

func writeRecs(b *strings.Builder, heading string, recs []model.Recommendation) {
	if len(recs) == 0 {
		return
	}
	fmt.Fprintf(b, "\n### %s\n\n", heading)
	for _, r := range recs {
		fmt.Fprintf(b, "- **[%s]** %s\n", r.Priority, escape(r.Text))
	}
}

// escape neutralizes characters that would break table cells or inline HTML.
func escape(s string) string {
	r := strings.NewReplacer(
		"\\", "\\\\", "|", "\\|", "[", "\\[", "]", "\\]", "(", "\\(",
		"<", "&lt;", ">", "&gt;", "\n", " ",
	)
	return r.Replace(s)
}

// HTML renders rep as a standalone HTML page.
func HTML(rep *model.Report) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	r := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage | html.HrefTargetBlank | html.Safelink | html.SkipHTML,
		Title: "AI Maturity Assessment",
	})
	return markdown.ToHTML([]byte(Markdown(rep)), p, r)
}
