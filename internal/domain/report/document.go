package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/evidence"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
)

// Document is the self-contained JSON form of a build input, used by the
// CLI and the MCP tool to build a report without a running service.
type Document struct {
	Subject     model.Subject                 `json:"subject"`
	Evidence    []model.EvidenceItem          `json:"evidence"`
	Quotes      []model.Quote                 `json:"quotes,omitempty"`
	Perceptions map[model.DimensionID]float64 `json:"perceptions,omitempty"`
	Benchmark   *model.Distribution           `json:"benchmark,omitempty"`
}

// DecodeDocument reads one Document from r. Unknown fields are rejected.
func DecodeDocument(r io.Reader) (Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("%w: decode document: %w", model.ErrInvalidEvidence, err)
	}
	return doc, nil
}

// Input validates the document and converts it into a builder input.
// Duplicate evidence is dropped.
func (d Document) Input() (Input, error) {
	if d.Subject.ID == "" {
		return Input{}, fmt.Errorf("%w: document without subject id", model.ErrInvalidEvidence)
	}
	if d.Subject.Kind == "" {
		d.Subject.Kind = model.SubjectOrganization
	}
	set, err := evidence.FromItems(d.Evidence)
	if err != nil {
		return Input{}, err
	}
	return Input{
		Subject:   d.Subject,
		Evidence:  set,
		Perceived: d.Perceptions,
		Quotes:    d.Quotes,
		Benchmark: d.Benchmark,
	}, nil
}

// BuildDocument validates doc and builds its report.
func (b *Builder) BuildDocument(ctx context.Context, doc Document) (*model.Report, error) {
	in, err := doc.Input()
	if err != nil {
		return nil, err
	}
	return b.Build(ctx, in)
}
