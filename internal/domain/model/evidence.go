package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
)

// Polarity states whether an evidence item raises or lowers a dimension score.
type Polarity uint8

// Polarities.
const (
	PolarityUnknown Polarity = iota
	PolaritySupporting
	PolarityContradicting
)

func (p Polarity) String() string {
	switch p {
	case PolaritySupporting:
		return "supporting"
	case PolarityContradicting:
		return "contradicting"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Polarity) MarshalText() ([]byte, error) {
	if p != PolaritySupporting && p != PolarityContradicting {
		return nil, fmt.Errorf("%w: polarity %d", ErrInvalidEvidence, uint8(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Polarity) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "supporting":
		*p = PolaritySupporting
	case "contradicting":
		*p = PolarityContradicting
	default:
		return fmt.Errorf("%w: unknown polarity %q", ErrInvalidEvidence, string(b))
	}
	return nil
}

// EvidenceItem is one atomic fact supporting or contradicting a dimension.
type EvidenceItem struct {
	Dimension DimensionID `json:"dimension"`
	Statement string      `json:"statement"`
	Polarity  Polarity    `json:"polarity"`
	SourceID  string      `json:"sourceId"`
	Weight    float64     `json:"weight"`
}

// Validate checks the intake constraints of an evidence item.
func (e EvidenceItem) Validate() error {
	switch {
	case !e.Dimension.Valid():
		return fmt.Errorf("%w: unknown dimension", ErrInvalidEvidence)
	case strings.TrimSpace(e.Statement) == "":
		return fmt.Errorf("%w: empty statement", ErrInvalidEvidence)
	case e.Polarity != PolaritySupporting && e.Polarity != PolarityContradicting:
		return fmt.Errorf("%w: unknown polarity", ErrInvalidEvidence)
	case math.IsNaN(e.Weight) || e.Weight < 0 || e.Weight > 1:
		return fmt.Errorf("%w: weight %v outside [0,1]", ErrInvalidEvidence, e.Weight)
	}
	return nil
}

// Identity returns the de-duplication key (dimension, sourceId, statement hash).
func (e EvidenceItem) Identity() string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(e.Statement)))
	return e.Dimension.String() + "|" + e.SourceID + "|" + hex.EncodeToString(sum[:])
}

// Quote is one interview statement already tagged with a candidate theme
// by upstream extraction.
type Quote struct {
	Quote         string  `json:"quote"`
	Sentiment     float64 `json:"sentiment"`
	Theme         string  `json:"theme"`
	IntervieweeID string  `json:"intervieweeId"`
}

// SubjectKind distinguishes organizations from individuals.
type SubjectKind string

// Subject kinds.
const (
	SubjectOrganization SubjectKind = "organization"
	SubjectIndividual   SubjectKind = "individual"
)

// Subject identifies who an assessment is about.
type Subject struct {
	ID       string      `json:"id"`
	Name     string      `json:"name,omitempty"`
	Kind     SubjectKind `json:"kind"`
	Industry string      `json:"industry,omitempty"`
	SizeBand string      `json:"sizeBand,omitempty"`
}
