package model

import (
	"time"
)

// DimensionScore is the scored result for one dimension.
type DimensionScore struct {
	Dimension             DimensionID `json:"dimension"`
	Name                  string      `json:"name"`
	Score                 float64     `json:"score"`
	Weight                float64     `json:"weight"`
	WeightedScore         float64     `json:"weightedScore"`
	Confidence            float64     `json:"confidence"`
	EvidenceCount         int         `json:"evidenceCount"`
	Gaps                  []string    `json:"gaps"`
	NextSteps             []string    `json:"nextSteps"`
	SupportingEvidence    []string    `json:"supportingEvidence"`
	ContradictingEvidence []string    `json:"contradictingEvidence"`
}

// LevelID is the ordinal of a maturity level.
type LevelID int

// MaturityLevel is one band of the maturity table.
type MaturityLevel struct {
	Level           LevelID  `json:"level" koanf:"level"`
	Name            string   `json:"name" koanf:"name"`
	MinScore        float64  `json:"minScore" koanf:"min_score"`
	MaxScore        float64  `json:"maxScore" koanf:"max_score"`
	Description     string   `json:"description" koanf:"description"`
	Characteristics []string `json:"characteristics" koanf:"characteristics"`
}

// Priority ranks a gap by magnitude.
type Priority string

// Priorities.
const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// GapRecord is the perception-versus-evidence discrepancy for one dimension.
type GapRecord struct {
	Dimension             DimensionID `json:"dimension"`
	PerceivedScore        float64     `json:"perceivedScore"`
	EvidenceScore         float64     `json:"evidenceScore"`
	Gap                   float64     `json:"gap"`
	Priority              Priority    `json:"priority"`
	SupportingEvidence    []string    `json:"supportingEvidence"`
	ContradictingEvidence []string    `json:"contradictingEvidence"`
}

// GapAnalysis is the output of the gap analyzer.
type GapAnalysis struct {
	Records               []GapRecord    `json:"records"`
	AggregateScore        float64        `json:"aggregateScore"`
	CurrentLevel          MaturityLevel  `json:"currentLevel"`
	NextLevel             *MaturityLevel `json:"nextLevel"`
	PointsToNextLevel     float64        `json:"pointsToNextLevel"`
	PercentageToNextLevel float64        `json:"percentageToNextLevel"`
	HighCount             int            `json:"highCount"`
	MediumCount           int            `json:"mediumCount"`
	LowCount              int            `json:"lowCount"`
}

// PercentileAnchor is one point of a benchmark percentile table.
type PercentileAnchor struct {
	Percentile float64 `json:"percentile" koanf:"percentile"`
	Score      float64 `json:"score" koanf:"score"`
}

// Distribution is an externally supplied industry benchmark.
type Distribution struct {
	Industry    string             `json:"industry" koanf:"industry"`
	SizeBand    string             `json:"sizeBand" koanf:"size_band"`
	Mean        *float64           `json:"mean,omitempty" koanf:"mean"`
	Percentiles []PercentileAnchor `json:"percentiles" koanf:"percentiles"`
}

// MeanOf returns v as a declared Distribution.Mean.
func MeanOf(v float64) *float64 { return &v }

// PeerComparison positions an aggregate score against a distribution.
type PeerComparison struct {
	IndustryAverage float64 `json:"industryAverage"`
	Percentile      float64 `json:"percentile"`
	Rank            string  `json:"rank"`
}

// Theme is a recurring qualitative pattern across interviewees.
type Theme struct {
	Name           string   `json:"name"`
	Frequency      int      `json:"frequency"`
	Sentiment      float64  `json:"sentiment"`
	Quotes         []string `json:"quotes"`
	IntervieweeIDs []string `json:"intervieweeIds"`
}

// Horizon is the time bucket of a recommendation.
type Horizon string

// Horizons.
const (
	HorizonImmediate Horizon = "immediate"
	HorizonShortTerm Horizon = "shortTerm"
	HorizonLongTerm  Horizon = "longTerm"
)

// RecommendationSource records which rule produced a recommendation.
type RecommendationSource string

// Recommendation sources.
const (
	SourceGap      RecommendationSource = "gap"
	SourceTheme    RecommendationSource = "theme"
	SourcePlaybook RecommendationSource = "playbook"
)

// Recommendation is one deterministic action item.
type Recommendation struct {
	Text             string               `json:"text"`
	Horizon          Horizon              `json:"horizon"`
	RelatedDimension *DimensionID         `json:"relatedDimension,omitempty"`
	RelatedTheme     string               `json:"relatedTheme,omitempty"`
	Priority         Priority             `json:"priority"`
	Source           RecommendationSource `json:"source"`
}

// Recommendations groups action items by horizon.
type Recommendations struct {
	Immediate []Recommendation `json:"immediate"`
	ShortTerm []Recommendation `json:"shortTerm"`
	LongTerm  []Recommendation `json:"longTerm"`
}

// All returns every recommendation, immediate first.
func (r Recommendations) All() []Recommendation {
	out := make([]Recommendation, 0, len(r.Immediate)+len(r.ShortTerm)+len(r.LongTerm))
	out = append(out, r.Immediate...)
	out = append(out, r.ShortTerm...)
	return append(out, r.LongTerm...)
}

// Count returns the number of recommendations, optionally excluding one source.
func (r Recommendations) Count(exclude ...RecommendationSource) int {
	n := 0
	for _, rec := range r.All() {
		skip := false
		for _, s := range exclude {
			if rec.Source == s {
				skip = true
				break
			}
		}
		if !skip {
			n++
		}
	}
	return n
}

// Report is the immutable result of one assessment of one subject.
type Report struct {
	ID                string           `json:"id"`
	Subject           Subject          `json:"subject"`
	DimensionSet      DimensionSet     `json:"dimensionSet"`
	OverallScore      float64          `json:"overallScore"`
	OverallPercentage float64          `json:"overallPercentage"`
	MaturityLevel     MaturityLevel    `json:"maturityLevel"`
	NextLevel         *MaturityLevel   `json:"nextLevel"`
	Dimensions        []DimensionScore `json:"dimensions"`
	GapAnalysis       GapAnalysis      `json:"gapAnalysis"`
	PeerComparison    *PeerComparison  `json:"peerComparison"`
	Themes            []Theme          `json:"themes"`
	Recommendations   Recommendations  `json:"recommendations"`
	Warnings          []Warning        `json:"warnings"`
	CompletedAt       time.Time        `json:"completedAt"`
}
