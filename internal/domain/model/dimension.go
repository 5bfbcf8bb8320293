// Package model contains the assessment domain types shared between the
// scoring core and the adapters that feed and expose it.
package model

import (
	"fmt"
	"sort"
	"strings"
)

// DimensionID identifies one axis of organizational AI maturity.
// The declaration order is the enum order used for deterministic tie-breaks.
type DimensionID uint8

// Dimensions of the core5 set.
const (
	DimensionUnknown DimensionID = iota
	DimensionIndividual
	DimensionLeadership
	DimensionCultural
	DimensionEmbedding
	DimensionVelocity

	// Dimensions of the category8 set.
	DimensionSkillsTalent
	DimensionAIUseCases
	DimensionStrategyAlignment
	DimensionProcessOptimization
	DimensionAIGovernance
	DimensionLeadershipVision
	DimensionCultureChange
	DimensionIntegrationCapability
)

// DimensionSet names a family of dimensions. One assessment run uses
// exactly one set.
type DimensionSet string

// Known dimension sets.
const (
	SetCore5     DimensionSet = "core5"
	SetCategory8 DimensionSet = "category8"
)

// DimensionInfo is the static catalog entry for a dimension.
type DimensionInfo struct {
	ID          DimensionID
	Key         string
	Name        string
	Set         DimensionSet
	Description string
	NextSteps   []string
}

var dimensionCatalog = [...]DimensionInfo{
	DimensionIndividual: {
		Key: "individual", Name: "Individual Readiness", Set: SetCore5,
		Description: "How prepared individual employees are to work with AI day to day.",
		NextSteps: []string{
			"Run role-based AI literacy sessions for every team",
			"Publish an approved-tools list with usage examples",
		},
	},
	DimensionLeadership: {
		Key: "leadership", Name: "Leadership Alignment", Set: SetCore5,
		Description: "Whether leaders share a concrete, funded view of AI's role.",
		NextSteps: []string{
			"Agree on three measurable AI outcomes at the executive level",
			"Assign an accountable owner for the AI portfolio",
		},
	},
	DimensionCultural: {
		Key: "cultural", Name: "Cultural Adoption", Set: SetCore5,
		Description: "How openly teams experiment with and talk about AI.",
		NextSteps: []string{
			"Create a recurring forum for sharing AI experiments",
			"Recognize teams that retire manual work with AI",
		},
	},
	DimensionEmbedding: {
		Key: "embedding", Name: "Process Embedding", Set: SetCore5,
		Description: "How deeply AI is built into core workflows rather than side projects.",
		NextSteps: []string{
			"Map the top five workflows where AI can remove hand-offs",
			"Move one pilot into a production workflow with an SLA",
		},
	},
	DimensionVelocity: {
		Key: "velocity", Name: "Change Velocity", Set: SetCore5,
		Description: "How quickly the organization turns AI ideas into shipped change.",
		NextSteps: []string{
			"Shorten the approval path for low-risk AI use cases",
			"Track idea-to-production lead time for AI initiatives",
		},
	},
	DimensionSkillsTalent: {
		Key: "skills_talent", Name: "Skills & Talent", Set: SetCategory8,
		Description: "Depth of AI skills and the pipeline to grow them.",
		NextSteps: []string{
			"Build a skills inventory covering data and AI roles",
			"Fund an internal AI upskilling track",
		},
	},
	DimensionAIUseCases: {
		Key: "ai_use_cases", Name: "AI Use Cases", Set: SetCategory8,
		Description: "Breadth and business value of identified AI use cases.",
		NextSteps: []string{
			"Score the use-case backlog on value and feasibility",
			"Retire use cases without a named business owner",
		},
	},
	DimensionStrategyAlignment: {
		Key: "strategy_alignment", Name: "Strategy Alignment", Set: SetCategory8,
		Description: "How well AI initiatives trace back to business strategy.",
		NextSteps: []string{
			"Link every funded AI initiative to a strategic objective",
			"Review AI investments in the quarterly planning cycle",
		},
	},
	DimensionProcessOptimization: {
		Key: "process_optimization", Name: "Process Optimization", Set: SetCategory8,
		Description: "Use of AI to measurably improve operational processes.",
		NextSteps: []string{
			"Baseline cycle time for processes targeted by AI",
			"Automate one high-volume manual step end to end",
		},
	},
	DimensionAIGovernance: {
		Key: "ai_governance", Name: "AI Governance", Set: SetCategory8,
		Description: "Policies, risk controls and accountability for AI systems.",
		NextSteps: []string{
			"Adopt an AI acceptable-use policy",
			"Stand up a lightweight model risk review",
		},
	},
	DimensionLeadershipVision: {
		Key: "leadership_vision", Name: "Leadership Vision", Set: SetCategory8,
		Description: "Clarity and consistency of leadership's AI narrative.",
		NextSteps: []string{
			"Publish a one-page AI vision for all staff",
			"Have each executive sponsor one AI initiative",
		},
	},
	DimensionCultureChange: {
		Key: "culture_change", Name: "Culture & Change", Set: SetCategory8,
		Description: "Readiness of the culture to absorb AI-driven change.",
		NextSteps: []string{
			"Train managers to lead AI-related role changes",
			"Survey sentiment about AI every quarter",
		},
	},
	DimensionIntegrationCapability: {
		Key: "integration_capability", Name: "Integration Capability", Set: SetCategory8,
		Description: "Technical ability to connect AI to data and systems of record.",
		NextSteps: []string{
			"Inventory data sources needed by priority use cases",
			"Provide a shared integration platform for AI services",
		},
	},
}

var dimensionsBySet = map[DimensionSet][]DimensionID{
	SetCore5: {
		DimensionIndividual, DimensionLeadership, DimensionCultural,
		DimensionEmbedding, DimensionVelocity,
	},
	SetCategory8: {
		DimensionSkillsTalent, DimensionAIUseCases, DimensionStrategyAlignment,
		DimensionProcessOptimization, DimensionAIGovernance, DimensionLeadershipVision,
		DimensionCultureChange, DimensionIntegrationCapability,
	},
}

var defaultWeights = map[DimensionSet]map[DimensionID]float64{
	SetCore5: {
		DimensionIndividual: 0.25,
		DimensionLeadership: 0.2,
		DimensionCultural:   0.2,
		DimensionEmbedding:  0.2,
		DimensionVelocity:   0.15,
	},
	SetCategory8: {
		DimensionSkillsTalent:          0.125,
		DimensionAIUseCases:            0.125,
		DimensionStrategyAlignment:     0.125,
		DimensionProcessOptimization:   0.125,
		DimensionAIGovernance:          0.125,
		DimensionLeadershipVision:      0.125,
		DimensionCultureChange:         0.125,
		DimensionIntegrationCapability: 0.125,
	},
}

// Valid reports whether d is a known dimension.
func (d DimensionID) Valid() bool {
	return d > DimensionUnknown && int(d) < len(dimensionCatalog)
}

// Info returns the catalog entry for d. Unknown dimensions return a zero
// DimensionInfo.
func (d DimensionID) Info() DimensionInfo {
	if !d.Valid() {
		return DimensionInfo{}
	}
	info := dimensionCatalog[d]
	info.ID = d
	info.NextSteps = append([]string(nil), info.NextSteps...)
	return info
}

// Name returns the human readable dimension name.
func (d DimensionID) Name() string {
	if !d.Valid() {
		return "Unknown"
	}
	return dimensionCatalog[d].Name
}

// Set returns the dimension family d belongs to.
func (d DimensionID) Set() DimensionSet {
	if !d.Valid() {
		return ""
	}
	return dimensionCatalog[d].Set
}

// String returns the wire key of d.
func (d DimensionID) String() string {
	if !d.Valid() {
		return "unknown"
	}
	return dimensionCatalog[d].Key
}

// MarshalText implements encoding.TextMarshaler.
func (d DimensionID) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: dimension %d", ErrUnknownDimension, uint8(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler and rejects unknown keys.
func (d *DimensionID) UnmarshalText(b []byte) error {
	parsed, err := ParseDimension(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDimension resolves a wire key (case-insensitive) to a DimensionID.
func ParseDimension(s string) (DimensionID, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i := range dimensionCatalog {
		id := DimensionID(i)
		if id.Valid() && dimensionCatalog[i].Key == key {
			return id, nil
		}
	}
	return DimensionUnknown, fmt.Errorf("%w: %q", ErrUnknownDimension, s)
}

// Valid reports whether s is a known dimension set.
func (s DimensionSet) Valid() bool {
	_, ok := dimensionsBySet[s]
	return ok
}

// Dimensions returns the dimensions of s in enum order.
func (s DimensionSet) Dimensions() []DimensionID {
	return append([]DimensionID(nil), dimensionsBySet[s]...)
}

// DefaultWeights returns a fresh copy of the default weights for s.
func (s DimensionSet) DefaultWeights() map[DimensionID]float64 {
	out := make(map[DimensionID]float64, len(defaultWeights[s]))
	for d, w := range defaultWeights[s] {
		out[d] = w
	}
	return out
}

// ParseDimensionSet resolves a dimension set name.
func ParseDimensionSet(s string) (DimensionSet, error) {
	set := DimensionSet(strings.ToLower(strings.TrimSpace(s)))
	if !set.Valid() {
		return "", fmt.Errorf("%w: unknown dimension set %q", ErrConfiguration, s)
	}
	return set, nil
}

// SortedDimensions returns the keys of m in enum order.
func SortedDimensions[V any](m map[DimensionID]V) []DimensionID {
	out := make([]DimensionID, 0, len(m))
	for d := range m {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseWeights converts string-keyed weights (as found in configuration)
// into a typed weight map.
func ParseWeights(raw map[string]float64) (map[DimensionID]float64, error) {
	out := make(map[DimensionID]float64, len(raw))
	for k, w := range raw {
		d, err := ParseDimension(k)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
		out[d] = w
	}
	return out, nil
}
