package maturity

import "github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"

// Level identifiers of the default table.
const (
	LevelUnaware model.LevelID = iota
	LevelAware
	LevelExploring
	LevelExperimenting
	LevelPiloting
	LevelScaling
	LevelIntegrating
	LevelOptimizing
	LevelTransforming
	LevelAINative
)

var defaultLevels = [...]model.MaturityLevel{
	{
		Level: LevelUnaware, Name: "Unaware", MinScore: 0, MaxScore: 10,
		Description:     "AI is not on the organizational agenda.",
		Characteristics: []string{"No AI initiatives", "No executive attention", "Ad-hoc personal tool use at most"},
	},
	{
		Level: LevelAware, Name: "Aware", MinScore: 11, MaxScore: 20,
		Description:     "Leadership recognizes AI as relevant but has not acted.",
		Characteristics: []string{"AI discussed in leadership forums", "No budget or owner", "Scattered individual curiosity"},
	},
	{
		Level: LevelExploring, Name: "Exploring", MinScore: 21, MaxScore: 30,
		Description:     "Teams investigate AI opportunities informally.",
		Characteristics: []string{"Use-case brainstorming", "Vendor conversations", "Early literacy sessions"},
	},
	{
		Level: LevelExperimenting, Name: "Experimenting", MinScore: 31, MaxScore: 40,
		Description:     "Isolated experiments run without shared standards.",
		Characteristics: []string{"Proofs of concept in single teams", "No shared tooling", "Results rarely measured"},
	},
	{
		Level: LevelPiloting, Name: "Piloting", MinScore: 41, MaxScore: 50,
		Description:     "Sponsored pilots with defined success criteria.",
		Characteristics: []string{"Named pilot owners", "Initial governance guidelines", "Measured pilot outcomes"},
	},
	{
		Level: LevelScaling, Name: "Scaling", MinScore: 51, MaxScore: 60,
		Description:     "Proven pilots are expanded across functions.",
		Characteristics: []string{"Repeatable delivery playbooks", "Central enablement team", "Budget tied to outcomes"},
	},
	{
		Level: LevelIntegrating, Name: "Integrating", MinScore: 61, MaxScore: 70,
		Description:     "AI is embedded in core processes and systems.",
		Characteristics: []string{"AI in production workflows", "Platform and data foundations", "Formal risk controls"},
	},
	{
		Level: LevelOptimizing, Name: "Optimizing", MinScore: 71, MaxScore: 80,
		Description:     "AI performance is continuously measured and improved.",
		Characteristics: []string{"Portfolio-level value tracking", "Model lifecycle management", "Broad workforce fluency"},
	},
	{
		Level: LevelTransforming, Name: "Transforming", MinScore: 81, MaxScore: 90,
		Description:     "AI reshapes the operating and business model.",
		Characteristics: []string{"New AI-enabled offerings", "Redesigned roles and processes", "Culture of rapid experimentation"},
	},
	{
		Level: LevelAINative, Name: "AI-Native", MinScore: 91, MaxScore: 100,
		Description:     "AI is a default capability of how the organization works.",
		Characteristics: []string{"Decisions routinely AI-assisted", "Continuous capability renewal", "Industry reference for AI practice"},
	},
}

// DefaultLevels returns a copy of the built-in ten-band table.
func DefaultLevels() []model.MaturityLevel {
	return cloneLevels(defaultLevels[:])
}

func cloneLevels(levels []model.MaturityLevel) []model.MaturityLevel {
	out := make([]model.MaturityLevel, len(levels))
	for i, l := range levels {
		out[i] = cloneLevel(l)
	}
	return out
}

func cloneLevel(l model.MaturityLevel) model.MaturityLevel {
	l.Characteristics = append([]string(nil), l.Characteristics...)
	return l
}
