package recommend

import "github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"

// defaultPlaybooks holds level-specific long-term actions keyed by the
// level ids of the default maturity table.
var defaultPlaybooks = map[model.LevelID][]string{
	0: {
		"Nominate an executive sponsor accountable for AI adoption",
		"Run an AI awareness session for the leadership team",
	},
	1: {
		"Assign a budget owner for AI exploration",
		"Publish an acceptable-use policy for generative AI tools",
	},
	2: {
		"Build a ranked backlog of candidate AI use cases",
		"Launch a baseline AI literacy program for all staff",
	},
	3: {
		"Standardize experiment templates with success metrics",
		"Provide a shared, approved AI tooling sandbox",
	},
	4: {
		"Define go/no-go criteria for promoting pilots to production",
		"Stand up an AI governance working group",
	},
	5: {
		"Create a central enablement team to scale proven pilots",
		"Tie AI funding to measured business outcomes",
	},
	6: {
		"Invest in shared data and model platforms",
		"Embed AI risk controls into delivery processes",
	},
	7: {
		"Track AI value at portfolio level with quarterly reviews",
		"Introduce model lifecycle management and monitoring",
	},
	8: {
		"Redesign roles around human and AI collaboration",
		"Incubate AI-enabled products and services",
	},
	9: {
		"Share AI practices externally to attract talent and partners",
		"Continuously renew capabilities through structured horizon scanning",
	},
}

// DefaultPlaybooks returns a copy of the built-in playbook table.
func DefaultPlaybooks() map[model.LevelID][]string {
	out := make(map[model.LevelID][]string, len(defaultPlaybooks))
	for id, items := range defaultPlaybooks {
		out[id] = append([]string(nil), items...)
	}
	return out
}
