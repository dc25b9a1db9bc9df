package assess

import "github.com/abhisek/readlevel/internal/llm"

func probability(band string) map[string]any {
	return map[string]any{
		"type":        "number",
		"minimum":     0.0,
		"maximum":     1.0,
		"description": "Probability that the text is at CEFR " + band,
	}
}

// DistributionSchema asks the model for one probability per CEFR band.
var DistributionSchema = &llm.Schema{
	Name:        "cefr-distribution",
	Description: "Probability distribution of a text's reading level over the CEFR bands",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a1": probability("A1"),
			"a2": probability("A2"),
			"b1": probability("B1"),
			"b2": probability("B2"),
			"c1": probability("C1"),
			"c2": probability("C2"),
			"reasoning": map[string]any{
				"type":        "string",
				"description": "One sentence on the features that decided the level",
			},
		},
		"required":             []any{"a1", "a2", "b1", "b2", "c1", "c2", "reasoning"},
		"additionalProperties": false,
	},
}
