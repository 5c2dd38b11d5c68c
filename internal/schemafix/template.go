// Package schemafix forces arbitrary generative output into a fixed,
// contractually guaranteed JSON shape: template-constrained deep merge,
// sentinel normalization, and a bounded repair loop against the LLM.
package schemafix

// NotSpecified is the sentinel written into any leaf the extraction
// could not determine.
const NotSpecified = "Not specified"

// CriteriaTemplate is the authoritative shape for the evaluation-criteria
// extraction endpoint. Every leaf is a sentinel string, 0, or an empty or
// single-example array; enforcement guarantees the output carries exactly
// this key set at every nesting level.
func CriteriaTemplate() map[string]any {
	return map[string]any{
		"tender_title":        NotSpecified,
		"issuing_department":  NotSpecified,
		"submission_deadline": NotSpecified,
		"evaluation_method":   NotSpecified,
		"technical_weight":    float64(0),
		"financial_weight":    float64(0),
		"technical_subsections": map[string]any{
			"methodology":       float64(0),
			"team_experience":   float64(0),
			"timeline":          float64(0),
			"quality_assurance": float64(0),
			"local_content":     float64(0),
		},
		"evaluation_weighting": []any{
			map[string]any{
				"criterion": NotSpecified,
				"weight":    float64(0),
			},
		},
		"mandatory_requirements":      []any{},
		"disqualification_conditions": []any{},
		"notes":                       NotSpecified,
	}
}
