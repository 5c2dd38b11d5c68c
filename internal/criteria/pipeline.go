// Package criteria holds the generative endpoints: evaluation-criteria
// extraction into the fixed schema, query/topic grouping, and the
// optional recommendation enhancer used by the gap analysis.
package criteria

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/procurelens/procurelens/internal/llm"
	"github.com/procurelens/procurelens/internal/schemafix"
)

// maxDocumentChars bounds the document text embedded in a prompt.
const maxDocumentChars = 60000

var ErrUnavailable = errors.New("generative extraction is unavailable")

type Pipeline struct {
	completer schemafix.Completer
	enforcer  *schemafix.Enforcer
}

func NewPipeline(completer schemafix.Completer) *Pipeline {
	return &Pipeline{
		completer: completer,
		enforcer:  schemafix.NewEnforcer(completer, llm.ExtractJSON),
	}
}

// ExtractCriteria maps the document's evaluation criteria into the fixed
// schema. Unlike the gap analysis, this endpoint contractually requires a
// validated shape: an unavailable gateway or an exhausted repair loop is
// a hard failure, not a degradation.
func (p *Pipeline) ExtractCriteria(ctx context.Context, text string) (map[string]any, error) {
	if p.completer == nil {
		return nil, ErrUnavailable
	}
	if len(text) > maxDocumentChars {
		text = text[:maxDocumentChars]
	}

	raw, ok := p.completer.Complete(ctx, extractionPrompt(text), 3)
	if !ok {
		return nil, ErrUnavailable
	}
	if err := checkExtractionContract(raw); err != nil {
		return nil, err
	}

	enforced, err := p.enforcer.Enforce(ctx, raw, schemafix.CriteriaTemplate())
	if err != nil {
		return nil, fmt.Errorf("criteria extraction: %w", err)
	}
	return schemafix.ApplyCriteriaDefaults(enforced), nil
}

func extractionPrompt(text string) string {
	tmplJSON, err := json.MarshalIndent(schemafix.CriteriaTemplate(), "", "  ")
	if err != nil {
		tmplJSON = []byte("{}")
	}
	return fmt.Sprintf(
		"Extract the evaluation criteria from this tender document into the following exact JSON schema. "+
			"Use %q for any string you cannot determine and 0 for unknown weights. "+
			"Weights are percentages.\n\nSchema:\n%s\n\nDocument:\n%s",
		schemafix.NotSpecified, tmplJSON, text,
	)
}

// checkExtractionContract hard-fails on output that violates even the
// most basic expected shape: a parseable response whose
// evaluation_weighting entries are not objects indicates the backend
// broke the contract outright, which repair must not paper over.
func checkExtractionContract(raw string) error {
	payload := llm.ExtractJSON(raw)
	if payload == "" {
		return nil // unparseable output goes through the repair loop
	}
	var candidate map[string]any
	if json.Unmarshal([]byte(payload), &candidate) != nil {
		return nil
	}
	entries, ok := candidate["evaluation_weighting"].([]any)
	if !ok {
		return nil
	}
	for i, el := range entries {
		if _, ok := el.(map[string]any); !ok {
			return fmt.Errorf("generative backend violated the extraction contract: evaluation_weighting[%d] is not an object", i)
		}
	}
	return nil
}
