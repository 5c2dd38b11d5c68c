package criteria

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/procurelens/procurelens/internal/llm"
	"github.com/procurelens/procurelens/internal/schemafix"
)

// RecommendationEnhancer implements gapscan.Enhancer: it asks the model
// to polish the heuristic recommendation text for one category. Any
// failure declines the enhancement so the deterministic text stands.
type RecommendationEnhancer struct {
	completer schemafix.Completer
}

func NewRecommendationEnhancer(completer schemafix.Completer) *RecommendationEnhancer {
	return &RecommendationEnhancer{completer: completer}
}

func (e *RecommendationEnhancer) ImproveRecommendations(ctx context.Context, category string, recommendations []string) ([]string, bool) {
	if e == nil || e.completer == nil || len(recommendations) == 0 {
		return nil, false
	}
	prompt := fmt.Sprintf(
		"Rewrite these %s recommendations for a tender author so each is specific and actionable. "+
			"Keep one recommendation per input item. Respond with only a JSON array of strings.\n\n- %s",
		category, strings.Join(recommendations, "\n- "),
	)
	raw, ok := e.completer.Complete(ctx, prompt, 2)
	if !ok {
		return nil, false
	}

	var improved []string
	if err := json.Unmarshal([]byte(llm.ExtractJSON(raw)), &improved); err != nil {
		return nil, false
	}
	var out []string
	for _, r := range improved {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}
