package schemafix

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Completer is the slice of the LLM gateway the repair loop needs.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxRetries int) (string, bool)
}

// JSONExtractor pulls a candidate JSON payload out of a raw model
// response; wired to llm.ExtractJSON in production.
type JSONExtractor func(raw string) string

// ValidationError is returned when the repair loop exhausts its attempts
// without producing a template-shaped result.
type ValidationError struct {
	Attempts   int
	Mismatches []string
}

func (e *ValidationError) Error() string {
	shown := e.Mismatches
	if len(shown) > 3 {
		shown = shown[:3]
	}
	return fmt.Sprintf("schema validation failed after %d attempts: %s", e.Attempts, strings.Join(shown, "; "))
}

// repairState tracks the enforcement state machine: a candidate is either
// parsed and valid, parsed but invalid, or unparseable; the latter two
// feed a repair prompt back to the model until attempts run out.
type repairState int

const (
	stateValid repairState = iota
	stateInvalid
	stateUnparseable
)

// Enforcer drives candidate JSON into the template shape, re-querying the
// model to repair output that cannot be coerced.
type Enforcer struct {
	completer   Completer
	extract     JSONExtractor
	maxAttempts int
}

// NewEnforcer builds an enforcer with the standard 3-attempt ceiling.
// completer may be nil; repair is then skipped and the first merge result
// must validate (it always does for parseable candidates).
func NewEnforcer(completer Completer, extract JSONExtractor) *Enforcer {
	return &Enforcer{completer: completer, extract: extract, maxAttempts: 3}
}

// Enforce coerces rawCandidate into the template shape. A parseable
// candidate is merged and normalized; an unparseable one triggers the
// repair loop. The returned map always carries exactly the template's key
// set at every level, or an error after the attempt ceiling.
func (e *Enforcer) Enforce(ctx context.Context, rawCandidate string, template map[string]any) (map[string]any, error) {
	raw := rawCandidate
	var lastMismatches []string

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		state, result, mismatches := e.attempt(raw, template)
		switch state {
		case stateValid:
			return result, nil
		case stateInvalid:
			lastMismatches = mismatches
		case stateUnparseable:
			lastMismatches = []string{"$: response is not parseable JSON"}
		}

		if e.completer == nil || attempt == e.maxAttempts {
			break
		}
		repaired, ok := e.completer.Complete(ctx, repairPrompt(raw, template), 2)
		if !ok {
			break
		}
		raw = repaired
	}

	return nil, &ValidationError{Attempts: e.maxAttempts, Mismatches: lastMismatches}
}

func (e *Enforcer) attempt(raw string, template map[string]any) (repairState, map[string]any, []string) {
	payload := raw
	if e.extract != nil {
		payload = e.extract(raw)
	}
	var candidate map[string]any
	if payload == "" || json.Unmarshal([]byte(payload), &candidate) != nil {
		return stateUnparseable, nil, nil
	}

	merged := Merge(candidate, template)
	normalized, _ := Normalize(merged).(map[string]any)
	if mismatches := Validate(normalized, template); len(mismatches) > 0 {
		return stateInvalid, nil, mismatches
	}
	return stateValid, normalized, nil
}

func repairPrompt(previous string, template map[string]any) string {
	tmplJSON, err := json.MarshalIndent(template, "", "  ")
	if err != nil {
		tmplJSON = []byte("{}")
	}
	if len(previous) > 6000 {
		previous = previous[:6000]
	}
	return fmt.Sprintf(
		"The following output does not conform to the required schema. "+
			"Rewrite it into valid JSON matching this exact schema — same keys, same nesting, no additions:\n\n%s\n\nPrevious output:\n%s\n\nRespond with only the corrected JSON.",
		tmplJSON, previous,
	)
}
