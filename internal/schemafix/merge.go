package schemafix

import (
	"fmt"
	"sort"
	"strings"
)

// Merge deep-merges candidate into the template's shape. For every key
// the template defines, the candidate's value is taken when present and
// type-compatible, otherwise the template's own sentinel value stands.
// Keys the candidate invents are dropped unconditionally. When a template
// slot is an array and the candidate slot is not, the template's array is
// kept.
func Merge(candidate, template map[string]any) map[string]any {
	out := make(map[string]any, len(template))
	for key, tmplVal := range template {
		candVal, present := candidate[key]
		if !present {
			out[key] = cloneValue(tmplVal)
			continue
		}
		out[key] = mergeValue(candVal, tmplVal)
	}
	return out
}

func mergeValue(cand, tmpl any) any {
	switch t := tmpl.(type) {
	case map[string]any:
		cm, ok := cand.(map[string]any)
		if !ok {
			return cloneValue(t)
		}
		return Merge(cm, t)
	case []any:
		ca, ok := cand.([]any)
		if !ok {
			return cloneValue(t)
		}
		// An array template with an example element constrains the
		// element shape; a bare empty array accepts anything.
		if len(t) > 0 {
			if elemTmpl, isObj := t[0].(map[string]any); isObj {
				merged := make([]any, 0, len(ca))
				for _, el := range ca {
					em, ok := el.(map[string]any)
					if !ok {
						continue
					}
					merged = append(merged, Merge(em, elemTmpl))
				}
				if len(merged) == 0 {
					return cloneValue(t)
				}
				return merged
			}
		}
		return cloneValue(ca)
	case string:
		if cs, ok := cand.(string); ok {
			return cs
		}
		return t
	case float64:
		if cf, ok := cand.(float64); ok {
			return cf
		}
		return t
	case bool:
		if cb, ok := cand.(bool); ok {
			return cb
		}
		return t
	default:
		return cloneValue(tmpl)
	}
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = cloneValue(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = cloneValue(vv)
		}
		return out
	default:
		return v
	}
}

// Normalize walks the structure replacing nil and whitespace-only string
// leaves with the sentinel, so no leaf is ever genuinely empty.
func Normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, vv := range t {
			t[k] = Normalize(vv)
		}
		return t
	case []any:
		for i, vv := range t {
			t[i] = Normalize(vv)
		}
		return t
	case string:
		if strings.TrimSpace(t) == "" {
			return NotSpecified
		}
		return t
	case nil:
		return NotSpecified
	default:
		return v
	}
}

// Validate structurally compares value against the template: same key set
// and same nesting at every level. It returns a list of mismatch
// descriptions, empty when the value conforms.
func Validate(value, template map[string]any) []string {
	var mismatches []string
	validateMap(value, template, "$", &mismatches)
	return mismatches
}

func validateMap(value, template map[string]any, path string, mismatches *[]string) {
	for key := range template {
		if _, ok := value[key]; !ok {
			*mismatches = append(*mismatches, fmt.Sprintf("%s.%s: missing", path, key))
		}
	}
	var extra []string
	for key := range value {
		if _, ok := template[key]; !ok {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		*mismatches = append(*mismatches, fmt.Sprintf("%s.%s: unexpected key", path, key))
	}

	keys := make([]string, 0, len(template))
	for key := range template {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		tmplVal, ok := template[key]
		if !ok {
			continue
		}
		val, ok := value[key]
		if !ok {
			continue
		}
		validateValue(val, tmplVal, path+"."+key, mismatches)
	}
}

func validateValue(value, tmpl any, path string, mismatches *[]string) {
	switch t := tmpl.(type) {
	case map[string]any:
		vm, ok := value.(map[string]any)
		if !ok {
			*mismatches = append(*mismatches, fmt.Sprintf("%s: expected object", path))
			return
		}
		validateMap(vm, t, path, mismatches)
	case []any:
		va, ok := value.([]any)
		if !ok {
			*mismatches = append(*mismatches, fmt.Sprintf("%s: expected array", path))
			return
		}
		if len(t) > 0 {
			if elemTmpl, isObj := t[0].(map[string]any); isObj {
				for i, el := range va {
					em, ok := el.(map[string]any)
					if !ok {
						*mismatches = append(*mismatches, fmt.Sprintf("%s[%d]: expected object", path, i))
						continue
					}
					validateMap(em, elemTmpl, fmt.Sprintf("%s[%d]", path, i), mismatches)
				}
			}
		}
	case float64:
		if _, ok := value.(float64); !ok {
			*mismatches = append(*mismatches, fmt.Sprintf("%s: expected number", path))
		}
	case string:
		if _, ok := value.(string); !ok {
			*mismatches = append(*mismatches, fmt.Sprintf("%s: expected string", path))
		}
	case bool:
		if _, ok := value.(bool); !ok {
			*mismatches = append(*mismatches, fmt.Sprintf("%s: expected boolean", path))
		}
	}
}
