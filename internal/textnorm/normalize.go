// Package textnorm cleans up raw text extracted from tender documents
// before sectioning and rule evaluation.
package textnorm

import "strings"

// Clean trims each line, collapses internal whitespace runs to single
// spaces, and drops blank lines. Extraction libraries leave ragged
// spacing and page-break artifacts that would otherwise break the
// line-anchored heading regexes downstream.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.Join(strings.Fields(line), " ")
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
