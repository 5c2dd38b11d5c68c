package gapscan

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// ruleColumnSynonyms maps canonical rule fields to the header spellings
// accepted in an external rule file. Header matching is case-insensitive
// and ignores surrounding whitespace, so rule files survive column
// reordering and renames.
var ruleColumnSynonyms = map[string][]string{
	"name":     {"name", "rule", "rule name", "keyword", "check"},
	"category": {"category", "gap category", "gap_category", "bucket"},
	"where":    {"where", "section", "sections", "target sections", "scope"},
	"presence": {"presence", "presence patterns", "keywords", "patterns", "must contain"},
	"quality":  {"quality", "quality requires", "quality_requires", "required terms"},
	"unclear":  {"unclear", "unclear triggers", "unclear_triggers", "ambiguity", "ambiguous terms"},
	"outdated": {"outdated", "outdated triggers", "outdated_triggers", "obsolete", "obsolete terms"},
	"required": {"required", "mandatory", "must"},
}

// mapHeader resolves a CSV header row to canonical-field -> column-index.
// Unrecognized columns are ignored.
func mapHeader(header []string) map[string]int {
	cols := map[string]int{}
	for i, raw := range header {
		cell := strings.ToLower(strings.TrimSpace(raw))
		for field, synonyms := range ruleColumnSynonyms {
			if _, taken := cols[field]; taken {
				continue
			}
			for _, syn := range synonyms {
				if cell == syn {
					cols[field] = i
					break
				}
			}
		}
	}
	return cols
}

func splitPatterns(cell string) []string {
	var out []string
	for _, p := range strings.Split(cell, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseRequired(cell string) bool {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "true", "yes", "1":
		return true
	}
	return false
}

// ParseRuleCSV reads rules from a CSV stream with a header row. Rows
// missing a category or a rule name are discarded. Parse errors on the
// stream itself are returned; the caller treats them as "source absent".
func ParseRuleCSV(r io.Reader) ([]Rule, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header row: %w", err)
	}
	cols := mapHeader(header)
	if _, ok := cols["name"]; !ok {
		return nil, fmt.Errorf("rule file has no recognizable name/keyword column")
	}

	cell := func(row []string, field string) string {
		i, ok := cols[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var rules []Rule
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read rule row: %w", err)
		}

		name := cell(row, "name")
		category, ok := ParseCategory(cell(row, "category"))
		if name == "" || !ok {
			continue
		}

		rule := Rule{
			Name:             name,
			Category:         category,
			Where:            splitPatterns(cell(row, "where")),
			Presence:         splitPatterns(cell(row, "presence")),
			QualityRequires:  splitPatterns(cell(row, "quality")),
			UnclearTriggers:  splitPatterns(cell(row, "unclear")),
			OutdatedTriggers: splitPatterns(cell(row, "outdated")),
			Required:         parseRequired(cell(row, "required")),
		}
		rules = append(rules, rule.normalize())
	}
	return rules, nil
}

// LoadRules returns the baseline rules merged with the external CSV rule
// file at path. A missing, empty, or malformed file degrades to the
// baseline alone with a logged warning; rule-source problems are never
// surfaced to callers.
func LoadRules(path string) []Rule {
	baseline := BaselineRules()
	if strings.TrimSpace(path) == "" {
		return baseline
	}

	f, err := os.Open(path)
	if err != nil {
		log.Printf("rule source %s unavailable, using baseline rules: %v", path, err)
		return baseline
	}
	defer f.Close()

	loaded, err := ParseRuleCSV(f)
	if err != nil {
		log.Printf("rule source %s unreadable, using baseline rules: %v", path, err)
		return baseline
	}
	if len(loaded) == 0 {
		log.Printf("rule source %s yielded no rules, using baseline rules", path)
		return baseline
	}
	return MergeRules(baseline, loaded)
}
