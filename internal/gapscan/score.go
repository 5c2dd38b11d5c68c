package gapscan

import "regexp"

// NotIdentifiable is the sentinel used wherever the analysis cannot
// determine a value. Risk buckets default to a single sentinel entry
// instead of an empty list.
const NotIdentifiable = "Not identifiable"

// Score collapses the findings into a single completeness score via a
// fixed precedence ladder: any finding in a higher-severity bucket
// dominates regardless of count.
func Score(findings []Finding) int {
	has := map[FindingKind]bool{}
	for _, f := range findings {
		has[f.Kind] = true
	}
	switch {
	case has[FindingMissing]:
		return 32
	case has[FindingOutdated]:
		return 52
	case has[FindingUnclear]:
		return 62
	case has[FindingWeak]:
		return 72
	default:
		return 90
	}
}

// RiskBuckets groups finding texts into three severity tiers.
type RiskBuckets struct {
	High   []string `json:"high"`
	Medium []string `json:"medium"`
	Low    []string `json:"low"`
}

var highRiskText = regexp.MustCompile(`(?i)integration|security|compliance|penalt`)

// ClassifyRisk places each finding in a bucket by keyword-matching the
// finding text, not the rule metadata. Outdated findings always land in
// Low; high-impact vocabulary dominates otherwise; "Contradictory" and
// the softer finding kinds fall to Medium.
func ClassifyRisk(findings []Finding) RiskBuckets {
	var b RiskBuckets
	for _, f := range findings {
		switch {
		case f.Kind == FindingOutdated:
			b.Low = append(b.Low, f.Detail)
		case highRiskText.MatchString(f.Detail):
			b.High = append(b.High, f.Detail)
		case f.Kind == FindingMissing:
			b.High = append(b.High, f.Detail)
		default:
			// Weak and Unclear findings, including the contradictory
			// deadline check, carry medium risk.
			b.Medium = append(b.Medium, f.Detail)
		}
	}
	if len(b.High) == 0 {
		b.High = []string{NotIdentifiable}
	}
	if len(b.Medium) == 0 {
		b.Medium = []string{NotIdentifiable}
	}
	if len(b.Low) == 0 {
		b.Low = []string{NotIdentifiable}
	}
	return b
}
