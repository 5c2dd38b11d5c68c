package gapscan

import (
	"regexp"
	"strings"
)

// SectionFull is the reserved section key that always maps to the whole
// document text.
const SectionFull = "FULL"

// recognizedHeadings are matched literally (escaped) against full lines,
// case-insensitively. Order matters only for readability; matching is a
// single alternation pass over the document.
var recognizedHeadings = []string{
	"Introduction",
	"Background",
	"Scope of Work",
	"Scope of Services",
	"Technical Specifications",
	"Technical Requirements",
	"Functional Requirements",
	"Eligibility Criteria",
	"Qualification Criteria",
	"Evaluation Criteria",
	"Evaluation Methodology",
	"Submission Requirements",
	"Submission Guidelines",
	"Instructions to Bidders",
	"Terms and Conditions",
	"General Conditions",
	"Special Conditions",
	"Payment Terms",
	"Financial Proposal",
	"Commercial Terms",
	"Service Level Agreement",
	"Support and Maintenance",
	"Warranty",
	"Implementation Plan",
	"Project Timeline",
	"Deliverables",
	"Penalties",
	"Confidentiality",
	"Compliance",
	"Governance",
	"Risk Management",
	"Integration Requirements",
	"Key Performance Indicators",
	"Annexes",
	"Appendix",
}

var headingPattern = func() *regexp.Regexp {
	escaped := make([]string, len(recognizedHeadings))
	for i, h := range recognizedHeadings {
		escaped[i] = regexp.QuoteMeta(h)
	}
	return regexp.MustCompile(`(?im)^(` + strings.Join(escaped, "|") + `)\s*$`)
}()

// SplitSections partitions text into named spans delimited by recognized
// heading lines. Each section runs from its heading to the start of the
// next recognized heading, or end of text for the last one. The FULL key
// always maps to the complete input. With zero heading matches the result
// is exactly {FULL: text}.
//
// A heading that appears twice overwrites the earlier span (last match
// wins). Well-formed tenders state each heading once; repeated headings
// are a known limitation, not a supported layout.
func SplitSections(text string) map[string]string {
	sections := map[string]string{SectionFull: text}

	matches := headingPattern.FindAllStringSubmatchIndex(text, -1)
	for i, m := range matches {
		name := canonicalHeading(text[m[2]:m[3]])
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		sections[name] = text[m[0]:end]
	}
	return sections
}

// canonicalHeading maps a matched heading back to its recognized casing
// so section keys are stable regardless of how the document cased them.
func canonicalHeading(matched string) string {
	for _, h := range recognizedHeadings {
		if strings.EqualFold(h, matched) {
			return h
		}
	}
	return matched
}
