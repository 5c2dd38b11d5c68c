package gapscan

import (
	"fmt"
	"regexp"
	"strings"
)

type FindingKind string

const (
	FindingMissing  FindingKind = "missing"
	FindingWeak     FindingKind = "weak"
	FindingUnclear  FindingKind = "unclear"
	FindingOutdated FindingKind = "outdated"
)

// Finding is one gap observation. Created once during evaluation and
// never mutated afterwards.
type Finding struct {
	Kind     FindingKind
	Rule     string
	Category Category
	Detail   string
}

// patternRegexp compiles a rule pattern case-insensitively with substring
// semantics. Patterns from external rule files may not be valid regular
// expressions; those fall back to literal matching.
func patternRegexp(pattern string) *regexp.Regexp {
	re, err := regexp.Compile(`(?i)` + pattern)
	if err != nil {
		re = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(pattern))
	}
	return re
}

func matchAny(text string, patterns []string) (string, bool) {
	for _, p := range patterns {
		if patternRegexp(p).MatchString(text) {
			return p, true
		}
	}
	return "", false
}

// scopeText resolves a rule's target text: the newline-joined content of
// every where entry present in the section map, falling back to FULL when
// none matched.
func scopeText(rule Rule, sections map[string]string) string {
	var parts []string
	for _, name := range rule.Where {
		for key, content := range sections {
			if strings.EqualFold(key, name) {
				parts = append(parts, content)
				break
			}
		}
	}
	if len(parts) == 0 {
		return sections[SectionFull]
	}
	return strings.Join(parts, "\n")
}

// Evaluate runs every rule against the sectioned document and appends the
// three deterministic cross-cutting checks. categoryFilter, when non-empty,
// restricts the rule set to one category (case-insensitive exact match);
// a filter that matches nothing silently falls back to the full set.
func Evaluate(rules []Rule, sections map[string]string, categoryFilter string) []Finding {
	if strings.TrimSpace(categoryFilter) != "" {
		if filtered := RulesForCategory(rules, categoryFilter); len(filtered) > 0 {
			rules = filtered
		}
	}

	var findings []Finding
	seenOutdated := map[string]bool{}

	for _, rule := range rules {
		scope := scopeText(rule, sections)

		_, present := matchAny(scope, rule.Presence)
		if !present {
			if rule.Required {
				findings = append(findings, Finding{
					Kind:     FindingMissing,
					Rule:     rule.Name,
					Category: rule.Category,
					Detail:   fmt.Sprintf("%s is not addressed anywhere in its expected sections", rule.Name),
				})
			}
			// Absent and optional: nothing to check.
			continue
		}

		if missing := missingQualityTerms(scope, rule.QualityRequires); len(missing) > 0 {
			findings = append(findings, Finding{
				Kind:     FindingWeak,
				Rule:     rule.Name,
				Category: rule.Category,
				Detail:   fmt.Sprintf("%s is mentioned but lacks required detail: %s", rule.Name, strings.Join(missing, ", ")),
			})
		}

		if triggered := matchedTriggers(scope, rule.UnclearTriggers); len(triggered) > 0 {
			findings = append(findings, Finding{
				Kind:     FindingUnclear,
				Rule:     rule.Name,
				Category: rule.Category,
				Detail:   fmt.Sprintf("%s uses ambiguous wording: %s", rule.Name, strings.Join(triggered, ", ")),
			})
		}

		for _, trigger := range rule.OutdatedTriggers {
			if !patternRegexp(trigger).MatchString(scope) {
				continue
			}
			detail := fmt.Sprintf("%s references outdated technology or terms matching %q", rule.Name, trigger)
			if seenOutdated[detail] {
				continue
			}
			seenOutdated[detail] = true
			findings = append(findings, Finding{
				Kind:     FindingOutdated,
				Rule:     rule.Name,
				Category: rule.Category,
				Detail:   detail,
			})
		}
	}

	findings = append(findings, crossCuttingFindings(sections[SectionFull])...)
	return findings
}

func missingQualityTerms(scope string, patterns []string) []string {
	var missing []string
	for _, p := range patterns {
		if !patternRegexp(p).MatchString(scope) {
			missing = append(missing, p)
		}
	}
	return missing
}

func matchedTriggers(scope string, patterns []string) []string {
	var matched []string
	for _, p := range patterns {
		if patternRegexp(p).MatchString(scope) {
			matched = append(matched, p)
		}
	}
	return matched
}

const (
	deadlineAnchorPrimary   = "Proposal Submission Deadline"
	deadlineAnchorSecondary = "Submission of Technical and Commercial Proposal"
)

var (
	kpiVocabulary = regexp.MustCompile(`(?i)\bkpis?\b|key performance|performance (indicator|metric|measure)|service level|\bsla\b|uptime|availability target`)
	riskMention   = regexp.MustCompile(`(?i)\brisk`)
	riskDepth     = regexp.MustCompile(`(?i)risk scoring|risk register|probability|impact`)
)

// crossCuttingFindings are the rule-independent checks applied once per
// document: contradictory submission deadlines, missing KPI vocabulary,
// and shallow risk treatment. Their categories are fixed and they are not
// subject to the category filter.
func crossCuttingFindings(fullText string) []Finding {
	var findings []Finding

	d1 := dateAfterAnchor(fullText, deadlineAnchorPrimary)
	d2 := dateAfterAnchor(fullText, deadlineAnchorSecondary)
	if d1 != "" && d2 != "" && d1 != d2 {
		findings = append(findings, Finding{
			Kind:     FindingUnclear,
			Rule:     "Submission Deadline Consistency",
			Category: CategoryAdministrative,
			Detail: fmt.Sprintf("Contradictory submission deadlines: %q under %q vs %q under %q",
				d1, deadlineAnchorPrimary, d2, deadlineAnchorSecondary),
		})
	}

	if !kpiVocabulary.MatchString(fullText) {
		findings = append(findings, Finding{
			Kind:     FindingMissing,
			Rule:     "Performance Measurement",
			Category: CategoryKPIPerformance,
			Detail:   "No KPIs or performance vocabulary found; the tender gives no way to measure performance post-implementation",
		})
	}

	if riskMention.MatchString(fullText) && !riskDepth.MatchString(fullText) {
		findings = append(findings, Finding{
			Kind:     FindingWeak,
			Rule:     "Risk Treatment Depth",
			Category: CategoryRiskManagement,
			Detail:   "Risk is mentioned without risk scoring, a risk register, or probability/impact assessment",
		})
	}

	return findings
}

var dateToken = `(\d{1,2}/\d{1,2}/\d{4})`

// dateAfterAnchor finds the first date-formatted token following the
// anchor phrase, allowing the date to sit on the same or the next line.
func dateAfterAnchor(text, anchor string) string {
	re := regexp.MustCompile(`(?is)` + regexp.QuoteMeta(anchor) + `\W{0,40}?` + dateToken)
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}
