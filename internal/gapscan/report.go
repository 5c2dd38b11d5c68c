package gapscan

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

type DocumentInfo struct {
	Title      string `json:"title"`
	Department string `json:"department"`
	Type       string `json:"type"`
	Year       string `json:"year"`
	Notes      string `json:"notes"`
}

type Completeness struct {
	OverallScore    int      `json:"overallScore"`
	MissingSections []string `json:"missingSections"`
	WeakSections    []string `json:"weakSections"`
	UnclearSections []string `json:"unclearSections"`
	OutdatedContent []string `json:"outdatedContent"`
}

// AnalysisResult is the full gap-analysis envelope for one document.
// Constructed once per request; nothing in it is shared or mutated after
// Analyze returns.
type AnalysisResult struct {
	DocumentInfo           DocumentInfo        `json:"documentInfo"`
	CompletenessAssessment Completeness        `json:"completenessAssessment"`
	GapCategories          map[string][]string `json:"gapCategories"`
	RiskAssessment         RiskBuckets         `json:"riskAssessment"`
	Recommendations        map[string][]string `json:"recommendations"`
	ReportMarkdown         string              `json:"report_markdown"`
}

// Enhancer optionally rewrites the heuristic recommendations for one
// category. The second return reports whether an improved version was
// produced; false means keep the heuristic text (the AI layer is optional
// sugar and must never fail the analysis).
type Enhancer interface {
	ImproveRecommendations(ctx context.Context, category string, recommendations []string) ([]string, bool)
}

// Options configure one analysis run.
type Options struct {
	Department     string
	CategoryFilter string
	Enhancer       Enhancer
}

// Analyze runs the full deterministic pipeline over normalized document
// text: sectioning, rule evaluation, scoring, risk classification, and
// report assembly. With a nil Enhancer (or one that declines) the result
// is fully deterministic for a fixed rule set and document.
func Analyze(ctx context.Context, text string, rules []Rule, opts Options) AnalysisResult {
	sections := SplitSections(text)
	findings := Evaluate(rules, sections, opts.CategoryFilter)

	result := AnalysisResult{
		DocumentInfo:           describeDocument(text, opts.Department),
		CompletenessAssessment: buildCompleteness(findings),
		GapCategories:          groupByCategory(findings),
		RiskAssessment:         ClassifyRisk(findings),
	}
	result.Recommendations = buildRecommendations(ctx, findings, opts.Enhancer)
	result.ReportMarkdown = buildMarkdown(result, findings)
	return result
}

func buildCompleteness(findings []Finding) Completeness {
	c := Completeness{
		OverallScore:    Score(findings),
		MissingSections: []string{},
		WeakSections:    []string{},
		UnclearSections: []string{},
		OutdatedContent: []string{},
	}
	for _, f := range findings {
		switch f.Kind {
		case FindingMissing:
			c.MissingSections = append(c.MissingSections, f.Detail)
		case FindingWeak:
			c.WeakSections = append(c.WeakSections, f.Detail)
		case FindingUnclear:
			c.UnclearSections = append(c.UnclearSections, f.Detail)
		case FindingOutdated:
			c.OutdatedContent = append(c.OutdatedContent, f.Detail)
		}
	}
	return c
}

func groupByCategory(findings []Finding) map[string][]string {
	out := map[string][]string{}
	for _, f := range findings {
		out[string(f.Category)] = append(out[string(f.Category)], f.Detail)
	}
	return out
}

var (
	departmentPattern = regexp.MustCompile(`(?i)(?:department|ministry|directorate|authority) of ([A-Za-z][A-Za-z &]{2,60})`)
	yearPattern       = regexp.MustCompile(`\b(20\d{2})\b`)
	tenderTypePattern = regexp.MustCompile(`(?i)request for (proposal|quotation|tender|information)|invitation to (bid|tender)|expression of interest`)
)

// describeDocument fills DocumentInfo from cheap heuristics. Every field
// is independently optional and defaults to the sentinel.
func describeDocument(text, department string) DocumentInfo {
	info := DocumentInfo{
		Title:      NotIdentifiable,
		Department: NotIdentifiable,
		Type:       NotIdentifiable,
		Year:       NotIdentifiable,
		Notes:      NotIdentifiable,
	}

	if first, _, _ := strings.Cut(text, "\n"); len(first) >= 10 && len(first) <= 150 {
		info.Title = strings.TrimSpace(first)
	}
	if department = strings.TrimSpace(department); department != "" {
		info.Department = department
	} else if m := departmentPattern.FindStringSubmatch(text); m != nil {
		info.Department = strings.TrimSpace(m[0])
	}
	if m := tenderTypePattern.FindString(text); m != "" {
		info.Type = capitalizeFirst(strings.ToLower(m))
	}
	if m := yearPattern.FindString(text); m != "" {
		info.Year = m
	}
	return info
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// recommendationFor converts one finding into an actionable heuristic
// recommendation.
func recommendationFor(f Finding) string {
	switch f.Kind {
	case FindingMissing:
		return fmt.Sprintf("Add a dedicated section covering %s before publishing the tender.", f.Rule)
	case FindingWeak:
		return fmt.Sprintf("Strengthen the %s coverage with the missing detail noted: %s", f.Rule, f.Detail)
	case FindingUnclear:
		return fmt.Sprintf("Replace ambiguous wording flagged under %s with measurable, testable language.", f.Rule)
	case FindingOutdated:
		return fmt.Sprintf("Review and modernize the content flagged under %s.", f.Rule)
	}
	return f.Detail
}

func buildRecommendations(ctx context.Context, findings []Finding, enhancer Enhancer) map[string][]string {
	out := map[string][]string{}
	for _, f := range findings {
		out[string(f.Category)] = append(out[string(f.Category)], recommendationFor(f))
	}
	if enhancer == nil {
		return out
	}
	for category, recs := range out {
		if improved, ok := enhancer.ImproveRecommendations(ctx, category, recs); ok && len(improved) > 0 {
			out[category] = improved
		}
	}
	return out
}

func buildMarkdown(result AnalysisResult, findings []Finding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Tender Gap Analysis Report\n\n")
	fmt.Fprintf(&b, "- Title: %s\n", result.DocumentInfo.Title)
	fmt.Fprintf(&b, "- Department: %s\n", result.DocumentInfo.Department)
	fmt.Fprintf(&b, "- Type: %s\n", result.DocumentInfo.Type)
	fmt.Fprintf(&b, "- Date: %s\n\n", time.Now().Format(time.RFC3339))

	fmt.Fprintf(&b, "## Completeness\n\n")
	fmt.Fprintf(&b, "Overall completeness score: **%d/100**.\n\n", result.CompletenessAssessment.OverallScore)
	appendBucket(&b, "Missing sections", result.CompletenessAssessment.MissingSections)
	appendBucket(&b, "Weak sections", result.CompletenessAssessment.WeakSections)
	appendBucket(&b, "Unclear content", result.CompletenessAssessment.UnclearSections)
	appendBucket(&b, "Outdated content", result.CompletenessAssessment.OutdatedContent)

	fmt.Fprintf(&b, "## Findings by Category\n\n")
	for _, category := range AllCategories {
		details := result.GapCategories[string(category)]
		if len(details) == 0 {
			continue
		}
		fmt.Fprintf(&b, "### %s\n\n", category)
		for _, d := range details {
			fmt.Fprintf(&b, "- %s\n", d)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## Risk Assessment\n\n")
	appendBucket(&b, "High", result.RiskAssessment.High)
	appendBucket(&b, "Medium", result.RiskAssessment.Medium)
	appendBucket(&b, "Low", result.RiskAssessment.Low)

	fmt.Fprintf(&b, "## Recommendations\n\n")
	for _, category := range AllCategories {
		recs := result.Recommendations[string(category)]
		if len(recs) == 0 {
			continue
		}
		fmt.Fprintf(&b, "### %s\n\n", category)
		for _, r := range recs {
			fmt.Fprintf(&b, "- %s\n", r)
		}
		b.WriteString("\n")
	}

	if len(findings) == 0 {
		fmt.Fprintf(&b, "No gaps were detected by the configured rule set.\n")
	}
	return b.String()
}

func appendBucket(b *strings.Builder, label string, entries []string) {
	fmt.Fprintf(b, "**%s**\n\n", label)
	if len(entries) == 0 {
		fmt.Fprintf(b, "- none\n\n")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(b, "- %s\n", e)
	}
	b.WriteString("\n")
}
