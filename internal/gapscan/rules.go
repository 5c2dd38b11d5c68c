package gapscan

import "strings"

// Rule is one named check: presence patterns establish whether a topic is
// covered at all in the rule's target sections, quality patterns list
// terms the coverage must mention, unclear triggers flag ambiguous
// wording, and outdated triggers flag obsolete technology or standards.
type Rule struct {
	Name             string
	Category         Category
	Where            []string
	Presence         []string
	QualityRequires  []string
	UnclearTriggers  []string
	OutdatedTriggers []string
	Required         bool
}

// normalize enforces the rule invariants: presence defaults to the rule
// name itself and where defaults to the whole-document sentinel.
func (r Rule) normalize() Rule {
	if len(r.Presence) == 0 {
		r.Presence = []string{r.Name}
	}
	if len(r.Where) == 0 {
		r.Where = []string{SectionFull}
	}
	return r
}

// BaselineRules returns the hard-coded rule set covering all nine
// categories. It is the floor every analysis runs with; an external rule
// file overrides by name and appends the rest.
func BaselineRules() []Rule {
	rules := []Rule{
		{
			Name:            "Submission Deadline",
			Category:        CategoryAdministrative,
			Where:           []string{"Submission Requirements", "Instructions to Bidders"},
			Presence:        []string{`submission deadline`, `closing date`, `due date`},
			QualityRequires: []string{`time`, `date`},
			UnclearTriggers: []string{`to be confirmed`, `tbd`, `as soon as possible`},
			Required:        true,
		},
		{
			Name:            "Bid Validity",
			Category:        CategoryAdministrative,
			Presence:        []string{`bid validity`, `validity of (the )?(bid|offer|proposal)`},
			QualityRequires: []string{`days`},
			Required:        true,
		},
		{
			Name:             "Technical Specifications",
			Category:         CategoryTechnical,
			Where:            []string{"Technical Specifications", "Technical Requirements", "Scope of Work"},
			Presence:         []string{`specification`, `technical requirement`},
			QualityRequires:  []string{`architecture`, `performance`},
			UnclearTriggers:  []string{`state[- ]of[- ]the[- ]art`, `best[- ]in[- ]class`, `industry[- ]standard solution`},
			OutdatedTriggers: []string{`windows (7|xp|2008)`, `internet explorer`, `fax`, `floppy`},
			Required:         true,
		},
		{
			Name:            "Implementation Timeline",
			Category:        CategoryTechnical,
			Where:           []string{"Implementation Plan", "Project Timeline", "Deliverables"},
			Presence:        []string{`timeline`, `milestone`, `implementation plan`, `delivery schedule`},
			QualityRequires: []string{`week|month|day`},
			UnclearTriggers: []string{`flexible timeline`, `approximately`},
		},
		{
			Name:            "Payment Terms",
			Category:        CategoryFinancial,
			Where:           []string{"Payment Terms", "Financial Proposal", "Commercial Terms"},
			Presence:        []string{`payment`, `invoice`},
			QualityRequires: []string{`\d+\s*(days|%)`},
			UnclearTriggers: []string{`mutually agreed`, `negotiable`},
			Required:        true,
		},
		{
			Name:     "Pricing Structure",
			Category: CategoryFinancial,
			Presence: []string{`price`, `pricing`, `cost breakdown`, `bill of quantities`},
			Required: true,
		},
		{
			Name:            "Service Level Agreement",
			Category:        CategorySupportSLA,
			Where:           []string{"Service Level Agreement", "Support and Maintenance"},
			Presence:        []string{`service level`, `\bsla\b`, `support hours`},
			QualityRequires: []string{`response time`, `resolution`},
			UnclearTriggers: []string{`reasonable (time|effort)`, `best effort`},
			Required:        true,
		},
		{
			Name:            "Warranty and Maintenance",
			Category:        CategorySupportSLA,
			Where:           []string{"Warranty", "Support and Maintenance"},
			Presence:        []string{`warranty`, `maintenance`},
			QualityRequires: []string{`months|years`},
		},
		{
			Name:             "Regulatory Compliance",
			Category:         CategoryCompliance,
			Where:            []string{"Compliance", "Terms and Conditions"},
			Presence:         []string{`compliance`, `regulation`, `regulatory`},
			QualityRequires:  []string{`data protection|privacy`},
			OutdatedTriggers: []string{`safe harbou?r framework`},
			Required:         true,
		},
		{
			Name:             "Security Standards",
			Category:         CategoryCompliance,
			Presence:         []string{`security`, `iso\s*27001`, `information security`},
			QualityRequires:  []string{`audit`, `encryption`},
			OutdatedTriggers: []string{`\bssl\b(?:\s*v?[23])?`, `md5`, `sha-?1\b`, `tls\s*1\.0`},
		},
		{
			Name:            "Governance Structure",
			Category:        CategoryGovernance,
			Where:           []string{"Governance"},
			Presence:        []string{`governance`, `steering committee`, `project board`},
			QualityRequires: []string{`escalation`, `reporting`},
			Required:        true,
		},
		{
			Name:            "Change Management",
			Category:        CategoryGovernance,
			Presence:        []string{`change (management|control|request)`},
			QualityRequires: []string{`approval`},
		},
		{
			Name:            "Risk Management Plan",
			Category:        CategoryRiskManagement,
			Where:           []string{"Risk Management"},
			Presence:        []string{`risk`},
			QualityRequires: []string{`mitigation`, `risk register|risk scoring`},
			UnclearTriggers: []string{`risks? (will|shall) be managed appropriately`},
			Required:        true,
		},
		{
			Name:             "Integration Requirements",
			Category:         CategoryIntegration,
			Where:            []string{"Integration Requirements", "Technical Specifications"},
			Presence:         []string{`integration`, `interface`, `interoperab`},
			QualityRequires:  []string{`api`, `data (exchange|format)`},
			UnclearTriggers:  []string{`seamless integration`},
			OutdatedTriggers: []string{`soap\b`, `ftp\b`, `\bedi\b`},
			Required:         true,
		},
		{
			Name:            "Performance Indicators",
			Category:        CategoryKPIPerformance,
			Where:           []string{"Key Performance Indicators", "Service Level Agreement"},
			Presence:        []string{`\bkpi\b`, `key performance`, `performance (indicator|measure|metric)`},
			QualityRequires: []string{`target`, `measure`},
			Required:        true,
		},
		{
			Name:            "Acceptance Criteria",
			Category:        CategoryKPIPerformance,
			Presence:        []string{`acceptance (criteria|test)`, `user acceptance`},
			QualityRequires: []string{`sign[- ]?off`},
		},
	}
	for i := range rules {
		rules[i] = rules[i].normalize()
	}
	return rules
}

// MergeRules overlays loaded rules onto the baseline. A loaded rule whose
// name matches a baseline rule (case-insensitively) replaces it wholesale;
// the rest are appended in load order.
func MergeRules(baseline, loaded []Rule) []Rule {
	if len(loaded) == 0 {
		return baseline
	}
	merged := make([]Rule, len(baseline))
	copy(merged, baseline)

	for _, lr := range loaded {
		lr = lr.normalize()
		replaced := false
		for i, br := range merged {
			if strings.EqualFold(br.Name, lr.Name) {
				merged[i] = lr
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, lr)
		}
	}
	return merged
}

// RulesForCategory returns the subset of rules in the given category,
// matched case-insensitively. Unknown categories yield an empty slice.
func RulesForCategory(rules []Rule, category string) []Rule {
	var out []Rule
	for _, r := range rules {
		if strings.EqualFold(string(r.Category), strings.TrimSpace(category)) {
			out = append(out, r)
		}
	}
	return out
}
