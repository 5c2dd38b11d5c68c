// Package gapscan implements the rule-driven gap analysis of tender
// documents: sectioning, keyword rule evaluation, completeness scoring,
// and risk classification.
package gapscan

import "strings"

// Category is one of the nine fixed buckets every rule and finding
// belongs to.
type Category string

const (
	CategoryAdministrative Category = "Administrative"
	CategoryTechnical      Category = "Technical"
	CategoryFinancial      Category = "Financial"
	CategorySupportSLA     Category = "Support/SLA"
	CategoryCompliance     Category = "Compliance"
	CategoryGovernance     Category = "Governance"
	CategoryRiskManagement Category = "Risk Management"
	CategoryIntegration    Category = "Integration"
	CategoryKPIPerformance Category = "KPI & Performance"
)

// AllCategories in stable display order.
var AllCategories = []Category{
	CategoryAdministrative,
	CategoryTechnical,
	CategoryFinancial,
	CategorySupportSLA,
	CategoryCompliance,
	CategoryGovernance,
	CategoryRiskManagement,
	CategoryIntegration,
	CategoryKPIPerformance,
}

// ParseCategory resolves a case-insensitive category name. The second
// return is false for unknown names.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range AllCategories {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}
