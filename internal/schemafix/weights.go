package schemafix

import "math"

// NormalizeWeights rescales a sibling weight group so the integer results
// sum to exactly 100, preserving relative proportions within rounding
// (largest-remainder assignment). A group already within ±1 of 100 is
// returned unchanged to avoid rounding churn on valid input. A zero-sum
// group gets an equal default split instead of a divide-by-zero.
func NormalizeWeights(weights []float64) []float64 {
	if len(weights) == 0 {
		return weights
	}

	sum := 0.0
	for _, w := range weights {
		if w > 0 {
			sum += w
		}
	}
	if math.Abs(sum-100) <= 1 && sum != 0 {
		return weights
	}
	if sum == 0 {
		return equalSplit(len(weights))
	}

	scaled := make([]float64, len(weights))
	floors := make([]float64, len(weights))
	remainders := make([]float64, len(weights))
	total := 0.0
	for i, w := range weights {
		if w < 0 {
			w = 0
		}
		scaled[i] = w / sum * 100
		floors[i] = math.Floor(scaled[i])
		remainders[i] = scaled[i] - floors[i]
		total += floors[i]
	}

	// Hand out the leftover points to the largest remainders.
	for leftover := int(math.Round(100 - total)); leftover > 0; leftover-- {
		best := 0
		for i := 1; i < len(remainders); i++ {
			if remainders[i] > remainders[best] {
				best = i
			}
		}
		floors[best]++
		remainders[best] = -1
	}
	return floors
}

func equalSplit(n int) []float64 {
	out := make([]float64, n)
	base := math.Floor(100 / float64(n))
	used := 0.0
	for i := range out {
		out[i] = base
		used += base
	}
	for i := 0; used < 100; i++ {
		out[i%n]++
		used++
	}
	return out
}

// DefaultTechnicalWeight and DefaultFinancialWeight are the business
// fallback applied when a tender specifies no technical/financial split.
const (
	DefaultTechnicalWeight = 70.0
	DefaultFinancialWeight = 30.0
)

// ApplyCriteriaDefaults fills domain-specific fallbacks into an enforced
// criteria object and rescales every sibling weight group. This policy
// layer is deliberately separate from generic template enforcement.
func ApplyCriteriaDefaults(criteria map[string]any) map[string]any {
	tech, _ := criteria["technical_weight"].(float64)
	fin, _ := criteria["financial_weight"].(float64)
	if tech == 0 && fin == 0 {
		criteria["technical_weight"] = DefaultTechnicalWeight
		criteria["financial_weight"] = DefaultFinancialWeight
	} else {
		pair := NormalizeWeights([]float64{tech, fin})
		criteria["technical_weight"] = pair[0]
		criteria["financial_weight"] = pair[1]
	}

	if subs, ok := criteria["technical_subsections"].(map[string]any); ok {
		keys := []string{"methodology", "team_experience", "timeline", "quality_assurance", "local_content"}
		vals := make([]float64, len(keys))
		for i, k := range keys {
			vals[i], _ = subs[k].(float64)
		}
		vals = NormalizeWeights(vals)
		for i, k := range keys {
			subs[k] = vals[i]
		}
	}

	if entries, ok := criteria["evaluation_weighting"].([]any); ok && len(entries) > 0 {
		vals := make([]float64, len(entries))
		for i, el := range entries {
			if em, ok := el.(map[string]any); ok {
				vals[i], _ = em["weight"].(float64)
			}
		}
		vals = NormalizeWeights(vals)
		for i, el := range entries {
			if em, ok := el.(map[string]any); ok {
				em["weight"] = vals[i]
			}
		}
	}
	return criteria
}
