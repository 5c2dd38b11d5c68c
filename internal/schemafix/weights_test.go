package schemafix

import (
	"math"
	"reflect"
	"testing"
)

func sum(ws []float64) float64 {
	total := 0.0
	for _, w := range ws {
		total += w
	}
	return total
}

func TestNormalizeWeightsPositiveSumHitsExactly100(t *testing.T) {
	cases := [][]float64{
		{30, 30, 30},
		{1, 1, 1},
		{55, 80},
		{12.5, 12.5, 50},
		{120, 60, 20},
	}
	for _, ws := range cases {
		got := NormalizeWeights(ws)
		if s := sum(got); s != 100 {
			t.Fatalf("NormalizeWeights(%v) sums to %v, want 100 (got %v)", ws, s, got)
		}
	}
}

func TestNormalizeWeightsPreservesProportions(t *testing.T) {
	got := NormalizeWeights([]float64{60, 20})
	if got[0] != 75 || got[1] != 25 {
		t.Fatalf("got %v, want [75 25]", got)
	}
}

func TestNormalizeWeightsToleranceBandUnchanged(t *testing.T) {
	in := []float64{40.5, 59.0}
	got := NormalizeWeights(in)
	if !reflect.DeepEqual(got, in) {
		t.Fatalf("sum within ±1 of 100 must be left unchanged, got %v", got)
	}
}

func TestNormalizeWeightsZeroSumDefaultSplit(t *testing.T) {
	got := NormalizeWeights([]float64{0, 0, 0, 0})
	if s := sum(got); s != 100 {
		t.Fatalf("default split sums to %v", s)
	}
	for _, w := range got {
		if math.Abs(w-25) > 1 {
			t.Fatalf("expected near-equal split, got %v", got)
		}
	}
}

func TestNormalizeWeightsEmpty(t *testing.T) {
	if got := NormalizeWeights(nil); len(got) != 0 {
		t.Fatalf("got %v", got)
	}
}

func TestApplyCriteriaDefaultsMissingSplit(t *testing.T) {
	criteria := CriteriaTemplate()
	got := ApplyCriteriaDefaults(criteria)
	if got["technical_weight"] != DefaultTechnicalWeight || got["financial_weight"] != DefaultFinancialWeight {
		t.Fatalf("expected 70/30 default split, got %v/%v", got["technical_weight"], got["financial_weight"])
	}
}

func TestApplyCriteriaDefaultsRescalesGroups(t *testing.T) {
	criteria := CriteriaTemplate()
	criteria["technical_weight"] = float64(60)
	criteria["financial_weight"] = float64(20)
	subs := criteria["technical_subsections"].(map[string]any)
	subs["methodology"] = float64(30)
	subs["team_experience"] = float64(30)
	criteria["evaluation_weighting"] = []any{
		map[string]any{"criterion": "Price", "weight": float64(120)},
		map[string]any{"criterion": "Quality", "weight": float64(40)},
	}

	got := ApplyCriteriaDefaults(criteria)
	if got["technical_weight"] != float64(75) || got["financial_weight"] != float64(25) {
		t.Fatalf("split = %v/%v", got["technical_weight"], got["financial_weight"])
	}

	subsOut := got["technical_subsections"].(map[string]any)
	subTotal := 0.0
	for _, k := range []string{"methodology", "team_experience", "timeline", "quality_assurance", "local_content"} {
		subTotal += subsOut[k].(float64)
	}
	if subTotal != 100 {
		t.Fatalf("subsections sum to %v", subTotal)
	}

	entries := got["evaluation_weighting"].([]any)
	w1 := entries[0].(map[string]any)["weight"].(float64)
	w2 := entries[1].(map[string]any)["weight"].(float64)
	if w1+w2 != 100 || w1 != 75 {
		t.Fatalf("weighting = %v + %v", w1, w2)
	}
}
