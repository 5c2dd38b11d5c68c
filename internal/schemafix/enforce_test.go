package schemafix

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func testTemplate() map[string]any {
	return map[string]any{
		"title": NotSpecified,
		"score": float64(0),
		"meta": map[string]any{
			"author": NotSpecified,
			"pages":  float64(0),
		},
		"items": []any{
			map[string]any{"name": NotSpecified, "weight": float64(0)},
		},
		"tags": []any{},
	}
}

func TestMergeEmptyCandidateYieldsSentinels(t *testing.T) {
	got := Merge(map[string]any{}, testTemplate())
	if !reflect.DeepEqual(got, testTemplate()) {
		t.Fatalf("Merge({}) = %#v", got)
	}
}

func TestMergeDropsUnknownKeysAndKeepsKnown(t *testing.T) {
	candidate := map[string]any{
		"title":    "Road Maintenance Tender",
		"invented": "dropped",
		"meta":     map[string]any{"author": "PWD", "invented_deep": true},
		"score":    "not a number",
	}
	got := Merge(candidate, testTemplate())

	if got["title"] != "Road Maintenance Tender" {
		t.Fatalf("title = %v", got["title"])
	}
	if _, ok := got["invented"]; ok {
		t.Fatal("unknown key survived the merge")
	}
	meta := got["meta"].(map[string]any)
	if meta["author"] != "PWD" {
		t.Fatalf("meta.author = %v", meta["author"])
	}
	if _, ok := meta["invented_deep"]; ok {
		t.Fatal("nested unknown key survived the merge")
	}
	if got["score"] != float64(0) {
		t.Fatalf("type-incompatible score should fall back to template, got %v", got["score"])
	}
}

func TestMergeArraySlotNonArrayKeepsTemplate(t *testing.T) {
	got := Merge(map[string]any{"items": "oops", "tags": float64(3)}, testTemplate())
	if !reflect.DeepEqual(got["items"], testTemplate()["items"]) {
		t.Fatalf("items = %#v", got["items"])
	}
	if !reflect.DeepEqual(got["tags"], []any{}) {
		t.Fatalf("tags = %#v", got["tags"])
	}
}

func TestNormalizeReplacesEmptyLeaves(t *testing.T) {
	v := map[string]any{
		"a": "  ",
		"b": nil,
		"c": []any{"", "kept"},
		"d": map[string]any{"e": "\t"},
	}
	got := Normalize(v).(map[string]any)
	if got["a"] != NotSpecified || got["b"] != NotSpecified {
		t.Fatalf("got %#v", got)
	}
	c := got["c"].([]any)
	if c[0] != NotSpecified || c[1] != "kept" {
		t.Fatalf("c = %#v", c)
	}
	if got["d"].(map[string]any)["e"] != NotSpecified {
		t.Fatalf("d.e = %#v", got["d"])
	}
}

func TestValidateReportsMismatches(t *testing.T) {
	bad := map[string]any{
		"title": float64(1),
		"extra": true,
		"meta":  "flat",
		"items": []any{"not an object"},
		"tags":  []any{},
	}
	mismatches := Validate(bad, testTemplate())
	if len(mismatches) == 0 {
		t.Fatal("expected mismatches")
	}
	joined := strings.Join(mismatches, "\n")
	for _, want := range []string{"$.score: missing", "$.extra: unexpected key", "$.meta: expected object", "$.title: expected string"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing %q in:\n%s", want, joined)
		}
	}
}

type scriptedCompleter struct {
	responses []string
	calls     int
}

func (s *scriptedCompleter) Complete(_ context.Context, _ string, _ int) (string, bool) {
	if s.calls >= len(s.responses) {
		return "", false
	}
	r := s.responses[s.calls]
	s.calls++
	return r, true
}

func passthroughExtract(raw string) string { return raw }

func TestEnforceValidFirstAttempt(t *testing.T) {
	e := NewEnforcer(nil, passthroughExtract)
	got, err := e.Enforce(context.Background(), `{"title":"T-1","score":5}`, testTemplate())
	if err != nil {
		t.Fatalf("Enforce: %v", err)
	}
	if got["title"] != "T-1" || got["score"] != float64(5) {
		t.Fatalf("got %#v", got)
	}
	if !reflect.DeepEqual(got["meta"], testTemplate()["meta"]) {
		t.Fatalf("meta defaults wrong: %#v", got["meta"])
	}
}

func TestEnforceRepairsUnparseableOutput(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{`{"title":"Fixed"}`}}
	e := NewEnforcer(completer, passthroughExtract)
	got, err := e.Enforce(context.Background(), "this is prose, not json", testTemplate())
	if err != nil {
		t.Fatalf("Enforce: %v", err)
	}
	if got["title"] != "Fixed" {
		t.Fatalf("got %#v", got)
	}
	if completer.calls != 1 {
		t.Fatalf("repair calls = %d, want 1", completer.calls)
	}
}

func TestEnforceExhaustsAttempts(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{"still prose", "more prose"}}
	e := NewEnforcer(completer, passthroughExtract)
	_, err := e.Enforce(context.Background(), "prose", testTemplate())
	if err == nil {
		t.Fatal("expected validation error after exhausting attempts")
	}
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("error type %T", err)
	}
	if ve.Attempts != 3 {
		t.Fatalf("attempts = %d", ve.Attempts)
	}
	if completer.calls != 2 {
		t.Fatalf("repair calls = %d, want 2", completer.calls)
	}
}

func TestEnforceIdempotent(t *testing.T) {
	e := NewEnforcer(nil, passthroughExtract)
	first, err := e.Enforce(context.Background(), `{"title":"T","score":10,"items":[{"name":"x","weight":40}],"tags":["a",""]}`, testTemplate())
	if err != nil {
		t.Fatalf("first Enforce: %v", err)
	}
	blob, err := json.Marshal(first)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Enforce(context.Background(), string(blob), testTemplate())
	if err != nil {
		t.Fatalf("second Enforce: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("not idempotent:\n%#v\nvs\n%#v", first, second)
	}
}

func TestCriteriaTemplateShape(t *testing.T) {
	e := NewEnforcer(nil, passthroughExtract)
	got, err := e.Enforce(context.Background(), `{}`, CriteriaTemplate())
	if err != nil {
		t.Fatalf("Enforce: %v", err)
	}
	if !reflect.DeepEqual(got, CriteriaTemplate()) {
		t.Fatalf("empty candidate must yield the template's own sentinels, got %#v", got)
	}
}
