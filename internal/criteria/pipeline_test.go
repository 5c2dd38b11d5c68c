package criteria

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/procurelens/procurelens/internal/schemafix"
)

type fakeCompleter struct {
	responses []string
	calls     int
	prompts   []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string, _ int) (string, bool) {
	f.prompts = append(f.prompts, prompt)
	if f.calls >= len(f.responses) {
		return "", false
	}
	r := f.responses[f.calls]
	f.calls++
	return r, true
}

func TestExtractCriteriaNilCompleterUnavailable(t *testing.T) {
	p := NewPipeline(nil)
	if _, err := p.ExtractCriteria(context.Background(), "doc"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestExtractCriteriaFailedCallUnavailable(t *testing.T) {
	p := NewPipeline(&fakeCompleter{})
	if _, err := p.ExtractCriteria(context.Background(), "doc"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestExtractCriteriaValidResponse(t *testing.T) {
	completer := &fakeCompleter{responses: []string{
		"```json\n{\"tender_title\":\"Highway Upgrade\",\"technical_weight\":60,\"financial_weight\":20}\n```",
	}}
	p := NewPipeline(completer)
	got, err := p.ExtractCriteria(context.Background(), "tender text")
	if err != nil {
		t.Fatalf("ExtractCriteria: %v", err)
	}
	if got["tender_title"] != "Highway Upgrade" {
		t.Fatalf("tender_title = %v", got["tender_title"])
	}
	if got["technical_weight"] != float64(75) || got["financial_weight"] != float64(25) {
		t.Fatalf("split = %v/%v, want normalized 75/25", got["technical_weight"], got["financial_weight"])
	}
	if got["issuing_department"] != schemafix.NotSpecified {
		t.Fatalf("issuing_department = %v", got["issuing_department"])
	}
}

func TestExtractCriteriaRepairsUnparseable(t *testing.T) {
	completer := &fakeCompleter{responses: []string{
		"Sure! Here are the criteria in plain prose.",
		`{"tender_title":"Repaired"}`,
	}}
	p := NewPipeline(completer)
	got, err := p.ExtractCriteria(context.Background(), "tender text")
	if err != nil {
		t.Fatalf("ExtractCriteria: %v", err)
	}
	if got["tender_title"] != "Repaired" {
		t.Fatalf("tender_title = %v", got["tender_title"])
	}
	if completer.calls != 2 {
		t.Fatalf("calls = %d, want initial + one repair", completer.calls)
	}
}

func TestExtractCriteriaContractViolationHardFails(t *testing.T) {
	completer := &fakeCompleter{responses: []string{
		`{"evaluation_weighting":["Price: 40%","Quality: 60%"]}`,
	}}
	p := NewPipeline(completer)
	_, err := p.ExtractCriteria(context.Background(), "tender text")
	if err == nil || !strings.Contains(err.Error(), "extraction contract") {
		t.Fatalf("err = %v, want contract violation", err)
	}
}

func TestExtractCriteriaTruncatesLongDocuments(t *testing.T) {
	completer := &fakeCompleter{responses: []string{`{}`}}
	p := NewPipeline(completer)
	if _, err := p.ExtractCriteria(context.Background(), strings.Repeat("x", maxDocumentChars+500)); err != nil {
		t.Fatalf("ExtractCriteria: %v", err)
	}
	if len(completer.prompts[0]) > maxDocumentChars+2000 {
		t.Fatalf("prompt length %d, document was not truncated", len(completer.prompts[0]))
	}
}

func TestSplitQueries(t *testing.T) {
	text := "Preamble line.\n" +
		"1) Can the submission deadline be extended?\n" +
		"Q2: What are the payment terms for milestones?\n" +
		"Is joint venture bidding allowed?\n" +
		"Short?\n" +
		"Statement without a question mark.\n"
	got := SplitQueries(text)
	want := []string{
		"Can the submission deadline be extended?",
		"What are the payment terms for milestones?",
		"Is joint venture bidding allowed?",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitQueries = %#v", got)
	}
}

func TestGroupQueriesHeuristicOnly(t *testing.T) {
	p := NewPipeline(nil)
	text := "Can the submission deadline be extended?\n" +
		"What are the payment terms for milestones?\n" +
		"Will invoice disputes delay the schedule?\n"
	groups := p.GroupQueries(context.Background(), text)
	if len(groups) != 2 {
		t.Fatalf("groups = %#v", groups)
	}
	if groups[0].Topic != "Timeline & Milestones" || len(groups[0].Queries) != 1 {
		t.Fatalf("group 0 = %#v", groups[0])
	}
	if groups[1].Topic != "Payment & Financial" || len(groups[1].Queries) != 2 {
		t.Fatalf("group 1 = %#v", groups[1])
	}
	for _, g := range groups {
		if g.DraftAnswer != schemafix.NotSpecified {
			t.Fatalf("heuristic-only draft answer = %q", g.DraftAnswer)
		}
	}
}

func TestGroupQueriesDraftsAnswers(t *testing.T) {
	completer := &fakeCompleter{responses: []string{"Consolidated answer."}}
	p := NewPipeline(completer)
	groups := p.GroupQueries(context.Background(), "Can the submission deadline be extended?\n")
	if len(groups) != 1 {
		t.Fatalf("groups = %#v", groups)
	}
	if groups[0].DraftAnswer != "Consolidated answer." {
		t.Fatalf("draft answer = %q", groups[0].DraftAnswer)
	}
}

func TestGroupQueriesNoQuestions(t *testing.T) {
	p := NewPipeline(nil)
	if groups := p.GroupQueries(context.Background(), "No questions here."); len(groups) != 0 {
		t.Fatalf("groups = %#v", groups)
	}
}

func TestRecommendationEnhancerImproves(t *testing.T) {
	completer := &fakeCompleter{responses: []string{`["Define a submission deadline with timezone.", "State the bid validity window."]`}}
	e := NewRecommendationEnhancer(completer)
	got, ok := e.ImproveRecommendations(context.Background(), "Administrative", []string{"Add a deadline.", "Add validity."})
	if !ok {
		t.Fatal("expected enhancement")
	}
	if len(got) != 2 || !strings.Contains(got[0], "timezone") {
		t.Fatalf("got %#v", got)
	}
}

func TestRecommendationEnhancerDeclinesOnFailure(t *testing.T) {
	cases := []struct {
		name      string
		completer *fakeCompleter
		input     []string
	}{
		{"call fails", &fakeCompleter{}, []string{"r"}},
		{"not json", &fakeCompleter{responses: []string{"prose"}}, []string{"r"}},
		{"empty array", &fakeCompleter{responses: []string{`["", "  "]`}}, []string{"r"}},
		{"no input", &fakeCompleter{responses: []string{`["x"]`}}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := NewRecommendationEnhancer(tc.completer)
			if _, ok := e.ImproveRecommendations(context.Background(), "Technical", tc.input); ok {
				t.Fatal("expected decline")
			}
		})
	}
}
