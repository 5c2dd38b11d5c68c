package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type fakeMessager struct {
	responses []string
	errs      []error
	calls     int
}

func (f *fakeMessager) New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error) {
	idx := f.calls
	f.calls++
	if idx < len(f.errs) && f.errs[idx] != nil {
		return nil, f.errs[idx]
	}
	text := ""
	if idx < len(f.responses) {
		text = f.responses[idx]
	}
	return &anthropic.Message{Content: []anthropic.ContentBlockUnion{{Type: "text", Text: text}}}, nil
}

func testGateway(m Messager) *Gateway {
	return &Gateway{messages: m, model: DefaultModel, enabled: true, sleep: func(time.Duration) {}}
}

func TestCompleteDisabledShortCircuits(t *testing.T) {
	fake := &fakeMessager{}
	g := &Gateway{messages: fake, enabled: false, sleep: func(time.Duration) {}}
	if _, ok := g.Complete(context.Background(), "prompt", 3); ok {
		t.Fatal("disabled gateway must report unavailable")
	}
	if fake.calls != 0 {
		t.Fatalf("disabled gateway made %d network calls", fake.calls)
	}
}

func TestCompleteRetriesThenSucceeds(t *testing.T) {
	fake := &fakeMessager{
		errs:      []error{errors.New("status 529"), errors.New("timeout")},
		responses: []string{"", "", "hello"},
	}
	g := testGateway(fake)
	text, ok := g.Complete(context.Background(), "prompt", 3)
	if !ok || text != "hello" {
		t.Fatalf("Complete = %q, %v", text, ok)
	}
	if fake.calls != 3 {
		t.Fatalf("calls = %d, want 3", fake.calls)
	}
}

func TestCompleteExhaustsRetries(t *testing.T) {
	fake := &fakeMessager{errs: []error{errors.New("boom"), errors.New("boom"), errors.New("boom")}}
	g := testGateway(fake)
	if _, ok := g.Complete(context.Background(), "prompt", 3); ok {
		t.Fatal("expected failure after exhausting retries")
	}
	if fake.calls != 3 {
		t.Fatalf("calls = %d, want 3", fake.calls)
	}
}

func TestStripCodeFences(t *testing.T) {
	in := "```json\n{\"a\": 1}\n```"
	if got := StripCodeFences(in); got != `{"a": 1}` {
		t.Fatalf("StripCodeFences = %q", got)
	}
	if got := StripCodeFences(`{"a": 1}`); got != `{"a": 1}` {
		t.Fatalf("unfenced input altered: %q", got)
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct{ in, want string }{
		{`Here is the result: {"a": {"b": 2}} hope it helps`, `{"a": {"b": 2}}`},
		{`noise [1, 2, 3] trailing`, `[1, 2, 3]`},
		{`{"s": "brace } inside"} extra`, `{"s": "brace } inside"}`},
		{"no json at all", ""},
		{`{"unterminated": true`, ""},
	}
	for _, tc := range cases {
		if got := ExtractJSON(tc.in); got != tc.want {
			t.Fatalf("ExtractJSON(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
