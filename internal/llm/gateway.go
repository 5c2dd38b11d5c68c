// Package llm wraps the Anthropic Messages API behind a small gateway
// with retry, backoff, and a feature flag. Callers treat an unavailable
// gateway as "no enhancement" and fall back to their heuristic path.
package llm

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const systemPrompt = "You are a procurement analyst reviewing public tender documents. Respond with strict JSON when a schema is given, otherwise with concise plain text."

// DefaultModel is used when TENDER_MODEL is unset.
const DefaultModel = string(anthropic.ModelClaudeSonnet4_20250514)

// defaultCallTimeout bounds a single generation call; a timed-out call is
// a transport failure subject to the same retry policy as any other.
const defaultCallTimeout = 90 * time.Second

type Messager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type ClientCreator func(apiKey string) Messager

func defaultCreator(apiKey string) Messager {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &c.Messages
}

var newClient ClientCreator = defaultCreator

// Gateway is safe for concurrent use; it holds no per-request state.
type Gateway struct {
	messages    Messager
	model       string
	enabled     bool
	callTimeout time.Duration
	sleep       func(time.Duration)
}

// NewFromEnv builds a gateway from ANTHROPIC_API_KEY, TENDER_MODEL, and
// TENDER_AI_ENABLED. A disabled gateway is valid and needs no key: every
// Complete call short-circuits without a network call.
func NewFromEnv() (*Gateway, error) {
	if !envEnabled() {
		return &Gateway{enabled: false, sleep: time.Sleep}, nil
	}
	apiKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY not configured (set TENDER_AI_ENABLED=false to run without generative enrichment)")
	}
	model := strings.TrimSpace(os.Getenv("TENDER_MODEL"))
	if model == "" {
		model = DefaultModel
	}
	return &Gateway{
		messages:    newClient(apiKey),
		model:       model,
		enabled:     true,
		callTimeout: defaultCallTimeout,
		sleep:       time.Sleep,
	}, nil
}

func envEnabled() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("TENDER_AI_ENABLED"))) {
	case "0", "false", "no":
		return false
	}
	return true
}

// Enabled reports whether generative enrichment is active.
func (g *Gateway) Enabled() bool { return g != nil && g.enabled }

// Complete sends the prompt and returns the raw text response. Transport
// and HTTP failures are retried up to maxRetries times with linearly
// increasing backoff (1s, 2s, ...). After exhausting retries, or when the
// gateway is disabled, ok is false and the caller degrades to its non-AI
// path.
func (g *Gateway) Complete(ctx context.Context, prompt string, maxRetries int) (string, bool) {
	if !g.Enabled() {
		return "", false
	}
	if maxRetries < 1 {
		maxRetries = 1
	}

	for attempt := 1; attempt <= maxRetries; attempt++ {
		text, err := g.call(ctx, prompt)
		if err == nil {
			return text, true
		}
		log.Printf("llm attempt %d/%d failed: %v", attempt, maxRetries, err)
		if ctx.Err() != nil {
			break
		}
		if attempt < maxRetries {
			g.sleep(time.Duration(attempt) * time.Second)
		}
	}
	return "", false
}

func (g *Gateway) call(ctx context.Context, prompt string) (string, error) {
	callCtx := ctx
	if g.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.callTimeout)
		defer cancel()
	}

	resp, err := g.messages.New(callCtx, anthropic.MessageNewParams{
		Model:       anthropic.Model(g.model),
		MaxTokens:   4096,
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(0.2),
	})
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}
