package criteria

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/procurelens/procurelens/internal/schemafix"
)

// QueryGroup is one topic bundle of bidder queries with a drafted answer.
type QueryGroup struct {
	Topic       string   `json:"topic"`
	Queries     []string `json:"queries"`
	DraftAnswer string   `json:"draft_answer"`
}

// queryTopics maps a topic label to the vocabulary that pulls a query
// into it. Order decides precedence; the first matching topic wins.
var queryTopics = []struct {
	label   string
	pattern *regexp.Regexp
}{
	{"Payment & Financial", regexp.MustCompile(`(?i)payment|price|pricing|invoice|cost|financial|budget`)},
	{"Timeline & Milestones", regexp.MustCompile(`(?i)deadline|timeline|schedule|milestone|extension|date`)},
	{"Eligibility & Qualification", regexp.MustCompile(`(?i)eligib|qualif|experience|registration|certificate|turnover`)},
	{"Technical & Scope", regexp.MustCompile(`(?i)technical|specification|scope|integration|architecture|api`)},
	{"Contract & Legal", regexp.MustCompile(`(?i)contract|liability|penalt|warranty|terms|legal|dispute`)},
}

const topicOther = "Other"

var queryLine = regexp.MustCompile(`(?m)^(?:(?:Q|Query|Question)?\s*\d+[\).:]\s*)?(.+\?)\s*$`)

// SplitQueries pulls candidate bidder questions out of free text: lines
// ending in a question mark, with optional numbering prefixes stripped.
func SplitQueries(text string) []string {
	var out []string
	for _, m := range queryLine.FindAllStringSubmatch(text, -1) {
		q := strings.TrimSpace(m[1])
		if len(q) > 10 {
			out = append(out, q)
		}
	}
	return out
}

// GroupQueries buckets the document's questions by topic and, when the
// gateway is available, drafts one answer per group with a bounded
// parallel fan-out. With the gateway disabled the grouping is purely
// heuristic and the draft answers carry the sentinel.
func (p *Pipeline) GroupQueries(ctx context.Context, text string) []QueryGroup {
	queries := SplitQueries(text)
	if len(queries) == 0 {
		return []QueryGroup{}
	}

	byTopic := map[string][]string{}
	var order []string
	assign := func(topic, q string) {
		if _, seen := byTopic[topic]; !seen {
			order = append(order, topic)
		}
		byTopic[topic] = append(byTopic[topic], q)
	}
	for _, q := range queries {
		topic := topicOther
		for _, t := range queryTopics {
			if t.pattern.MatchString(q) {
				topic = t.label
				break
			}
		}
		assign(topic, q)
	}

	groups := make([]QueryGroup, len(order))
	for i, topic := range order {
		groups[i] = QueryGroup{Topic: topic, Queries: byTopic[topic], DraftAnswer: schemafix.NotSpecified}
	}
	if p.completer == nil {
		return groups
	}

	// One in-flight call per topic group; group count is bounded by the
	// fixed topic table, so no further throttling is needed.
	var wg sync.WaitGroup
	for i := range groups {
		wg.Add(1)
		go func(g *QueryGroup) {
			defer wg.Done()
			if answer, ok := p.completer.Complete(ctx, answerPrompt(g), 2); ok {
				if answer = strings.TrimSpace(answer); answer != "" {
					g.DraftAnswer = answer
				}
			}
		}(&groups[i])
	}
	wg.Wait()
	return groups
}

func answerPrompt(g *QueryGroup) string {
	return fmt.Sprintf(
		"Draft a single consolidated answer a procurement officer could give to this group of bidder queries on %q. "+
			"Be factual and concise; do not invent tender-specific figures.\n\nQueries:\n- %s",
		g.Topic, strings.Join(g.Queries, "\n- "),
	)
}
