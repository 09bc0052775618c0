package memory

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/remora-mcp/remora/internal/backend"
)

// messageIDLineRe matches standalone "[message_id: ...]" lines that
// chat transports prepend to prompts.
var messageIDLineRe = regexp.MustCompile(`(?mi)^\[message_id:[^\]]*\][ \t]*\r?\n?`)

// envelopeHeaderRe matches a bracketed run at the very start of the
// prompt, e.g. "[general user 12:00] ". Only stripped when the run
// contains at least two whitespace-separated tokens, so a legitimate
// leading "[sic]" survives.
var envelopeHeaderRe = regexp.MustCompile(`^\[([^\]\n]+)\]\s*`)

// StripEnvelope removes transport framing from a prompt before it is
// used as search text: standalone message-id lines anywhere, and a
// leading channel/user/timestamp-style bracketed header.
func StripEnvelope(prompt string) string {
	s := messageIDLineRe.ReplaceAllString(prompt, "")
	s = strings.TrimSpace(s)
	if m := envelopeHeaderRe.FindStringSubmatch(s); m != nil {
		if len(strings.Fields(m[1])) >= 2 {
			s = strings.TrimSpace(s[len(m[0]):])
		}
	}
	return s
}

// Recall builds the memory context to inject before a turn: the rolling
// summary partition (stable background, cheap cache hit on the store
// side) followed by a query-specific semantic search (precision for the
// current turn). Neither component suppresses the other. Returns ""
// when the prompt is trivial or nothing relevant is known; never fails
// the turn — backend errors degrade to an empty or partial result.
func (e *Engine) Recall(ctx context.Context, prompt string) string {
	if len(strings.TrimSpace(prompt)) < minRecallQueryLen {
		return ""
	}

	var blocks []string

	if part := e.views.Partition(ctx); part != nil {
		blocks = append(blocks, formatSummaryBlock(part))
	}

	query := StripEnvelope(prompt)
	if len(query) >= minRecallQueryLen {
		if block := e.searchBlock(ctx, query); block != "" {
			blocks = append(blocks, block)
		}
	}

	if len(blocks) == 0 {
		return ""
	}
	return InjectedContextTag + "\n" + strings.Join(blocks, "\n\n") + "\n</remora-memory>"
}

// searchBlock runs the query-specific semantic search and formats the
// results that clear the score floor.
func (e *Engine) searchBlock(ctx context.Context, query string) string {
	hits, err := e.client.Search(ctx, backend.SearchParams{
		Query:             query,
		Limit:             e.opts.RecallLimit,
		Namespace:         e.opts.Namespace,
		UserID:            e.opts.UserID,
		DistanceThreshold: 1 - e.opts.MinScore,
	})
	if err != nil {
		log.Printf("WARNING: memory: recall search: %v", err)
		return ""
	}

	var kept []backend.SearchHit
	for _, hit := range hits {
		if scoreFromDistance(hit.Dist) >= e.opts.MinScore {
			kept = append(kept, hit)
		}
	}
	if len(kept) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("<memory-recall>\n")
	for _, hit := range kept {
		fmt.Fprintf(&b, "- %s\n", hit.Text)
	}
	b.WriteString("</memory-recall>")
	return b.String()
}

func formatSummaryBlock(p *backend.Partition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<memory-summary computed_at=%q memory_count=\"%d\">\n",
		p.ComputedAt, p.MemoryCount)
	b.WriteString(strings.TrimSpace(p.Summary))
	b.WriteString("\n</memory-summary>")
	return b.String()
}
