// Package memory implements the memory orchestration engine for Remora.
//
// It decides what gets written to and read from the remote vector store,
// when, and how conflicts are resolved: normalizing raw conversation
// turns into a canonical message log, tracking per-session capture
// cutoffs, maintaining the server-side rolling summary view, composing
// recall context for new turns, and resolving manual store/forget
// requests. The store itself is an external collaborator behind
// backend.Client.
package memory

import (
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// InjectedContextTag marks memory context that Remora itself injected
// into a conversation. The normalizer drops any turn containing it so
// injected memories are never re-captured as new user content.
const InjectedContextTag = "<remora-memory>"

// timeNow is a package-level var to allow test injection.
var timeNow = time.Now

// Turn is a raw conversation turn as supplied by the host. Content is
// either a string or an ordered list of content blocks; Timestamp is an
// epoch-milliseconds number or a parseable string when present.
type Turn struct {
	Role      string `json:"role"`
	Content   any    `json:"content"`
	ID        string `json:"id,omitempty"`
	Timestamp any    `json:"timestamp,omitempty"`
}

// Message is a canonical memory message: role-tagged, timestamped,
// non-empty trimmed text. Never mutated after creation.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Normalize converts raw turns into canonical messages, oldest first,
// preserving source order. Turns are dropped when they are not user or
// assistant turns, have empty extracted text, contain the injected
// context marker, or are not strictly newer than cutoff (zero cutoff
// keeps everything). Malformed turns are silently dropped — this is
// filtering, not an error.
func Normalize(turns []Turn, cutoff time.Time) []Message {
	var out []Message
	for _, turn := range turns {
		if turn.Role != "user" && turn.Role != "assistant" {
			continue
		}
		text := strings.TrimSpace(extractText(turn.Content))
		if text == "" {
			continue
		}
		if strings.Contains(text, InjectedContextTag) {
			continue
		}
		ts, hasTS := parseTurnTime(turn.Timestamp)
		if !hasTS {
			ts = timeNow().UTC()
		}
		if !cutoff.IsZero() && !ts.After(cutoff) {
			continue
		}
		id := turn.ID
		if id == "" {
			id = NewID()
		}
		out = append(out, Message{
			ID:        id,
			Role:      turn.Role,
			Content:   text,
			CreatedAt: ts,
		})
	}
	return out
}

// extractText flattens turn content into a single string. String
// content is used verbatim; block lists concatenate the text field of
// every block whose type is "text", joined by newline. Any other shape
// yields empty text.
func extractText(content any) string {
	switch v := content.(type) {
	case string:
		return v
	case []any:
		var parts []string
		for _, raw := range v {
			block, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if t, _ := block["type"].(string); t != "text" {
				continue
			}
			if text, ok := block["text"].(string); ok {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, "\n")
	default:
		return ""
	}
}

// parseTurnTime interprets a turn timestamp. Numbers are epoch
// milliseconds; strings may be numeric or RFC 3339.
func parseTurnTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case float64:
		return time.UnixMilli(int64(t)).UTC(), true
	case int64:
		return time.UnixMilli(t).UTC(), true
	case int:
		return time.UnixMilli(int64(t)).UTC(), true
	case string:
		if t == "" {
			return time.Time{}, false
		}
		if ms, err := strconv.ParseInt(t, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC(), true
		}
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed.UTC(), true
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// NewID returns a fresh globally unique memory id.
func NewID() string {
	return ulid.Make().String()
}
