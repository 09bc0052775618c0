package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/remora-mcp/remora/internal/backend"
)

// Outcome status values for manual store/forget operations. These are
// structured results, not errors: tool handlers render them as plain
// text for the caller.
const (
	StatusStored           = "stored"
	StatusDuplicate        = "duplicate"
	StatusRejected         = "rejected"
	StatusDeleted          = "deleted"
	StatusAmbiguous        = "ambiguous"
	StatusNotFound         = "not_found"
	StatusMissingParameter = "missing_parameter"
	StatusError            = "error"
)

// StoreOutcome reports the result of a manual store request.
type StoreOutcome struct {
	Status   string `json:"status"`
	ID       string `json:"id,omitempty"`
	Category string `json:"category,omitempty"`
	// Existing holds the duplicate entry's text when Status is "duplicate".
	Existing string `json:"existing,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// ForgetCandidate is one fuzzy-match candidate returned when a forget
// query is ambiguous.
type ForgetCandidate struct {
	ID    string  `json:"id"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// ForgetOutcome reports the result of a manual forget request.
type ForgetOutcome struct {
	Status     string            `json:"status"`
	ID         string            `json:"id,omitempty"`
	Candidates []ForgetCandidate `json:"candidates,omitempty"`
	Reason     string            `json:"reason,omitempty"`
}

// Store saves a memory entry manually, suppressing near-duplicates: if
// an existing entry scores at or above the duplicate threshold against
// the new text, it is reported instead of writing a second copy. When
// category is empty it is detected from the text.
func (e *Engine) Store(ctx context.Context, text, category string) StoreOutcome {
	text = strings.TrimSpace(text)
	if text == "" {
		return StoreOutcome{Status: StatusRejected, Reason: "text is empty"}
	}
	if category == "" {
		category = DetectCategory(text)
	}

	hits, err := e.client.Search(ctx, backend.SearchParams{
		Query:     text,
		Limit:     1,
		Namespace: e.opts.Namespace,
		UserID:    e.opts.UserID,
	})
	if err != nil {
		return StoreOutcome{Status: StatusError, Reason: fmt.Sprintf("duplicate check failed: %v", err)}
	}
	if len(hits) > 0 && scoreFromDistance(hits[0].Dist) >= e.opts.DuplicateScore {
		return StoreOutcome{
			Status:   StatusDuplicate,
			ID:       hits[0].ID,
			Existing: hits[0].Text,
		}
	}

	id := NewID()
	err = e.client.CreateEntries(ctx, []backend.Entry{
		{ID: id, Text: text, Tags: []string{category}},
	}, e.opts.Namespace)
	if err != nil {
		return StoreOutcome{Status: StatusError, Reason: fmt.Sprintf("store failed: %v", err)}
	}
	return StoreOutcome{Status: StatusStored, ID: id, Category: category}
}

// Forget deletes a memory entry, addressed either by exact id
// (unconditional) or by fuzzy query. A query deletes only when exactly
// one match clears the auto-forget threshold; otherwise the candidates
// are returned for disambiguation and nothing is deleted.
func (e *Engine) Forget(ctx context.Context, query, memoryID string) ForgetOutcome {
	switch {
	case memoryID != "":
		if err := e.client.DeleteEntries(ctx, []string{memoryID}); err != nil {
			return ForgetOutcome{Status: StatusError, Reason: fmt.Sprintf("delete failed: %v", err)}
		}
		return ForgetOutcome{Status: StatusDeleted, ID: memoryID}

	case strings.TrimSpace(query) != "":
		return e.forgetByQuery(ctx, strings.TrimSpace(query))

	default:
		return ForgetOutcome{
			Status: StatusMissingParameter,
			Reason: "either query or memory_id is required",
		}
	}
}

func (e *Engine) forgetByQuery(ctx context.Context, query string) ForgetOutcome {
	hits, err := e.client.Search(ctx, backend.SearchParams{
		Query:     query,
		Limit:     5,
		Namespace: e.opts.Namespace,
		UserID:    e.opts.UserID,
	})
	if err != nil {
		return ForgetOutcome{Status: StatusError, Reason: fmt.Sprintf("search failed: %v", err)}
	}
	if len(hits) == 0 {
		return ForgetOutcome{Status: StatusNotFound, Reason: "no memories matched the query"}
	}

	var confident []backend.SearchHit
	for _, hit := range hits {
		if scoreFromDistance(hit.Dist) > e.opts.AutoForgetScore {
			confident = append(confident, hit)
		}
	}
	if len(confident) == 1 {
		if err := e.client.DeleteEntries(ctx, []string{confident[0].ID}); err != nil {
			return ForgetOutcome{Status: StatusError, Reason: fmt.Sprintf("delete failed: %v", err)}
		}
		return ForgetOutcome{Status: StatusDeleted, ID: confident[0].ID}
	}

	// Zero or several high-confidence matches: hand the candidates back
	// and delete nothing.
	candidates := make([]ForgetCandidate, 0, len(hits))
	for _, hit := range hits {
		candidates = append(candidates, ForgetCandidate{
			ID:    idPrefix(hit.ID),
			Text:  truncate(hit.Text, 80),
			Score: scoreFromDistance(hit.Dist),
		})
	}
	return ForgetOutcome{Status: StatusAmbiguous, Candidates: candidates}
}

func idPrefix(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// truncate shortens a string to max length with ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
